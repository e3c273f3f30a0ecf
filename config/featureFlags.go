package config

import (
	"os"
	"strings"
)

// ManualNcfMatcherDisabled turns off the free-text NCF fallback matcher in the
// reconcile sweep. The session-close matcher always runs. The text matcher is
// best-effort by nature (malformed references), so ops can disable it without
// touching the main path.
//
// Set via env:
// - DISABLE_MANUAL_NCF_MATCHER=true
func ManualNcfMatcherDisabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("DISABLE_MANUAL_NCF_MATCHER")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// FiscalPrintEnabled gates the whole fiscal-print override. When false, POS
// invoices flow through the default document pipeline like any other invoice.
//
// Set via env:
// - FISCAL_PRINT_ENABLED=false (default true)
func FiscalPrintEnabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("FISCAL_PRINT_ENABLED")))
	if v == "" {
		return true
	}
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

package workflow

import "testing"

// NOTE: These tests are intentionally DB-free. They validate the matcher and
// availability semantics on pure inputs; full DB integration tests need a
// MySQL environment.

func TestExtractNcf_FromNarration(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"Pago factura B0200001234 recibido", "B0200001234"},
		{"B0100000001", "B0100000001"},
		{"ref B02 sin numero", ""},
		{"", ""},
		{"abono B0299999999 y B0100000042", "B0299999999"}, // first match wins
		{"numero corto B020000123", ""},                    // fewer than 8 sequence digits
		{"B02000012345678 largo", "B02000012345678"},
	}
	for _, c := range cases {
		if got := ExtractNcf(c.text); got != c.want {
			t.Errorf("ExtractNcf(%q) = %q, want %q", c.text, got, c.want)
		}
	}
}

func TestExtractNcf_DifferentNumberDoesNotMatchInvoice(t *testing.T) {
	invoiceNcf := "B0200001234"
	narration := "Pago factura B0200009999 recibido"
	if got := ExtractNcf(narration); got == invoiceNcf {
		t.Fatalf("narration with a different fiscal number must not match, got %q", got)
	}
}

package workflow

import (
	"strings"
	"testing"
	"time"

	"bitbucket.org/lmsoluciones/fiscalpos_backend/models"
	"github.com/shopspring/decimal"
)

func TestDecideAvailability_Exhausted(t *testing.T) {
	got := decideAvailability(&models.NcfRange{AvailableNumbers: 0}, 5, models.NcfTypeConsumer)
	if got.Ok {
		t.Fatal("exhausted range must block")
	}
	if !strings.Contains(got.Message, "02") {
		t.Errorf("blocked message must name the document type, got %q", got.Message)
	}

	got = decideAvailability(nil, 5, models.NcfTypeFiscalCredit)
	if got.Ok {
		t.Fatal("missing range must block")
	}
	if !strings.Contains(got.Message, "01") {
		t.Errorf("blocked message must name the document type, got %q", got.Message)
	}
}

func TestDecideAvailability_LowStockWarning(t *testing.T) {
	got := decideAvailability(&models.NcfRange{AvailableNumbers: 3}, 5, models.NcfTypeConsumer)
	if !got.Ok || !got.Warning {
		t.Fatalf("3 left with threshold 5 must warn, got %+v", got)
	}
	if got.Available != 3 || got.Threshold != 5 {
		t.Errorf("warning must carry the counts, got %+v", got)
	}
}

func TestDecideAvailability_Ok(t *testing.T) {
	got := decideAvailability(&models.NcfRange{AvailableNumbers: 100}, 5, models.NcfTypeConsumer)
	if !got.Ok || got.Warning {
		t.Fatalf("plenty left must be a plain ok, got %+v", got)
	}
}

func TestValidateOrderForInvoice(t *testing.T) {
	paid := &models.PosOrder{
		OrderNumber: "POS-001",
		State:       models.PosOrderStatePaid,
		AmountTotal: decimal.RequireFromString("120.00"),
	}
	if err := validateOrderForInvoice(paid); err != nil {
		t.Errorf("paid positive order must pass: %v", err)
	}

	draft := &models.PosOrder{
		OrderNumber: "POS-002",
		State:       models.PosOrderStateDraft,
		AmountTotal: decimal.RequireFromString("120.00"),
	}
	if err := validateOrderForInvoice(draft); err == nil {
		t.Error("draft order must be rejected")
	}

	zero := &models.PosOrder{
		OrderNumber: "POS-003",
		State:       models.PosOrderStatePaid,
		AmountTotal: decimal.Zero,
	}
	if err := validateOrderForInvoice(zero); err == nil {
		t.Error("zero-total order must be rejected")
	}

	refundLike := &models.PosOrder{
		OrderNumber: "POS-004",
		State:       models.PosOrderStatePaid,
		AmountTotal: decimal.RequireFromString("-10.00"),
	}
	if err := validateOrderForInvoice(refundLike); err == nil {
		t.Error("negative-total order must be rejected")
	}
}

func TestCanReconcileSession_RefusesOpenSession(t *testing.T) {
	open := &models.PosSession{State: models.PosSessionStateOpen, MoveId: 7}
	if canReconcileSession(open) {
		t.Error("open session must never reconcile, even with an entry present")
	}

	closedNoEntry := &models.PosSession{State: models.PosSessionStateClosed, MoveId: 0}
	if canReconcileSession(closedNoEntry) {
		t.Error("closed session without a consolidated entry cannot reconcile")
	}

	closed := &models.PosSession{State: models.PosSessionStateClosed, MoveId: 7}
	if !canReconcileSession(closed) {
		t.Error("closed session with an entry must reconcile")
	}
}

func TestBuildSessionEntryLines_OneReceivablePerOrder(t *testing.T) {
	session := &models.PosSession{
		ID:        1,
		CompanyId: 1,
		Name:      "POS/SESSION/001",
		Orders: []models.PosOrder{
			{OrderNumber: "POS-100", State: models.PosOrderStatePaid, AmountTotal: decimal.RequireFromString("120.00")},
			{OrderNumber: "POS-101", State: models.PosOrderStatePaid, AmountTotal: decimal.RequireFromString("80.00")},
			{OrderNumber: "POS-102", State: models.PosOrderStateDraft, AmountTotal: decimal.RequireFromString("55.00")},
		},
	}
	lines, total := buildSessionEntryLines(session)

	var receivables []models.AccountMoveLine
	for _, l := range lines {
		if l.AccountType == models.AccountTypeReceivable {
			receivables = append(receivables, l)
		}
	}
	if len(receivables) != 2 {
		t.Fatalf("want one receivable line per paid order, got %d", len(receivables))
	}
	if receivables[0].Name != "POS-100" || !receivables[0].Credit.Equal(decimal.RequireFromString("120.00")) {
		t.Errorf("first receivable line must carry its order's number and total, got %s %s", receivables[0].Name, receivables[0].Credit)
	}
	if receivables[1].Name != "POS-101" || !receivables[1].Credit.Equal(decimal.RequireFromString("80.00")) {
		t.Errorf("second receivable line must carry its order's number and total, got %s %s", receivables[1].Name, receivables[1].Credit)
	}
	if !total.Equal(decimal.RequireFromString("200.00")) {
		t.Errorf("session total must exclude unpaid orders, got %s", total)
	}

	cash := lines[len(lines)-1]
	if cash.AccountType != models.AccountTypeCash || !cash.Debit.Equal(total) {
		t.Errorf("cash line must debit the session total, got %+v", cash)
	}
}

func TestMatchSessionLines_PairsOnlyTheInvoicesOwnLine(t *testing.T) {
	f := false
	sessionLines := []models.AccountMoveLine{
		{ID: 1, Name: "POS-100", AccountType: models.AccountTypeReceivable, Credit: decimal.RequireFromString("120.00"), Reconciled: &f},
		{ID: 2, Name: "POS-101", AccountType: models.AccountTypeReceivable, Credit: decimal.RequireFromString("80.00"), Reconciled: &f},
	}

	got := matchSessionLines(sessionLines, "POS-101")
	if len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("invoice for POS-101 must pair only its own line, got %+v", got)
	}

	// after the first invoice clears its line, the second invoice's line is
	// still there to be matched
	remaining := matchSessionLines(sessionLines[1:], "POS-101")
	if len(remaining) != 1 || remaining[0].ID != 2 {
		t.Fatalf("clearing one order's line must not consume the others, got %+v", remaining)
	}

	if got := matchSessionLines(sessionLines, "POS-999"); len(got) != 0 {
		t.Fatalf("unknown order number must match nothing, got %+v", got)
	}
}

func TestInvoiceDateFor_CompanyTimezone(t *testing.T) {
	company := &models.Company{Timezone: "America/Santo_Domingo"}
	// 01:30 UTC is still the previous calendar day in Santo Domingo (UTC-4)
	now := time.Date(2026, time.March, 5, 1, 30, 0, 0, time.UTC)

	got := invoiceDateFor(company, now)
	if got.Year() != 2026 || got.Month() != time.March || got.Day() != 4 {
		t.Errorf("invoice date must be today in the company's zone, got %v", got)
	}
	if got.Hour() != 0 || got.Minute() != 0 {
		t.Errorf("invoice date must be a calendar date, got %v", got)
	}

	bad := &models.Company{Timezone: "Not/AZone"}
	if got := invoiceDateFor(bad, now); !got.Equal(now) {
		t.Errorf("unknown zone must fall back to the raw time, got %v", got)
	}
}

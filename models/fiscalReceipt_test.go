package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestCalculateChange(t *testing.T) {
	cases := []struct {
		paid  string
		total string
		want  string
	}{
		{"150.00", "120.00", "30"},
		{"100.00", "120.00", "0"}, // never negative
		{"120.00", "120.00", "0"},
		{"0", "0", "0"},
	}
	for _, c := range cases {
		paid := decimal.RequireFromString(c.paid)
		total := decimal.RequireFromString(c.total)
		got := CalculateChange(paid, total)
		if !got.Equal(decimal.RequireFromString(c.want)) {
			t.Errorf("CalculateChange(%s, %s) = %s, want %s", c.paid, c.total, got, c.want)
		}
	}
}

func TestWithinTolerance(t *testing.T) {
	a := decimal.RequireFromString("100.00")
	if !WithinTolerance(a, decimal.RequireFromString("100.01")) {
		t.Error("difference of exactly 0.01 must be within tolerance")
	}
	if WithinTolerance(a, decimal.RequireFromString("100.02")) {
		t.Error("difference of 0.02 must not be within tolerance")
	}
	if !WithinTolerance(a, decimal.RequireFromString("99.99")) {
		t.Error("tolerance must be symmetric")
	}
}

func TestFormatNcf(t *testing.T) {
	if got := FormatNcf(NcfTypeConsumer, 123); got != "B0200000123" {
		t.Errorf("FormatNcf(02, 123) = %q", got)
	}
	if got := FormatNcf(NcfTypeFiscalCredit, 99999999); got != "B0199999999" {
		t.Errorf("FormatNcf(01, 99999999) = %q", got)
	}
}

func TestNcfTypeForCustomer(t *testing.T) {
	if got := NcfTypeForCustomer(nil); got != NcfTypeConsumer {
		t.Errorf("nil customer should be consumer type, got %s", got)
	}
	if got := NcfTypeForCustomer(&Customer{Vat: ""}); got != NcfTypeConsumer {
		t.Errorf("customer without tax id should be consumer type, got %s", got)
	}
	if got := NcfTypeForCustomer(&Customer{Vat: "131246789"}); got != NcfTypeFiscalCredit {
		t.Errorf("customer with tax id should be fiscal-credit type, got %s", got)
	}
}

func TestNcfRangeReserveBounds(t *testing.T) {
	r := NcfRange{NextNumber: 100, EndNumber: 100, AvailableNumbers: 1}
	if r.AvailableNumbers <= 0 || r.NextNumber > r.EndNumber {
		t.Fatal("range with one number left must still be usable")
	}
	r = NcfRange{NextNumber: 101, EndNumber: 100, AvailableNumbers: 0}
	if !(r.AvailableNumbers <= 0 || r.NextNumber > r.EndNumber) {
		t.Fatal("exhausted range must not be usable")
	}
}

func TestIsPendingPrint(t *testing.T) {
	pending := &AccountMove{
		State:              MoveStatePosted,
		FiscalPendingPrint: boolPtr(true),
		FiscalPrinted:      boolPtr(false),
	}
	if !pending.IsPendingPrint() {
		t.Error("posted pending unprinted invoice must be pending")
	}

	// mark_fiscal_printed flips both flags; the next poll must say not ready
	printed := &AccountMove{
		State:              MoveStatePosted,
		FiscalPendingPrint: boolPtr(false),
		FiscalPrinted:      boolPtr(true),
	}
	if printed.IsPendingPrint() {
		t.Error("printed invoice must not be pending")
	}

	draft := &AccountMove{
		State:              MoveStateDraft,
		FiscalPendingPrint: boolPtr(true),
		FiscalPrinted:      boolPtr(false),
	}
	if draft.IsPendingPrint() {
		t.Error("draft invoice must not be pending")
	}
}

func boolPtr(b bool) *bool {
	return &b
}

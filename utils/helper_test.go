package utils

import (
	"errors"
	"testing"
	"time"
)

func TestFormatReceiptDate(t *testing.T) {
	d := time.Date(2026, time.March, 5, 14, 30, 0, 0, time.UTC)
	if got := FormatReceiptDate(d); got != "05/03/2026" {
		t.Errorf("FormatReceiptDate = %q, want 05/03/2026", got)
	}
	if got := FormatReceiptDate(time.Time{}); got != "" {
		t.Errorf("zero time must render empty, got %q", got)
	}
}

func TestConvertToDate(t *testing.T) {
	// 01:30 UTC is still the previous calendar day in Santo Domingo (UTC-4)
	d := time.Date(2026, time.March, 5, 1, 30, 0, 0, time.UTC)
	got, err := ConvertToDate(d, "America/Santo_Domingo")
	if err != nil {
		t.Fatal(err)
	}
	if got.Year() != 2026 || got.Month() != time.March || got.Day() != 4 {
		t.Errorf("ConvertToDate = %v, want local 2026-03-04", got)
	}
	if got.Hour() != 0 || got.Minute() != 0 {
		t.Errorf("result must be midnight, got %v", got)
	}
}

func TestIsValidEmail(t *testing.T) {
	if !IsValidEmail("cajero@example.com.do") {
		t.Error("valid address rejected")
	}
	if IsValidEmail("no-at-sign") {
		t.Error("invalid address accepted")
	}
}

func TestProcessValidationErrors_NonValidatorError(t *testing.T) {
	// malformed JSON bodies produce plain errors, not validator errors
	got := ProcessValidationErrors(errors.New("unexpected end of JSON input"))
	if got["error"] != "unexpected end of JSON input" {
		t.Errorf("plain errors must map to a message, got %v", got)
	}
}

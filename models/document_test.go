package models

import (
	"context"
	"testing"

	"bitbucket.org/lmsoluciones/fiscalpos_backend/utils"
)

// Gate decisions that don't need the order lookup are testable without a DB.
func TestShouldSkipPdfRender(t *testing.T) {
	ctx := context.Background()

	entry := &AccountMove{MoveType: MoveTypeEntry}
	if ShouldSkipPdfRender(ctx, nil, entry) {
		t.Error("only customer invoices are gated")
	}

	invoice := &AccountMove{MoveType: MoveTypeOutInvoice}
	if ShouldSkipPdfRender(ctx, nil, invoice) {
		t.Error("invoice without POS origin or skip flag must render normally")
	}

	skipCtx := utils.SetSkipPdfRenderInContext(ctx, true)
	if !ShouldSkipPdfRender(skipCtx, nil, invoice) {
		t.Error("explicit skip flag must gate the render")
	}

	t.Setenv("FISCAL_PRINT_ENABLED", "false")
	if ShouldSkipPdfRender(skipCtx, nil, invoice) {
		t.Error("disabled fiscal print must let everything render")
	}
}

package models

import (
	"bytes"
	"context"
	"text/template"
	"time"

	"bitbucket.org/lmsoluciones/fiscalpos_backend/config"
	"bitbucket.org/lmsoluciones/fiscalpos_backend/utils"
	"gorm.io/gorm"
)

// Document is a rendered artifact attached to a move (the HTML the host
// pipeline produces for non-POS invoices).
type Document struct {
	ID          int       `gorm:"primary_key" json:"id"`
	CompanyId   int       `gorm:"index;not null" json:"company_id"`
	MoveId      int       `gorm:"index;not null" json:"move_id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	ContentType string    `gorm:"size:64;default:'text/html'" json:"content_type"`
	Body        string    `gorm:"type:longtext" json:"body"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

var invoiceDocumentTemplate = template.Must(template.New("invoice").Parse(`<html>
<body>
<h2>{{.CompanyName}}</h2>
<p>{{.Name}} — {{.Date}}</p>
{{if .Ncf}}<p>NCF: {{.Ncf}}</p>{{end}}
<table>
{{range .Lines}}<tr><td>{{.Name}}</td><td>{{.Qty}}</td><td>{{.PriceUnit}}</td></tr>
{{end}}</table>
<p>Subtotal: {{.AmountUntaxed}} | ITBIS: {{.AmountTax}} | Total: {{.AmountTotal}}</p>
</body>
</html>
`))

type invoiceDocumentData struct {
	CompanyName   string
	Name          string
	Date          string
	Ncf           string
	Lines         []AccountMoveLine
	AmountUntaxed string
	AmountTax     string
	AmountTotal   string
}

// ShouldSkipPdfRender is the fiscal print gate: customer invoices that
// originate from the till (or whose caller set the skip flag) never go through
// the host document pipeline, they print on the fiscal bridge instead.
func ShouldSkipPdfRender(ctx context.Context, tx *gorm.DB, move *AccountMove) bool {
	if !config.FiscalPrintEnabled() {
		return false
	}
	if move.MoveType != MoveTypeOutInvoice {
		return false
	}
	if utils.GetSkipPdfRenderFromContext(ctx) {
		return true
	}
	if move.InvoiceOrigin == "" {
		return false
	}
	// the linked order is authoritative, the origin string is only a hint
	var count int64
	if err := tx.Model(&PosOrder{}).Where("account_move_id = ?", move.ID).Count(&count).Error; err != nil {
		return false
	}
	return count > 0
}

// RenderAndAttachDocument runs the host render pipeline for a move and stores
// the result as a Document row. For moves the fiscal gate covers, it succeeds
// without producing anything; returns whether a document was produced.
func RenderAndAttachDocument(ctx context.Context, tx *gorm.DB, move *AccountMove) (bool, error) {
	if ShouldSkipPdfRender(ctx, tx, move) {
		return false, nil
	}

	company, err := GetCompany(tx, move.CompanyId)
	if err != nil {
		return false, err
	}
	data := invoiceDocumentData{
		CompanyName:   company.Name,
		Name:          move.Name,
		Date:          utils.FormatReceiptDate(move.InvoiceDate),
		Ncf:           move.NcfNumber,
		Lines:         move.ProductLines(),
		AmountUntaxed: move.AmountUntaxed.StringFixed(2),
		AmountTax:     move.AmountTax.StringFixed(2),
		AmountTotal:   move.AmountTotal.StringFixed(2),
	}
	var buf bytes.Buffer
	if err := invoiceDocumentTemplate.Execute(&buf, data); err != nil {
		return false, err
	}

	document := Document{
		CompanyId:   move.CompanyId,
		MoveId:      move.ID,
		Name:        move.Name,
		ContentType: "text/html",
		Body:        buf.String(),
	}
	if err := tx.Create(&document).Error; err != nil {
		return false, err
	}
	return true, nil
}

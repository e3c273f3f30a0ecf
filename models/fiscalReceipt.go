package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bitbucket.org/lmsoluciones/fiscalpos_backend/utils"
)

// WalkInCustomerLabel is what the receipt prints when the invoice has no
// identifiable customer.
const WalkInCustomerLabel = "CONSUMIDOR FINAL"

// FiscalReceipt is the snapshot the print bridge consumes. Field names and
// formats are a stable contract with the bridge; do not rename.
type FiscalReceipt struct {
	Ready         bool                 `json:"ready"`
	Company       ReceiptCompany       `json:"company"`
	InvoiceId     int                  `json:"invoice_id"`
	InvoiceNumber string               `json:"invoice_number"`
	FiscalNumber  string               `json:"fiscal_number"`
	Date          string               `json:"date"`
	ValidUntil    string               `json:"valid_until"`
	Currency      ReceiptCurrency      `json:"currency"`
	Cashier       string               `json:"cashier"`
	Customer      ReceiptCustomer      `json:"customer"`
	Subtotal      decimal.Decimal      `json:"subtotal"`
	Tax           decimal.Decimal      `json:"tax"`
	Total         decimal.Decimal      `json:"total"`
	Payments      []ReceiptPaymentLine `json:"payments"`
	AmountPaid    decimal.Decimal      `json:"amount_paid"`
	Change        decimal.Decimal      `json:"change"`
	Lines         []ReceiptLine        `json:"lines"`
}

type ReceiptCompany struct {
	Name    string `json:"name"`
	TaxId   string `json:"tax_id"`
	Phone   string `json:"phone"`
	City    string `json:"city"`
	Address string `json:"address"`
}

type ReceiptCurrency struct {
	Symbol   string `json:"symbol"`
	Position string `json:"position"`
}

type ReceiptCustomer struct {
	Name  string `json:"name"`
	TaxId string `json:"tax_id"`
}

type ReceiptPaymentLine struct {
	Method string          `json:"method"`
	Amount decimal.Decimal `json:"amount"`
}

type ReceiptLine struct {
	Name  string          `json:"name"`
	Qty   decimal.Decimal `json:"qty"`
	Price decimal.Decimal `json:"price"`
}

// CalculateChange is the change due back to the customer, never negative.
func CalculateChange(amountPaid, total decimal.Decimal) decimal.Decimal {
	change := amountPaid.Sub(total)
	if change.IsNegative() {
		return decimal.Zero
	}
	return change
}

// BuildFiscalReceipt assembles the print snapshot for an invoiced order. The
// invoice is expected preloaded with its lines.
func BuildFiscalReceipt(tx *gorm.DB, order *PosOrder, move *AccountMove) (*FiscalReceipt, error) {
	company, err := GetCompany(tx, move.CompanyId)
	if err != nil {
		return nil, err
	}

	receipt := FiscalReceipt{
		Ready: true,
		Company: ReceiptCompany{
			Name:    company.Name,
			TaxId:   company.Vat,
			Phone:   company.Phone,
			City:    company.City,
			Address: company.Street,
		},
		InvoiceId:     move.ID,
		InvoiceNumber: move.Name,
		FiscalNumber:  move.NcfNumber,
		Date:          utils.FormatReceiptDate(move.InvoiceDate),
		Currency: ReceiptCurrency{
			Symbol:   company.CurrencySymbol,
			Position: company.CurrencyPosition,
		},
		Subtotal: move.AmountUntaxed,
		Tax:      move.AmountTax,
		Total:    move.AmountTotal,
	}

	if move.NcfRangeId > 0 {
		var ncfRange NcfRange
		if err := tx.First(&ncfRange, move.NcfRangeId).Error; err == nil && ncfRange.DateEnd != nil {
			receipt.ValidUntil = utils.FormatReceiptDate(*ncfRange.DateEnd)
		}
	}

	if cashier, err := GetUser(tx, move.UserId); err == nil {
		receipt.Cashier = cashier.Name
	}

	receipt.Customer = ReceiptCustomer{Name: WalkInCustomerLabel}
	if move.CustomerId > 0 {
		if customer, err := GetCustomer(tx, move.CustomerId); err == nil {
			if customer.Name != "" && customer.Name != WalkInCustomerName {
				receipt.Customer.Name = customer.Name
			}
			receipt.Customer.TaxId = customer.Vat
		}
	}

	for _, l := range move.ProductLines() {
		receipt.Lines = append(receipt.Lines, ReceiptLine{
			Name:  l.Name,
			Qty:   l.Qty,
			Price: l.PriceUnit,
		})
	}

	paid := decimal.Zero
	for _, p := range order.Payments {
		receipt.Payments = append(receipt.Payments, ReceiptPaymentLine{
			Method: p.MethodName,
			Amount: p.Amount,
		})
		paid = paid.Add(p.Amount)
	}
	receipt.AmountPaid = paid
	receipt.Change = CalculateChange(paid, move.AmountTotal)

	return &receipt, nil
}

package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/lmsoluciones/fiscalpos_backend/config"
	"bitbucket.org/lmsoluciones/fiscalpos_backend/models"
	"bitbucket.org/lmsoluciones/fiscalpos_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ProcessFiscalInvoiceSweep invoices the oldest paid, still-uninvoiced orders
// of the company, up to the batch limit. Each order runs in its own
// transaction; an order that fails is logged and left for the next sweep, it
// never takes the batch down with it.
func ProcessFiscalInvoiceSweep(db *gorm.DB, logger *logrus.Logger, companyId int) (int, error) {
	orders, err := models.GetUninvoicedPaidOrders(db, companyId, config.FiscalInvoiceBatchLimit)
	if err != nil {
		config.LogError(logger, "FiscalInvoiceWorkflow.go", "ProcessFiscalInvoiceSweep", "GetUninvoicedPaidOrders", companyId, err)
		return 0, err
	}

	invoiced := 0
	for _, order := range orders {
		err := db.Transaction(func(tx *gorm.DB) error {
			_, err := CreateFiscalInvoiceFromOrder(tx, logger, DefaultNumberAssigner, order)
			return err
		})
		if err != nil {
			config.LogError(logger, "FiscalInvoiceWorkflow.go", "ProcessFiscalInvoiceSweep", "CreateFiscalInvoiceFromOrder",
				map[string]interface{}{"order_id": order.ID, "order_number": order.OrderNumber}, err)
			continue
		}
		invoiced++
	}
	return invoiced, nil
}

// TriggerFiscalInvoice invoices one paid order by its till reference,
// bypassing the sweep for low-latency printing. Unlike the sweep, errors
// propagate to the caller.
func TriggerFiscalInvoice(db *gorm.DB, logger *logrus.Logger, companyId int, orderNumber string) (*models.AccountMove, error) {
	orders, err := models.GetOrdersByNumber(db, companyId, orderNumber)
	if err != nil {
		return nil, err
	}
	var target *models.PosOrder
	for _, o := range orders {
		if o.AccountMoveId == 0 {
			target = o
			break
		}
	}
	if target == nil {
		return nil, nil
	}
	full, err := models.GetPosOrder(db, target.ID, true)
	if err != nil {
		return nil, err
	}

	var move *models.AccountMove
	err = db.Transaction(func(tx *gorm.DB) error {
		move, err = CreateFiscalInvoiceFromOrder(tx, logger, DefaultNumberAssigner, full)
		return err
	})
	if err != nil {
		config.LogError(logger, "FiscalInvoiceWorkflow.go", "TriggerFiscalInvoice", "CreateFiscalInvoiceFromOrder",
			map[string]interface{}{"order_number": orderNumber}, err)
		return nil, err
	}
	return move, nil
}

// invoiceDateFor is the issue date: today as a calendar date in the company's
// timezone, so a backlog order swept after midnight is not dated in the past.
func invoiceDateFor(company *models.Company, now time.Time) time.Time {
	d, err := utils.ConvertToDate(now, company.Timezone)
	if err != nil {
		return now
	}
	return d
}

// validateOrderForInvoice gates materialization: only paid (or done) orders
// with a positive total produce an invoice.
func validateOrderForInvoice(order *models.PosOrder) error {
	if order.State != models.PosOrderStatePaid && order.State != models.PosOrderStateDone {
		return fmt.Errorf("order %s is not paid", order.OrderNumber)
	}
	if !order.AmountTotal.IsPositive() {
		return fmt.Errorf("order %s has no positive amount", order.OrderNumber)
	}
	return nil
}

// CreateFiscalInvoiceFromOrder materializes one paid order into a posted
// customer invoice with a fiscal number. Idempotent: an order that already
// carries an invoice is returned as-is. Runs inside the caller's transaction.
func CreateFiscalInvoiceFromOrder(tx *gorm.DB, logger *logrus.Logger, assigner NumberAssigner, order *models.PosOrder) (*models.AccountMove, error) {
	if order.AccountMoveId > 0 {
		return models.GetAccountMove(tx, order.AccountMoveId, true)
	}
	if err := validateOrderForInvoice(order); err != nil {
		return nil, err
	}

	company, err := models.GetCompany(tx, order.CompanyId)
	if err != nil {
		return nil, err
	}

	var customer *models.Customer
	if order.CustomerId > 0 {
		customer, err = models.GetCustomer(tx, order.CustomerId)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if customer == nil {
		customer, err = models.ResolveWalkInCustomer(tx, order.CompanyId)
		if err != nil {
			return nil, err
		}
	}

	availability, err := CheckNcfAvailable(tx, company, customer)
	if err != nil {
		return nil, err
	}
	ncfType := availability.NcfType
	if !availability.Ok {
		return nil, fmt.Errorf("%w: %s", ErrNcfExhausted, availability.Message)
	}

	move := models.AccountMove{
		CompanyId:          order.CompanyId,
		CustomerId:         customer.ID,
		UserId:             order.UserId,
		MoveType:           models.MoveTypeOutInvoice,
		State:              models.MoveStateDraft,
		PaymentState:       models.PaymentStateNotPaid,
		InvoiceOrigin:      order.OrderNumber,
		InvoiceDate:        invoiceDateFor(company, time.Now()),
		FiscalPendingPrint: utils.NewTrue(),
		FiscalPrinted:      utils.NewFalse(),
	}

	subtotal := decimal.Zero
	tax := decimal.Zero
	for _, l := range order.Lines {
		move.Lines = append(move.Lines, models.AccountMoveLine{
			CompanyId:   order.CompanyId,
			CustomerId:  customer.ID,
			AccountType: models.AccountTypeIncome,
			Name:        l.ProductName,
			Qty:         l.Qty,
			PriceUnit:   l.PriceUnit,
			Credit:      l.Subtotal(),
		})
		subtotal = subtotal.Add(l.Subtotal())
		tax = tax.Add(l.TaxAmount)
	}
	if tax.IsPositive() {
		move.Lines = append(move.Lines, models.AccountMoveLine{
			CompanyId:   order.CompanyId,
			CustomerId:  customer.ID,
			AccountType: models.AccountTypeTax,
			Name:        "ITBIS",
			Credit:      tax,
		})
	}
	total := subtotal.Add(tax)
	move.Lines = append(move.Lines, models.AccountMoveLine{
		CompanyId:   order.CompanyId,
		CustomerId:  customer.ID,
		AccountType: models.AccountTypeReceivable,
		Name:        order.OrderNumber,
		Debit:       total,
		Reconciled:  utils.NewFalse(),
	})
	move.AmountUntaxed = subtotal
	move.AmountTax = tax
	move.AmountTotal = total
	move.AmountResidual = total

	if err := assigner.AssignNcf(tx, &move, ncfType); err != nil {
		return nil, err
	}

	if err := tx.Create(&move).Error; err != nil {
		return nil, err
	}
	move.Name = fmt.Sprintf("POS/%s/%06d", order.DateOrder.Format("2006"), move.ID)
	if err := tx.Model(&models.AccountMove{}).Where("id = ?", move.ID).
		Updates(map[string]interface{}{
			"name":         move.Name,
			"state":        models.MoveStatePosted,
			"ncf_number":   move.NcfNumber,
			"ncf_range_id": move.NcfRangeId,
		}).Error; err != nil {
		return nil, err
	}
	move.State = models.MoveStatePosted

	if err := models.LinkInvoice(tx, order, move.ID); err != nil {
		return nil, err
	}

	// the gate skips POS-origin invoices, non-POS paths still render
	if _, err := models.RenderAndAttachDocument(context.Background(), tx, &move); err != nil {
		config.LogError(logger, "FiscalInvoiceWorkflow.go", "CreateFiscalInvoiceFromOrder", "RenderAndAttachDocument", move.ID, err)
	}

	return &move, nil
}

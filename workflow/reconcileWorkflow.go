package workflow

import (
	"regexp"

	"bitbucket.org/lmsoluciones/fiscalpos_backend/config"
	"bitbucket.org/lmsoluciones/fiscalpos_backend/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ncfPattern matches a fiscal number embedded in free text: series letter B,
// two type digits, at least eight sequence digits.
var ncfPattern = regexp.MustCompile(`(B\d{2}\d{8,})`)

// ExtractNcf pulls the first fiscal number out of free text, "" when none.
func ExtractNcf(text string) string {
	return ncfPattern.FindString(text)
}

// ProcessReconcileSweep walks the company's open fiscal invoices (oldest
// first, bounded) and tries the session matcher, then the manual-reference
// matcher. Ambiguity and amount mismatches are skips, not failures; a skipped
// invoice simply shows up again next sweep. Per-invoice errors are logged and
// isolated.
func ProcessReconcileSweep(db *gorm.DB, logger *logrus.Logger, companyId int) (int, error) {
	invoices, err := models.GetReconcilableNcfInvoices(db, companyId, config.ReconcileBatchLimit)
	if err != nil {
		config.LogError(logger, "ReconcileWorkflow.go", "ProcessReconcileSweep", "GetReconcilableNcfInvoices", companyId, err)
		return 0, err
	}

	reconciled := 0
	for _, invoice := range invoices {
		done, err := reconcileInvoice(db, logger, invoice)
		if err != nil {
			config.LogError(logger, "ReconcileWorkflow.go", "ProcessReconcileSweep", "reconcileInvoice",
				map[string]interface{}{"invoice_id": invoice.ID, "ncf": invoice.NcfNumber}, err)
			continue
		}
		if done {
			reconciled++
		}
	}
	return reconciled, nil
}

func reconcileInvoice(db *gorm.DB, logger *logrus.Logger, invoice *models.AccountMove) (bool, error) {
	done, err := reconcileBySession(db, logger, invoice)
	if err != nil || done {
		return done, err
	}
	if config.ManualNcfMatcherDisabled() {
		return false, nil
	}
	return reconcileByManualNcf(db, logger, invoice)
}

// reconcileBySession pairs the invoice's receivable lines with the
// consolidated entry of the (closed) session its order belongs to.
func reconcileBySession(db *gorm.DB, logger *logrus.Logger, invoice *models.AccountMove) (bool, error) {
	orders, err := models.GetOrdersByNumber(db, invoice.CompanyId, invoice.InvoiceOrigin)
	if err != nil {
		return false, err
	}
	if len(orders) != 1 {
		if len(orders) > 1 {
			config.LogWarn(logger, "ReconcileWorkflow.go", "reconcileBySession", "order lookup",
				map[string]interface{}{"invoice_id": invoice.ID, "origin": invoice.InvoiceOrigin, "matches": len(orders)},
				"more than one order matches the invoice origin, skipping")
		}
		return false, nil
	}
	order := orders[0]

	session, err := models.GetPosSession(db, order.SessionId, false)
	if err != nil {
		return false, err
	}
	if !canReconcileSession(session) {
		return false, nil
	}

	if !models.WithinTolerance(order.AmountTotal, invoice.AmountTotal) {
		config.LogWarn(logger, "ReconcileWorkflow.go", "reconcileBySession", "amount check",
			map[string]interface{}{
				"invoice_id":    invoice.ID,
				"order_id":      order.ID,
				"order_total":   order.AmountTotal,
				"invoice_total": invoice.AmountTotal,
			}, "order and invoice totals differ beyond tolerance, skipping")
		return false, nil
	}

	reconciled := false
	err = db.Transaction(func(tx *gorm.DB) error {
		invoiceLines, err := models.GetUnreconciledReceivableLines(tx, invoice.ID, true)
		if err != nil {
			return err
		}
		sessionLines, err := models.GetUnreconciledReceivableLines(tx, session.MoveId, true)
		if err != nil {
			return err
		}
		// the entry carries one receivable line per order; pair only the
		// invoice's own line, the rest belong to the session's other invoices
		orderLines := matchSessionLines(sessionLines, order.OrderNumber)
		if len(invoiceLines) == 0 || len(orderLines) == 0 {
			return nil
		}
		if err := reconcileLines(tx, append(invoiceLines, orderLines...)); err != nil {
			return err
		}
		if err := models.RefreshPaymentState(tx, invoice.ID); err != nil {
			return err
		}
		reconciled = true
		return nil
	})
	return reconciled, err
}

// matchSessionLines picks the session-entry receivable lines that offset one
// order, by the order number stamped on them at close time.
func matchSessionLines(lines []models.AccountMoveLine, orderNumber string) []models.AccountMoveLine {
	var matched []models.AccountMoveLine
	for _, l := range lines {
		if l.Name == orderNumber {
			matched = append(matched, l)
		}
	}
	return matched
}

// canReconcileSession: an open session's entry does not exist yet, and even a
// matching amount must wait until the till is closed.
func canReconcileSession(session *models.PosSession) bool {
	return session.IsClosed() && session.MoveId != 0
}

// reconcileByManualNcf scans recent posted customer payments for the
// invoice's fiscal number in their reference or note text. A fallback for
// payments booked by hand against a printed receipt.
func reconcileByManualNcf(db *gorm.DB, logger *logrus.Logger, invoice *models.AccountMove) (bool, error) {
	if invoice.NcfNumber == "" {
		return false, nil
	}
	payments, err := models.GetCandidatePayments(db, invoice.CompanyId, config.ReconcileBatchLimit)
	if err != nil {
		return false, err
	}

	for _, payment := range payments {
		ncf := ExtractNcf(payment.Ref + " " + payment.Narration)
		if ncf == "" || ncf != invoice.NcfNumber {
			continue
		}
		if !models.WithinTolerance(payment.AmountTotal, invoice.AmountResidual) {
			config.LogWarn(logger, "ReconcileWorkflow.go", "reconcileByManualNcf", "amount check",
				map[string]interface{}{
					"invoice_id":       invoice.ID,
					"payment_id":       payment.ID,
					"payment_total":    payment.AmountTotal,
					"invoice_residual": invoice.AmountResidual,
				}, "payment total and invoice residual differ beyond tolerance, skipping")
			continue
		}

		reconciled := false
		err := db.Transaction(func(tx *gorm.DB) error {
			invoiceLines, err := models.GetUnreconciledReceivableLines(tx, invoice.ID, true)
			if err != nil {
				return err
			}
			paymentLines, err := models.GetUnreconciledReceivableLines(tx, payment.ID, true)
			if err != nil {
				return err
			}
			if len(invoiceLines) == 0 || len(paymentLines) == 0 {
				return nil
			}
			if err := reconcileLines(tx, append(invoiceLines, paymentLines...)); err != nil {
				return err
			}
			if err := models.RefreshPaymentState(tx, invoice.ID); err != nil {
				return err
			}
			reconciled = true
			return nil
		})
		if err != nil {
			return false, err
		}
		if reconciled {
			return true, nil
		}
	}
	return false, nil
}

// reconcileLines flips the whole group atomically under one match number. The
// rows were read FOR UPDATE; the WHERE re-checks reconciled = false so a line
// another worker grabbed between read and write fails the count and rolls the
// group back instead of half-reconciling it.
func reconcileLines(tx *gorm.DB, lines []models.AccountMoveLine) error {
	ids := make([]int, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ID)
	}
	matchNumber := uuid.NewString()
	result := tx.Model(&models.AccountMoveLine{}).
		Where("id IN ? AND reconciled = false", ids).
		Updates(map[string]interface{}{
			"reconciled":   true,
			"match_number": matchNumber,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected != int64(len(ids)) {
		return errLineAlreadyReconciled
	}
	return nil
}

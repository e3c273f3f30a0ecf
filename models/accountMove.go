package models

import (
	"context"
	"time"

	"bitbucket.org/lmsoluciones/fiscalpos_backend/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AmountTolerance is the maximum absolute difference two amounts may have and
// still be considered equal by the reconciler.
var AmountTolerance = decimal.NewFromFloat(0.01)

type AccountMove struct {
	ID                 int               `gorm:"primary_key" json:"id"`
	CompanyId          int               `gorm:"index;not null" json:"company_id"`
	CustomerId         int               `gorm:"index;default:0" json:"customer_id"`
	UserId             int               `gorm:"index;default:0" json:"user_id"` // cashier that originated the move
	MoveType           MoveType          `gorm:"type:enum('out_invoice','out_payment','entry');index;not null" json:"move_type"`
	Name               string            `gorm:"size:255" json:"name"`
	State              MoveState         `gorm:"type:enum('draft','posted');index;default:'draft'" json:"state"`
	PaymentState       PaymentState      `gorm:"type:enum('not_paid','partial','paid');index;default:'not_paid'" json:"payment_state"`
	InvoiceOrigin      string            `gorm:"size:255;index" json:"invoice_origin"` // till order number for POS invoices
	InvoiceDate        time.Time         `json:"invoice_date"`
	Ref                string            `gorm:"size:255" json:"ref"`
	Narration          string            `gorm:"type:text" json:"narration"`
	NcfNumber          string            `gorm:"size:19;index" json:"ncf_number"`
	NcfRangeId         int               `gorm:"index;default:0" json:"ncf_range_id"`
	FiscalPendingPrint *bool             `gorm:"not null;default:false" json:"fiscal_pending_print"`
	FiscalPrinted      *bool             `gorm:"not null;default:false" json:"fiscal_printed"`
	AmountUntaxed      decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"amount_untaxed"`
	AmountTax          decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"amount_tax"`
	AmountTotal        decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"amount_total"`
	AmountResidual     decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"amount_residual"`
	Lines              []AccountMoveLine `gorm:"foreignKey:MoveId" json:"lines"`
	CreatedAt          time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

type AccountMoveLine struct {
	ID          int             `gorm:"primary_key" json:"id"`
	MoveId      int             `gorm:"index;not null" json:"move_id"`
	CompanyId   int             `gorm:"index;not null" json:"company_id"`
	CustomerId  int             `gorm:"index;default:0" json:"customer_id"`
	AccountType AccountType     `gorm:"size:32;index;not null" json:"account_type"`
	Name        string          `gorm:"size:255" json:"name"`
	Qty         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"qty"`
	PriceUnit   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"price_unit"`
	Debit       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"debit"`
	Credit      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"credit"`
	Reconciled  *bool           `gorm:"not null;default:false" json:"reconciled"`
	MatchNumber string          `gorm:"size:36;index" json:"match_number"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// Balance is the signed ledger amount of the line (debit positive).
func (l *AccountMoveLine) Balance() decimal.Decimal {
	return l.Debit.Sub(l.Credit)
}

func GetAccountMove(tx *gorm.DB, id int, preload bool) (*AccountMove, error) {
	q := tx
	if preload {
		q = q.Preload("Lines")
	}
	var move AccountMove
	if err := q.First(&move, id).Error; err != nil {
		return nil, err
	}
	return &move, nil
}

// ProductLines returns the income lines, i.e. what the receipt prints.
func (m *AccountMove) ProductLines() []AccountMoveLine {
	var lines []AccountMoveLine
	for _, l := range m.Lines {
		if l.AccountType == AccountTypeIncome {
			lines = append(lines, l)
		}
	}
	return lines
}

// GetUnreconciledReceivableLines loads the move's open receivable lines. With
// lock set the rows are read FOR UPDATE so a concurrent reconciler blocks.
func GetUnreconciledReceivableLines(tx *gorm.DB, moveId int, lock bool) ([]AccountMoveLine, error) {
	q := tx.Where("move_id = ? AND account_type = ? AND reconciled = false", moveId, AccountTypeReceivable)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var lines []AccountMoveLine
	err := q.Order("id ASC").Find(&lines).Error
	return lines, err
}

// GetReconcilableNcfInvoices lists the reconciler's candidates: posted customer
// invoices that still owe money, came from the till and carry a fiscal number.
// Oldest invoice date first.
func GetReconcilableNcfInvoices(tx *gorm.DB, companyId int, limit int) ([]*AccountMove, error) {
	var moves []*AccountMove
	err := tx.Where(
		"company_id = ? AND move_type = ? AND state = ? AND payment_state IN ? AND invoice_origin <> '' AND ncf_number <> ''",
		companyId, MoveTypeOutInvoice, MoveStatePosted,
		[]PaymentState{PaymentStateNotPaid, PaymentStatePartial}).
		Order("invoice_date ASC, id ASC").
		Limit(limit).
		Find(&moves).Error
	return moves, err
}

// GetCandidatePayments lists recent posted customer payments that still have
// at least one open line and some free text to scan for a fiscal number.
func GetCandidatePayments(tx *gorm.DB, companyId int, limit int) ([]*AccountMove, error) {
	var moves []*AccountMove
	err := tx.Preload("Lines").
		Where("company_id = ? AND move_type = ? AND state = ? AND (ref <> '' OR narration <> '')",
			companyId, MoveTypeOutPayment, MoveStatePosted).
		Where("EXISTS (SELECT 1 FROM account_move_lines l WHERE l.move_id = account_moves.id AND l.reconciled = false)").
		Order("id DESC").
		Limit(limit).
		Find(&moves).Error
	return moves, err
}

// GetLastInvoiceForUser returns the most recent POS invoice the cashier
// produced, nil when there is none yet.
func GetLastInvoiceForUser(tx *gorm.DB, userId int) (*AccountMove, error) {
	var move AccountMove
	err := tx.Preload("Lines").
		Where("user_id = ? AND move_type = ? AND invoice_origin <> ''", userId, MoveTypeOutInvoice).
		Order("id DESC").
		First(&move).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &move, nil
}

// GetInvoiceByOrigin looks an invoice up by the till order number, regardless
// of which cashier produced it.
func GetInvoiceByOrigin(tx *gorm.DB, companyId int, origin string) (*AccountMove, error) {
	var move AccountMove
	err := tx.Preload("Lines").
		Where("company_id = ? AND move_type = ? AND invoice_origin = ?", companyId, MoveTypeOutInvoice, origin).
		Order("id DESC").
		First(&move).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &move, nil
}

// IsPendingPrint reports whether the bridge still has to print this invoice.
func (m *AccountMove) IsPendingPrint() bool {
	return m.State == MoveStatePosted &&
		m.FiscalPendingPrint != nil && *m.FiscalPendingPrint &&
		(m.FiscalPrinted == nil || !*m.FiscalPrinted)
}

// MarkFiscalPrinted flips the print flags. Unknown ids are a quiet no-op so
// the bridge can ack retries without erroring. Found-or-not is decided by
// existence: re-acking an already-printed invoice writes identical values and
// MySQL reports zero affected rows, which must still count as ok.
func MarkFiscalPrinted(ctx context.Context, moveId int) (bool, error) {
	db := config.GetDB()
	var count int64
	err := db.Model(&AccountMove{}).
		Where("id = ? AND move_type = ?", moveId, MoveTypeOutInvoice).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	if count == 0 {
		return false, nil
	}
	err = db.Model(&AccountMove{}).
		Where("id = ? AND move_type = ?", moveId, MoveTypeOutInvoice).
		Updates(map[string]interface{}{
			"fiscal_pending_print": false,
			"fiscal_printed":       true,
		}).Error
	if err != nil {
		return false, err
	}
	return true, nil
}

// WithinTolerance reports whether two amounts differ by at most the
// reconciler's tolerance.
func WithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(AmountTolerance)
}

// RefreshPaymentState recomputes the invoice's payment state from its open
// receivable lines inside the caller's transaction.
func RefreshPaymentState(tx *gorm.DB, moveId int) error {
	var move AccountMove
	if err := tx.First(&move, moveId).Error; err != nil {
		return err
	}
	if move.MoveType != MoveTypeOutInvoice {
		return nil
	}
	open, err := GetUnreconciledReceivableLines(tx, moveId, false)
	if err != nil {
		return err
	}
	residual := decimal.Zero
	for _, l := range open {
		residual = residual.Add(l.Balance())
	}
	state := PaymentStatePaid
	if residual.IsPositive() {
		state = PaymentStatePartial
		if residual.Equal(move.AmountTotal) {
			state = PaymentStateNotPaid
		}
	}
	return tx.Model(&AccountMove{}).Where("id = ?", moveId).
		Updates(map[string]interface{}{
			"payment_state":   state,
			"amount_residual": residual,
		}).Error
}

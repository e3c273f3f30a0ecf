package workflow

import (
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

// ProcessSessionCloseWorkflow closes a till session: builds the consolidated
// accounting entry from its orders, backfills the walk-in customer on
// unassigned receivable lines, then reconciles the session's invoices against
// the new entry.
func ProcessSessionCloseWorkflow(db *gorm.DB, logger *logrus.Logger, sessionId int) error {
	var session *models.PosSession

	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		session, err = models.GetPosSession(tx, sessionId, true)
		if err != nil {
			return err
		}
		if session.IsClosed() {
			return errors.New("session is already closed")
		}

		move, err := buildSessionEntry(tx, session)
		if err != nil {
			return err
		}

		now := time.Now()
		if err := tx.Model(&models.PosSession{}).Where("id = ?", session.ID).
			Updates(map[string]interface{}{
				"state":     models.PosSessionStateClosed,
				"move_id":   move.ID,
				"closed_at": now,
			}).Error; err != nil {
			return err
		}
		session.State = models.PosSessionStateClosed
		session.MoveId = move.ID
		session.ClosedAt = &now
		return nil
	})
	if err != nil {
		return err
	}

	if err := backfillWalkInCustomer(db, logger, session); err != nil {
		config.LogError(logger, "SessionCloseWorkflow.go", "ProcessSessionCloseWorkflow", "backfillWalkInCustomer", sessionId, err)
	}

	// best effort: invoices the sweep has not produced yet are caught later
	if _, err := ProcessReconcileSweep(db, logger, session.CompanyId); err != nil {
		config.LogError(logger, "SessionCloseWorkflow.go", "ProcessSessionCloseWorkflow", "ProcessReconcileSweep", sessionId, err)
	}
	return nil
}

// buildSessionEntry posts one consolidated entry for the session: one credit
// receivable line per paid order (so each invoice reconciles against its own,
// amount-consistent line), a cash debit for the money in the drawer.
func buildSessionEntry(tx *gorm.DB, session *models.PosSession) (*models.AccountMove, error) {
	lines, total := buildSessionEntryLines(session)

	move := models.AccountMove{
		CompanyId:   session.CompanyId,
		UserId:      session.UserId,
		MoveType:    models.MoveTypeEntry,
		State:       models.MoveStatePosted,
		Ref:         session.Name,
		Name:        fmt.Sprintf("SESSION/%d", session.ID),
		Lines:       lines,
		AmountTotal: total,
	}
	if err := tx.Create(&move).Error; err != nil {
		return nil, err
	}
	return &move, nil
}

// buildSessionEntryLines lays out the entry: receivable credits keyed by the
// order number they offset, one cash debit for the session total.
func buildSessionEntryLines(session *models.PosSession) ([]models.AccountMoveLine, decimal.Decimal) {
	var lines []models.AccountMoveLine
	total := decimal.Zero
	for _, o := range session.Orders {
		if o.State != models.PosOrderStatePaid && o.State != models.PosOrderStateDone {
			continue
		}
		lines = append(lines, models.AccountMoveLine{
			CompanyId:   session.CompanyId,
			CustomerId:  o.CustomerId,
			AccountType: models.AccountTypeReceivable,
			Name:        o.OrderNumber,
			Credit:      o.AmountTotal,
			Reconciled:  utils.NewFalse(),
		})
		total = total.Add(o.AmountTotal)
	}
	lines = append(lines, models.AccountMoveLine{
		CompanyId:   session.CompanyId,
		AccountType: models.AccountTypeCash,
		Name:        session.Name,
		Debit:       total,
	})
	return lines, total
}

// backfillWalkInCustomer assigns the walk-in customer to receivable lines of
// the session entry that ended up without one, so they reconcile cleanly.
func backfillWalkInCustomer(db *gorm.DB, logger *logrus.Logger, session *models.PosSession) error {
	if session.MoveId == 0 {
		return nil
	}
	walkIn, err := models.ResolveWalkInCustomer(db, session.CompanyId)
	if err != nil {
		return err
	}
	return db.Model(&models.AccountMoveLine{}).
		Where("move_id = ? AND account_type = ? AND customer_id = 0", session.MoveId, models.AccountTypeReceivable).
		Update("customer_id", walkIn.ID).Error
}

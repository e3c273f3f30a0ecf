package workflow

import (
	"fmt"

	"bitbucket.org/lmsoluciones/fiscalpos_backend/models"
	"gorm.io/gorm"
)

// NumberAssigner stamps a fiscal number on an invoice. Deployments without
// NCF ranges plug in the no-op implementation; everything else keeps working,
// the invoice just carries no fiscal number.
type NumberAssigner interface {
	AssignNcf(tx *gorm.DB, move *models.AccountMove, ncfType models.NcfType) error
}

// SequenceNumberAssigner reserves the next number from the company's active
// range under a row lock.
type SequenceNumberAssigner struct{}

func (SequenceNumberAssigner) AssignNcf(tx *gorm.DB, move *models.AccountMove, ncfType models.NcfType) error {
	ncfRange, err := models.LockActiveNcfRange(tx, move.CompanyId, ncfType)
	if err != nil {
		return err
	}
	if ncfRange == nil {
		// no range configured; leave the invoice without a fiscal number
		return nil
	}
	if ncfRange.AvailableNumbers <= 0 {
		return fmt.Errorf("%w: tipo %s", ErrNcfExhausted, ncfType)
	}
	n, err := ncfRange.ReserveNumber(tx)
	if err != nil {
		return err
	}
	move.NcfNumber = models.FormatNcf(ncfType, n)
	move.NcfRangeId = ncfRange.ID
	return nil
}

// NoopNumberAssigner never assigns anything.
type NoopNumberAssigner struct{}

func (NoopNumberAssigner) AssignNcf(*gorm.DB, *models.AccountMove, models.NcfType) error {
	return nil
}

// DefaultNumberAssigner is what the materializer uses unless a caller injects
// something else.
var DefaultNumberAssigner NumberAssigner = SequenceNumberAssigner{}

package workflow

import (
	"fmt"

	"bitbucket.org/lmsoluciones/fiscalpos_backend/models"
	"gorm.io/gorm"
)

// NcfAvailability is the outcome of the pre-sale fiscal number check. Exactly
// one of the three shapes applies: blocked (no invoicing possible), warning
// (running low), or plain ok. The check never mutates anything, the POS polls
// it freely.
type NcfAvailability struct {
	Ok        bool           `json:"ok"`
	Warning   bool           `json:"warning,omitempty"`
	Available int            `json:"available,omitempty"`
	Threshold int            `json:"threshold,omitempty"`
	Message   string         `json:"message,omitempty"`
	NcfType   models.NcfType `json:"ncf_type,omitempty"`
}

// CheckNcfAvailable decides whether the company can issue an invoice for the
// customer. A nil customer means a walk-in consumer ("02"); a customer with a
// tax id needs a fiscal-credit range ("01").
func CheckNcfAvailable(tx *gorm.DB, company *models.Company, customer *models.Customer) (*NcfAvailability, error) {
	ncfType := models.NcfTypeForCustomer(customer)

	ncfRange, err := models.GetActiveNcfRange(tx, company.ID, ncfType)
	if err != nil {
		if err == models.ErrAmbiguousNcfRange {
			return &NcfAvailability{
				Ok:      false,
				NcfType: ncfType,
				Message: fmt.Sprintf("Hay más de un rango NCF activo para comprobantes tipo %s. Corrija la configuración.", ncfType),
			}, nil
		}
		return nil, err
	}
	return decideAvailability(ncfRange, company.NcfLowThreshold, ncfType), nil
}

// decideAvailability maps a range's remaining stock onto the three outcomes.
func decideAvailability(ncfRange *models.NcfRange, threshold int, ncfType models.NcfType) *NcfAvailability {
	if ncfRange == nil || ncfRange.AvailableNumbers <= 0 {
		return &NcfAvailability{
			Ok:      false,
			NcfType: ncfType,
			Message: fmt.Sprintf("No quedan comprobantes fiscales (NCF) tipo %s disponibles. Solicite un nuevo rango a la DGII antes de facturar.", ncfType),
		}
	}
	if threshold > 0 && ncfRange.AvailableNumbers <= threshold {
		return &NcfAvailability{
			Ok:        true,
			Warning:   true,
			Available: ncfRange.AvailableNumbers,
			Threshold: threshold,
			NcfType:   ncfType,
			Message:   fmt.Sprintf("Quedan %d comprobantes tipo %s.", ncfRange.AvailableNumbers, ncfType),
		}
	}
	return &NcfAvailability{Ok: true, NcfType: ncfType}
}

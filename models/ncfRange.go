package models

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NcfRange is a DGII-authorized numbering range for one receipt type. Only one
// active range per (company, type) is expected; the availability checker
// treats more than one as a configuration error.
type NcfRange struct {
	ID               int        `gorm:"primary_key" json:"id"`
	CompanyId        int        `gorm:"index;not null" json:"company_id"`
	NcfType          NcfType    `gorm:"type:enum('01','02');index;not null" json:"ncf_type"`
	Active           *bool      `gorm:"not null;default:true" json:"active"`
	NextNumber       int64      `gorm:"not null" json:"next_number"`
	EndNumber        int64      `gorm:"not null" json:"end_number"`
	AvailableNumbers int        `gorm:"not null;default:0" json:"available_numbers"`
	DateEnd          *time.Time `json:"date_end"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

var ErrAmbiguousNcfRange = errors.New("more than one active NCF range for the document type")

// FormatNcf renders the printed fiscal number, e.g. B0200000123.
func FormatNcf(t NcfType, n int64) string {
	return fmt.Sprintf("%s%08d", t.Prefix(), n)
}

// GetActiveNcfRange returns the company's single active range for the type.
// nil when none exists; ErrAmbiguousNcfRange when more than one does.
func GetActiveNcfRange(tx *gorm.DB, companyId int, ncfType NcfType) (*NcfRange, error) {
	var ranges []NcfRange
	err := tx.Where("company_id = ? AND ncf_type = ? AND active = true", companyId, ncfType).
		Limit(2).
		Find(&ranges).Error
	if err != nil {
		return nil, err
	}
	switch len(ranges) {
	case 0:
		return nil, nil
	case 1:
		return &ranges[0], nil
	default:
		return nil, ErrAmbiguousNcfRange
	}
}

// LockActiveNcfRange reads the active range FOR UPDATE so the caller can
// reserve a number without racing another assigner.
func LockActiveNcfRange(tx *gorm.DB, companyId int, ncfType NcfType) (*NcfRange, error) {
	var ranges []NcfRange
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("company_id = ? AND ncf_type = ? AND active = true", companyId, ncfType).
		Limit(2).
		Find(&ranges).Error
	if err != nil {
		return nil, err
	}
	switch len(ranges) {
	case 0:
		return nil, nil
	case 1:
		return &ranges[0], nil
	default:
		return nil, ErrAmbiguousNcfRange
	}
}

// ReserveNumber hands out the range's next number and decrements the
// availability counter. The caller must hold the row lock.
func (r *NcfRange) ReserveNumber(tx *gorm.DB) (int64, error) {
	if r.AvailableNumbers <= 0 || r.NextNumber > r.EndNumber {
		return 0, errors.New("NCF range exhausted")
	}
	n := r.NextNumber
	r.NextNumber++
	r.AvailableNumbers--
	err := tx.Model(&NcfRange{}).Where("id = ?", r.ID).
		Updates(map[string]interface{}{
			"next_number":       r.NextNumber,
			"available_numbers": r.AvailableNumbers,
		}).Error
	if err != nil {
		return 0, err
	}
	return n, nil
}

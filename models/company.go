package models

import (
	"time"

	"gorm.io/gorm"
)

type Company struct {
	ID               int       `gorm:"primary_key" json:"id"`
	Name             string    `gorm:"size:255;not null" json:"name" binding:"required"`
	Vat              string    `gorm:"size:32" json:"vat"`
	Phone            string    `gorm:"size:32" json:"phone"`
	City             string    `gorm:"size:128" json:"city"`
	Street           string    `gorm:"size:255" json:"street"`
	Timezone         string    `gorm:"size:64;default:'America/Santo_Domingo'" json:"timezone"`
	CurrencySymbol   string    `gorm:"size:8;default:'RD$'" json:"currency_symbol"`
	CurrencyPosition string    `gorm:"size:8;default:'before'" json:"currency_position"`
	NcfLowThreshold  int       `gorm:"default:10" json:"ncf_low_threshold"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *Company) GetId() int {
	return c.ID
}

func GetCompany(tx *gorm.DB, id int) (*Company, error) {
	var company Company
	if err := tx.First(&company, id).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

// GetCompanyIds lists all company ids; the sweeps iterate them when no
// COMPANY_ID is pinned for the process.
func GetCompanyIds(tx *gorm.DB) ([]int, error) {
	var ids []int
	err := tx.Model(&Company{}).Order("id ASC").Pluck("id", &ids).Error
	return ids, err
}

package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/lmsoluciones/fiscalpos_backend/config"
	"bitbucket.org/lmsoluciones/fiscalpos_backend/utils"
	"gorm.io/gorm"
)

// WalkInCustomerName is the record name the POS looks up when an order has no
// customer attached. The record must exist before consumer invoicing works.
const WalkInCustomerName = "Cliente Consumidor Final"

// ErrWalkInCustomerMissing means no walk-in customer record exists for the
// company (nor a shared one). Fixing it is an admin action, not a retry.
var ErrWalkInCustomerMissing = errors.New("walk-in customer 'Cliente Consumidor Final' not found")

type Customer struct {
	ID        int       `gorm:"primary_key" json:"id"`
	CompanyId int       `gorm:"index;default:0" json:"company_id"` // 0 = shared across companies
	Name      string    `gorm:"size:255;index;not null" json:"name" binding:"required"`
	Vat       string    `gorm:"size:32" json:"vat"`
	Email     string    `gorm:"size:100" json:"email"`
	Phone     string    `gorm:"size:32" json:"phone"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCustomer struct {
	Name  string `json:"name" binding:"required"`
	Vat   string `json:"vat"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (input *NewCustomer) validate() error {
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return errors.New("invalid email")
	}
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return err
		}
	}
	return nil
}

func CreateCustomer(ctx context.Context, input NewCustomer) (*Customer, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	companyId, _ := utils.GetCompanyIdFromContext(ctx)
	customer := Customer{
		CompanyId: companyId,
		Name:      input.Name,
		Vat:       input.Vat,
		Email:     input.Email,
		Phone:     input.Phone,
		IsActive:  utils.NewTrue(),
	}
	if err := config.GetDB().Create(&customer).Error; err != nil {
		return nil, err
	}
	invalidateWalkInCache(companyId)
	return &customer, nil
}

func UpdateCustomer(ctx context.Context, id int, input NewCustomer) (*Customer, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	db := config.GetDB()
	var customer Customer
	if err := db.First(&customer, id).Error; err != nil {
		return nil, err
	}
	customer.Name = input.Name
	customer.Vat = input.Vat
	customer.Email = input.Email
	customer.Phone = input.Phone
	if err := db.Save(&customer).Error; err != nil {
		return nil, err
	}
	invalidateWalkInCache(customer.CompanyId)
	return &customer, nil
}

func GetCustomer(tx *gorm.DB, id int) (*Customer, error) {
	var customer Customer
	if err := tx.First(&customer, id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func walkInCacheKey(companyId int) string {
	return fmt.Sprintf("WalkInCustomer:%d", companyId)
}

func invalidateWalkInCache(companyId int) {
	config.RemoveRedisKey(walkInCacheKey(companyId))
}

// ResolveWalkInCustomer finds the walk-in customer for the company. A record
// owned by the company wins over a shared one (company_id = 0). The resolved
// id is cached; customer writes for the company invalidate it.
func ResolveWalkInCustomer(tx *gorm.DB, companyId int) (*Customer, error) {
	var cachedId int
	if found, err := config.GetRedisObject(walkInCacheKey(companyId), &cachedId); err == nil && found && cachedId > 0 {
		var customer Customer
		if err := tx.First(&customer, cachedId).Error; err == nil {
			return &customer, nil
		}
		// stale cache entry; fall through to the query
		invalidateWalkInCache(companyId)
	}

	var customer Customer
	err := tx.Where("name = ? AND company_id IN (0, ?)", WalkInCustomerName, companyId).
		Order("company_id DESC").
		First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalkInCustomerMissing
		}
		return nil, err
	}
	config.SetRedisObject(walkInCacheKey(companyId), customer.ID, 24*time.Hour)
	return &customer, nil
}

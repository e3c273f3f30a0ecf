package models

import "gorm.io/gorm"

// AutoMigrate keeps the schema in step with the model structs. Order matters
// only for readability; gorm resolves references by itself.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Company{},
		&User{},
		&Customer{},
		&NcfRange{},
		&PosSession{},
		&PosOrder{},
		&PosOrderLine{},
		&PosPayment{},
		&AccountMove{},
		&AccountMoveLine{},
		&Document{},
	)
}

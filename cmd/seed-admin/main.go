// seed-admin creates or updates the admin console user.
//
// Usage:
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-admin
package main

import (
	"fmt"
	"os"

	"bitbucket.org/lmsoluciones/fiscalpos_backend/config"
	"bitbucket.org/lmsoluciones/fiscalpos_backend/models"
	"bitbucket.org/lmsoluciones/fiscalpos_backend/utils"
	"gorm.io/gorm"
)

const (
	adminUsername = "fiscalposAdmin"
	adminName     = "FiscalPOS Admin"
)

func main() {
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		fmt.Fprintln(os.Stderr, "SEED_ADMIN_PASSWORD is required")
		os.Exit(2)
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	var company models.Company
	if err := db.Select("id").First(&company).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			fmt.Fprintln(os.Stderr, "no companies found in DB. Create a company first, then rerun seed-admin.")
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "failed to lookup company: %v\n", err)
		os.Exit(1)
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}

	var user models.User
	err = db.Where("username = ?", adminUsername).First(&user).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		user = models.User{
			CompanyId: company.ID,
			Name:      adminName,
			Username:  adminUsername,
			Password:  string(hashed),
			Role:      models.UserRoleAdmin,
			IsActive:  utils.NewTrue(),
		}
		if err := db.Create(&user).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to create admin user: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("created admin user %s (id=%d)\n", adminUsername, user.ID)
	case err != nil:
		fmt.Fprintf(os.Stderr, "failed to lookup admin user: %v\n", err)
		os.Exit(1)
	default:
		if err := db.Model(&user).Updates(map[string]interface{}{
			"password":  string(hashed),
			"is_active": true,
			"role":      models.UserRoleAdmin,
		}).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to update admin user: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("updated admin user %s (id=%d)\n", adminUsername, user.ID)
	}
}

package models

import (
	"errors"
	"time"

	"bitbucket.org/lmsoluciones/fiscalpos_backend/config"
	"bitbucket.org/lmsoluciones/fiscalpos_backend/utils"
	"gorm.io/gorm"
)

type User struct {
	ID        int       `gorm:"primary_key" json:"id"`
	CompanyId int       `gorm:"index;not null" json:"company_id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Username  string    `gorm:"size:100;uniqueIndex;not null" json:"username"`
	Password  string    `gorm:"size:100;not null" json:"-"`
	Role      UserRole  `gorm:"type:enum('A','C');default:'C'" json:"role"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetUser(tx *gorm.DB, id int) (*User, error) {
	var user User
	if err := tx.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Login verifies the cashier's credentials and returns a signed token. The
// token is mirrored in redis so it can be revoked before expiry.
func Login(username string, password string) (string, *User, error) {
	var user User
	err := config.GetDB().Where("username = ? AND is_active = true", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, errors.New("invalid credentials")
		}
		return "", nil, err
	}
	if err := utils.ComparePassword(user.Password, password); err != nil {
		return "", nil, errors.New("invalid credentials")
	}
	token, err := utils.JwtGenerate(user.ID, user.CompanyId, string(user.Role))
	if err != nil {
		return "", nil, err
	}
	config.SetRedisValue("Token:"+token, user.Username, 12*time.Hour)
	return token, &user, nil
}

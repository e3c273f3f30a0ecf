package models

import (
	"time"

	"gorm.io/gorm"
)

type PosSession struct {
	ID        int             `gorm:"primary_key" json:"id"`
	CompanyId int             `gorm:"index;not null" json:"company_id"`
	UserId    int             `gorm:"index;not null" json:"user_id"`
	Name      string          `gorm:"size:255;not null" json:"name"`
	State     PosSessionState `gorm:"type:enum('open','closed');index;default:'open'" json:"state"`
	MoveId    int             `gorm:"index;default:0" json:"move_id"` // consolidated entry built at close
	OpenedAt  time.Time       `json:"opened_at"`
	ClosedAt  *time.Time      `json:"closed_at"`
	Orders    []PosOrder      `gorm:"foreignKey:SessionId" json:"orders"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *PosSession) IsClosed() bool {
	return s.State == PosSessionStateClosed
}

func GetPosSession(tx *gorm.DB, id int, preloadOrders bool) (*PosSession, error) {
	q := tx
	if preloadOrders {
		q = q.Preload("Orders")
	}
	var session PosSession
	if err := q.First(&session, id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

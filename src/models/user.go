package models

import (
	"ers/src/types"
	"time"
)

type User struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	Name          string         `json:"name,omitempty"`
	Email         string         `gorm:"uniqueIndex" json:"email,omitempty"`
	Password      string         `json:"-"`
	Role          types.UserRole `gorm:"default:'student'" json:"role,omitempty"`
	LastActive    *time.Time     `json:"last_active,omitempty"`
	EmailVerified bool           `json:"email_verified,omitempty"`

	Reservations []Reservation         `gorm:"foreignKey:user_id" json:"reservations,omitempty"`
	Permissions  []EquipmentPermission `gorm:"foreignKey:user_id" json:"permissions,omitempty"`

	types.Timestamps
}

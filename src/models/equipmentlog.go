package models

import "ers/src/types"

// EquipmentLog is append-only; rows are never rewritten by the system, only
// by their author or an admin through the log routes.
type EquipmentLog struct {
	ID            uint          `gorm:"primarykey" json:"id"`
	EquipmentID   uint          `gorm:"index" json:"equipment_id,omitempty"`
	UserID        uint          `json:"user_id,omitempty"`
	ReservationID *uint         `gorm:"index" json:"reservation_id,omitempty"`
	Type          types.LogType `gorm:"default:'note'" json:"type,omitempty"`
	Content       string        `json:"content,omitempty"`

	Equipment   *Equipment   `gorm:"foreignKey:equipment_id" json:"equipment,omitempty"`
	User        *User        `gorm:"foreignKey:user_id" json:"user,omitempty"`
	Reservation *Reservation `gorm:"foreignKey:reservation_id" json:"reservation,omitempty"`

	types.Timestamps
}

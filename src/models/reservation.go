package models

import (
	"ers/src/types"
	"time"
)

type Reservation struct {
	ID          uint                    `gorm:"primarykey" json:"id"`
	EquipmentID uint                    `gorm:"index" json:"equipment_id,omitempty"`
	UserID      uint                    `gorm:"index" json:"user_id,omitempty"`
	StartTime   time.Time               `json:"start_time,omitempty"`
	EndTime     time.Time               `json:"end_time,omitempty"`
	Purpose     string                  `json:"purpose,omitempty"`
	Status      types.ReservationStatus `gorm:"default:'pending'" json:"status,omitempty"`

	Equipment *Equipment `gorm:"foreignKey:equipment_id" json:"equipment,omitempty"`
	User      *User      `gorm:"foreignKey:user_id" json:"user,omitempty"`

	types.Timestamps
}

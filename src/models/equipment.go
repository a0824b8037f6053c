package models

import (
	"ers/src/types"
)

type Equipment struct {
	ID          uint                  `gorm:"primarykey" json:"id"`
	Name        string                `json:"name,omitempty"`
	Slug        string                `gorm:"uniqueIndex" json:"slug,omitempty"`
	Location    string                `json:"location,omitempty"`
	Description *string               `json:"description,omitempty"`
	Status      types.EquipmentStatus `gorm:"default:'available'" json:"status,omitempty"`
	ManagerID   *uint                 `json:"manager_id,omitempty"`
	ManualURL   *string               `json:"manual_url,omitempty"`

	Manager      *User                 `gorm:"foreignKey:manager_id" json:"manager,omitempty"`
	Reservations []Reservation         `gorm:"foreignKey:equipment_id" json:"reservations,omitempty"`
	Permissions  []EquipmentPermission `gorm:"foreignKey:equipment_id" json:"permissions,omitempty"`
	Attachments  []Attachment          `gorm:"foreignKey:equipment_id" json:"attachments,omitempty"`

	types.Timestamps
}

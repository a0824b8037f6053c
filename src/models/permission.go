package models

import "ers/src/types"

// EquipmentPermission rows are unique per (equipment_id, user_id); granting
// again for the same pair replaces the level and granter instead of adding
// a second row.
type EquipmentPermission struct {
	ID          uint                  `gorm:"primarykey" json:"id"`
	EquipmentID uint                  `gorm:"uniqueIndex:equipment_user" json:"equipment_id,omitempty"`
	UserID      uint                  `gorm:"uniqueIndex:equipment_user" json:"user_id,omitempty"`
	GrantedBy   uint                  `json:"granted_by,omitempty"`
	Level       types.PermissionLevel `gorm:"default:'normal'" json:"level,omitempty"`

	Equipment *Equipment `gorm:"foreignKey:equipment_id" json:"equipment,omitempty"`
	User      *User      `gorm:"foreignKey:user_id" json:"user,omitempty"`
	Granter   *User      `gorm:"foreignKey:granted_by" json:"-"`

	types.Timestamps
}

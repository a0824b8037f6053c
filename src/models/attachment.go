package models

import "ers/src/types"

type Attachment struct {
	ID          uint   `gorm:"primarykey" json:"id"`
	EquipmentID uint   `gorm:"index" json:"equipment_id,omitempty"`
	UploadedBy  uint   `json:"uploaded_by,omitempty"`
	Name        string `json:"name,omitempty"`
	ObjectKey   string `gorm:"uniqueIndex" json:"-"`
	URL         string `json:"url,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size,omitempty"`

	Equipment *Equipment `gorm:"foreignKey:equipment_id" json:"-"`
	Uploader  *User      `gorm:"foreignKey:uploaded_by" json:"-"`

	types.Timestamps
}

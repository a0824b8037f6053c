package types

import (
	"time"

	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type UserRole string

const (
	ROLE_INTERN            UserRole = "intern"
	ROLE_STUDENT           UserRole = "student"
	ROLE_STAFF             UserRole = "staff"
	ROLE_EQUIPMENT_MANAGER UserRole = "equipment_manager"
	ROLE_ADMIN             UserRole = "admin"
)

func (r UserRole) Valid() bool {
	switch r {
	case ROLE_INTERN, ROLE_STUDENT, ROLE_STAFF, ROLE_EQUIPMENT_MANAGER, ROLE_ADMIN:
		return true
	}
	return false
}

type EquipmentStatus string

const (
	EQUIPMENT_AVAILABLE   EquipmentStatus = "available"
	EQUIPMENT_MAINTENANCE EquipmentStatus = "maintenance"
)

func (s EquipmentStatus) Valid() bool {
	switch s {
	case EQUIPMENT_AVAILABLE, EQUIPMENT_MAINTENANCE:
		return true
	}
	return false
}

type PermissionLevel string

const (
	PERMISSION_NORMAL     PermissionLevel = "normal"
	PERMISSION_AUTONOMOUS PermissionLevel = "autonomous"
	PERMISSION_MANAGER    PermissionLevel = "manager"
)

func (l PermissionLevel) Valid() bool {
	switch l {
	case PERMISSION_NORMAL, PERMISSION_AUTONOMOUS, PERMISSION_MANAGER:
		return true
	}
	return false
}

type ReservationStatus string

const (
	RESERVATION_PENDING   ReservationStatus = "pending"
	RESERVATION_CONFIRMED ReservationStatus = "confirmed"
	RESERVATION_CANCELLED ReservationStatus = "cancelled"
)

type LogType string

const (
	LOG_USAGE       LogType = "usage"
	LOG_MAINTENANCE LogType = "maintenance"
	LOG_ISSUE       LogType = "issue"
	LOG_NOTE        LogType = "note"
)

func (t LogType) Valid() bool {
	switch t {
	case LOG_USAGE, LOG_MAINTENANCE, LOG_ISSUE, LOG_NOTE:
		return true
	}
	return false
}

type RegisterUserRequestBody struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role,omitempty"`
}

type LoginRequestBody struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileRequestBody struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty" binding:"omitempty,email"`
}

type CreateEquipmentRequestBody struct {
	Name        string  `json:"name" binding:"required"`
	Location    string  `json:"location" binding:"required"`
	Description string  `json:"description,omitempty"`
	ManagerID   *uint   `json:"manager,omitempty"`
	ManualURL   *string `json:"manual_url,omitempty" binding:"omitempty,url"`
}

type UpdateEquipmentRequestBody struct {
	Name        *string `json:"name,omitempty"`
	Location    *string `json:"location,omitempty"`
	Description *string `json:"description,omitempty"`
	ManagerID   *uint   `json:"manager,omitempty"`
	ManualURL   *string `json:"manual_url,omitempty" binding:"omitempty,url"`
}

type UpdateEquipmentStatusRequestBody struct {
	Status string `json:"status" binding:"required"`
}

type GrantPermissionRequestBody struct {
	UserID uint   `json:"user" binding:"required"`
	Level  string `json:"level" binding:"required"`
}

type CreateReservationRequestBody struct {
	EquipmentID uint   `json:"equipment" binding:"required"`
	StartTime   string `json:"start_time" binding:"required,bookabledate" time_format:"2006-01-02 15:04:05 -07:00"`
	EndTime     string `json:"end_time" binding:"required,gtdate=StartTime" time_format:"2006-01-02 15:04:05 -07:00"`
	Purpose     string `json:"purpose" binding:"required"`
}

type UpdateReservationRequestBody struct {
	StartTime *string `json:"start_time,omitempty"`
	EndTime   *string `json:"end_time,omitempty"`
	Purpose   *string `json:"purpose,omitempty"`
}

type CreateLogRequestBody struct {
	EquipmentID   uint   `json:"equipment" binding:"required"`
	ReservationID *uint  `json:"reservation,omitempty"`
	Type          string `json:"type" binding:"required"`
	Content       string `json:"content" binding:"required"`
}

type UpdateLogRequestBody struct {
	Content string `json:"content" binding:"required"`
}

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

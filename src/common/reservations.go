package common

import (
	"database/sql"
	"ers/src/db"
	"ers/src/lib"
	"ers/src/models"
	"ers/src/types"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
)

// nowFunc is the clock for the not-in-the-past check. Tests replace it.
var nowFunc = time.Now

type CreateReservationInput struct {
	EquipmentID uint
	UserID      uint
	Role        types.UserRole
	StartTime   time.Time
	EndTime     time.Time
	Purpose     string
}

type UpdateReservationInput struct {
	StartTime *time.Time
	EndTime   *time.Time
	Purpose   *string
}

// CheckConflict reports whether [start,end) overlaps any non-cancelled
// reservation for the equipment. Intervals are half-open, so a reservation
// ending exactly at start (or starting exactly at end) does not overlap.
// excludeId is skipped so updates and restores do not conflict with
// themselves; pass 0 when creating.
func CheckConflict(tx *gorm.DB, equipmentId uint, start time.Time, end time.Time, excludeId uint) (bool, error) {
	q := tx.
		Model(&models.Reservation{}).
		Where("equipment_id = ?", equipmentId).
		Where("status <> ?", types.RESERVATION_CANCELLED).
		Where("start_time < ? AND end_time > ?", end, start)
	if excludeId > 0 {
		q = q.Where("id <> ?", excludeId)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateReservation runs the booking policy: interval sanity, equipment
// availability, conflict check, then the initial status decision. The check
// and the insert share one serializable transaction so two concurrent
// requests for the same free slot cannot both be admitted.
func CreateReservation(in *CreateReservationInput) (*models.Reservation, error) {
	if in.StartTime.Before(nowFunc()) {
		return nil, ErrPastStart
	}
	if !in.EndTime.After(in.StartTime) {
		return nil, ErrInvalidInterval
	}

	reservation := models.Reservation{
		EquipmentID: in.EquipmentID,
		UserID:      in.UserID,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		Purpose:     in.Purpose,
	}
	dbi := db.GetDb()
	err := dbi.Transaction(func(tx *gorm.DB) error {
		var equipment models.Equipment
		if err := tx.
			Where(&models.Equipment{ID: in.EquipmentID}).
			First(&equipment).
			Error; err != nil {
			return ErrEquipmentNotFound
		}
		if equipment.Status != types.EQUIPMENT_AVAILABLE {
			return ErrEquipmentUnavailable
		}
		conflict, err := CheckConflict(tx, in.EquipmentID, in.StartTime, in.EndTime, 0)
		if err != nil {
			return err
		}
		if conflict {
			return ErrConflict
		}
		status, err := initialStatus(tx, in.EquipmentID, in.UserID, in.Role)
		if err != nil {
			return err
		}
		reservation.Status = status
		return tx.Create(&reservation).Error
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// initialStatus decides pending vs confirmed. Admins bypass the permission
// ledger entirely; everyone else needs an autonomous or manager grant for
// the equipment to skip manual approval.
func initialStatus(tx *gorm.DB, equipmentId uint, userId uint, role types.UserRole) (types.ReservationStatus, error) {
	switch role {
	case types.ROLE_ADMIN:
		return types.RESERVATION_CONFIRMED, nil
	case types.ROLE_INTERN, types.ROLE_STUDENT, types.ROLE_STAFF, types.ROLE_EQUIPMENT_MANAGER:
		perm, err := GetPermission(tx, equipmentId, userId)
		if err != nil {
			return "", err
		}
		if perm == nil {
			return types.RESERVATION_PENDING, nil
		}
		switch perm.Level {
		case types.PERMISSION_AUTONOMOUS, types.PERMISSION_MANAGER:
			return types.RESERVATION_CONFIRMED, nil
		case types.PERMISSION_NORMAL:
			return types.RESERVATION_PENDING, nil
		default:
			return types.RESERVATION_PENDING, nil
		}
	default:
		return "", ErrForbidden
	}
}

// UpdateReservation changes the interval and/or purpose of a reservation.
// Only the owner or an admin may update. A changed interval is re-validated
// against current reservations, excluding this one. The not-in-the-past rule
// is deliberately not re-checked here; it applies at creation only.
func UpdateReservation(id uint, callerId uint, callerRole types.UserRole, in *UpdateReservationInput) (*models.Reservation, error) {
	var reservation models.Reservation
	dbi := db.GetDb()
	err := dbi.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where(&models.Reservation{ID: id}).
			First(&reservation).
			Error; err != nil {
			return ErrReservationNotFound
		}
		if reservation.UserID != callerId && callerRole != types.ROLE_ADMIN {
			return ErrForbidden
		}
		start := reservation.StartTime
		end := reservation.EndTime
		timeChanged := false
		if in.StartTime != nil {
			start = *in.StartTime
			timeChanged = true
		}
		if in.EndTime != nil {
			end = *in.EndTime
			timeChanged = true
		}
		if timeChanged {
			if !end.After(start) {
				return ErrInvalidInterval
			}
			conflict, err := CheckConflict(tx, reservation.EquipmentID, start, end, reservation.ID)
			if err != nil {
				return err
			}
			if conflict {
				return ErrConflict
			}
			reservation.StartTime = start
			reservation.EndTime = end
		}
		if in.Purpose != nil {
			reservation.Purpose = *in.Purpose
		}
		return tx.Save(&reservation).Error
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// CancelReservation flips the status to cancelled and frees the interval.
func CancelReservation(id uint, callerId uint, callerRole types.UserRole) error {
	dbi := db.GetDb()
	return dbi.Transaction(func(tx *gorm.DB) error {
		var reservation models.Reservation
		if err := tx.
			Where(&models.Reservation{ID: id}).
			First(&reservation).
			Error; err != nil {
			return ErrReservationNotFound
		}
		if reservation.UserID != callerId && callerRole != types.ROLE_ADMIN {
			return ErrForbidden
		}
		return tx.
			Model(&models.Reservation{}).
			Where(&models.Reservation{ID: id}).
			Update("status", types.RESERVATION_CANCELLED).
			Error
	})
}

// RestoreReservation brings a cancelled reservation back as confirmed. The
// original interval is re-checked first; if the slot was taken in the
// meantime the restore fails and the reservation stays cancelled.
func RestoreReservation(id uint, callerId uint, callerRole types.UserRole) (*models.Reservation, error) {
	var reservation models.Reservation
	dbi := db.GetDb()
	err := dbi.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where(&models.Reservation{ID: id}).
			First(&reservation).
			Error; err != nil {
			return ErrReservationNotFound
		}
		if reservation.UserID != callerId && callerRole != types.ROLE_ADMIN {
			return ErrForbidden
		}
		if reservation.Status != types.RESERVATION_CANCELLED {
			return ErrNotCancelled
		}
		conflict, err := CheckConflict(tx, reservation.EquipmentID, reservation.StartTime, reservation.EndTime, reservation.ID)
		if err != nil {
			return err
		}
		if conflict {
			return ErrConflict
		}
		reservation.Status = types.RESERVATION_CONFIRMED
		return tx.
			Model(&models.Reservation{}).
			Where(&models.Reservation{ID: id}).
			Update("status", types.RESERVATION_CONFIRMED).
			Error
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// ApproveReservation is the manual pending -> confirmed transition, allowed
// for admins and for holders of a manager grant on the equipment.
func ApproveReservation(id uint, callerId uint, callerRole types.UserRole) (*models.Reservation, error) {
	var reservation models.Reservation
	dbi := db.GetDb()
	err := dbi.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where(&models.Reservation{ID: id}).
			Preload("User").
			Preload("Equipment").
			First(&reservation).
			Error; err != nil {
			return ErrReservationNotFound
		}
		if callerRole != types.ROLE_ADMIN {
			manages, err := CanManageEquipment(tx, reservation.EquipmentID, callerId)
			if err != nil {
				return err
			}
			if !manages {
				return ErrForbidden
			}
		}
		if reservation.Status != types.RESERVATION_PENDING {
			return ErrInvalidStatus
		}
		reservation.Status = types.RESERVATION_CONFIRMED
		return tx.
			Model(&models.Reservation{}).
			Where(&models.Reservation{ID: id}).
			Update("status", types.RESERVATION_CONFIRMED).
			Error
	})
	if err != nil {
		return nil, err
	}
	go notifyApproved(&reservation)
	return &reservation, nil
}

// DeleteReservation removes the row entirely. Admin only.
func DeleteReservation(id uint, callerRole types.UserRole) error {
	if callerRole != types.ROLE_ADMIN {
		return ErrForbidden
	}
	dbi := db.GetDb()
	res := dbi.Unscoped().Delete(&models.Reservation{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrReservationNotFound
	}
	return nil
}

func notifyApproved(reservation *models.Reservation) {
	if reservation.User == nil || reservation.User.Email == "" {
		return
	}
	name := fmt.Sprintf("equipment #%d", reservation.EquipmentID)
	if reservation.Equipment != nil {
		name = reservation.Equipment.Name
	}
	err := lib.SendMail(&lib.SendMailInput{
		From:     "noreply@lab.local",
		FromName: "Lab Reservations",
		To:       []string{reservation.User.Email},
		Subject:  fmt.Sprintf("Reservation for %s approved", name),
		Body: fmt.Sprintf(
			"Your reservation for %s from %s to %s has been approved.",
			name,
			reservation.StartTime.Format(time.RFC1123),
			reservation.EndTime.Format(time.RFC1123),
		),
	})
	if err != nil {
		log.Printf("Error sending approval notification for reservation %d: %s\n", reservation.ID, err.Error())
	}
}

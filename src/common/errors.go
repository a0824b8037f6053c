package common

import "errors"

var (
	// validation
	ErrInvalidInterval = errors.New("end time must be after start time")
	ErrPastStart       = errors.New("start time cannot be in the past")
	ErrInvalidStatus   = errors.New("invalid status value")

	// not found
	ErrEquipmentNotFound   = errors.New("equipment not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrLogNotFound         = errors.New("log entry not found")

	// conflict
	ErrConflict             = errors.New("time slot conflicts with an existing reservation")
	ErrEquipmentUnavailable = errors.New("equipment is under maintenance")
	ErrNotCancelled         = errors.New("only cancelled reservations can be restored")

	// authorization
	ErrForbidden = errors.New("not enough permissions to perform this action")
)

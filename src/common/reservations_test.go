package common

import (
	"errors"
	"ers/src/models"
	"ers/src/types"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateReservationStatusPolicy(t *testing.T) {
	d := newTestDB(t)
	freezeClock(t, mustParse(t, "2024-01-01T00:00:00Z"))

	staff := seedUser(t, d, "staff", types.ROLE_STAFF)
	admin := seedUser(t, d, "admin", types.ROLE_ADMIN)
	equipment := seedEquipment(t, d, "microscope", types.EQUIPMENT_AVAILABLE)

	// staff with no grant books 14:00-16:00, awaits approval
	first, err := CreateReservation(&CreateReservationInput{
		EquipmentID: equipment.ID,
		UserID:      staff.ID,
		Role:        staff.Role,
		StartTime:   mustParse(t, "2024-01-10T14:00:00Z"),
		EndTime:     mustParse(t, "2024-01-10T16:00:00Z"),
		Purpose:     "cell imaging",
	})
	require.NoError(t, err)
	assert.Equal(t, types.RESERVATION_PENDING, first.Status)

	// admin overlapping 15:00-17:00 is rejected even though pending
	_, err = CreateReservation(&CreateReservationInput{
		EquipmentID: equipment.ID,
		UserID:      admin.ID,
		Role:        admin.Role,
		StartTime:   mustParse(t, "2024-01-10T15:00:00Z"),
		EndTime:     mustParse(t, "2024-01-10T17:00:00Z"),
	})
	assert.ErrorIs(t, err, ErrConflict)

	// end == start boundary does not overlap; admin auto-confirms
	second, err := CreateReservation(&CreateReservationInput{
		EquipmentID: equipment.ID,
		UserID:      admin.ID,
		Role:        admin.Role,
		StartTime:   mustParse(t, "2024-01-10T16:00:00Z"),
		EndTime:     mustParse(t, "2024-01-10T18:00:00Z"),
	})
	require.NoError(t, err)
	assert.Equal(t, types.RESERVATION_CONFIRMED, second.Status)

	// cancelling the first frees its slot
	require.NoError(t, CancelReservation(first.ID, staff.ID, staff.Role))
	conflict, err := CheckConflict(d, equipment.ID, mustParse(t, "2024-01-10T15:00:00Z"), mustParse(t, "2024-01-10T16:00:00Z"), 0)
	require.NoError(t, err)
	assert.False(t, conflict)

	// an autonomous grant skips the pending state
	_, err = GrantPermission(equipment.ID, staff.ID, admin.ID, types.PERMISSION_AUTONOMOUS)
	require.NoError(t, err)
	third, err := CreateReservation(&CreateReservationInput{
		EquipmentID: equipment.ID,
		UserID:      staff.ID,
		Role:        staff.Role,
		StartTime:   mustParse(t, "2024-01-11T09:00:00Z"),
		EndTime:     mustParse(t, "2024-01-11T11:00:00Z"),
	})
	require.NoError(t, err)
	assert.Equal(t, types.RESERVATION_CONFIRMED, third.Status)
}

func TestCreateReservationValidation(t *testing.T) {
	d := newTestDB(t)
	freezeClock(t, mustParse(t, "2024-01-01T00:00:00Z"))

	staff := seedUser(t, d, "staff", types.ROLE_STAFF)
	available := seedEquipment(t, d, "centrifuge", types.EQUIPMENT_AVAILABLE)
	down := seedEquipment(t, d, "sequencer", types.EQUIPMENT_MAINTENANCE)

	// start in the past
	_, err := CreateReservation(&CreateReservationInput{
		EquipmentID: available.ID,
		UserID:      staff.ID,
		Role:        staff.Role,
		StartTime:   mustParse(t, "2023-12-31T10:00:00Z"),
		EndTime:     mustParse(t, "2023-12-31T12:00:00Z"),
	})
	assert.ErrorIs(t, err, ErrPastStart)

	// end not after start
	_, err = CreateReservation(&CreateReservationInput{
		EquipmentID: available.ID,
		UserID:      staff.ID,
		Role:        staff.Role,
		StartTime:   mustParse(t, "2024-01-10T12:00:00Z"),
		EndTime:     mustParse(t, "2024-01-10T12:00:00Z"),
	})
	assert.ErrorIs(t, err, ErrInvalidInterval)

	// past start wins when the interval is also inverted
	_, err = CreateReservation(&CreateReservationInput{
		EquipmentID: available.ID,
		UserID:      staff.ID,
		Role:        staff.Role,
		StartTime:   mustParse(t, "2023-12-31T12:00:00Z"),
		EndTime:     mustParse(t, "2023-12-31T10:00:00Z"),
	})
	assert.ErrorIs(t, err, ErrPastStart)

	// equipment under maintenance
	_, err = CreateReservation(&CreateReservationInput{
		EquipmentID: down.ID,
		UserID:      staff.ID,
		Role:        staff.Role,
		StartTime:   mustParse(t, "2024-01-10T12:00:00Z"),
		EndTime:     mustParse(t, "2024-01-10T13:00:00Z"),
	})
	assert.ErrorIs(t, err, ErrEquipmentUnavailable)

	// unknown equipment
	_, err = CreateReservation(&CreateReservationInput{
		EquipmentID: 999,
		UserID:      staff.ID,
		Role:        staff.Role,
		StartTime:   mustParse(t, "2024-01-10T12:00:00Z"),
		EndTime:     mustParse(t, "2024-01-10T13:00:00Z"),
	})
	assert.ErrorIs(t, err, ErrEquipmentNotFound)

	// a rejected creation leaves no row behind
	var count int64
	require.NoError(t, d.Model(&models.Reservation{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestUpdateReservation(t *testing.T) {
	d := newTestDB(t)
	freezeClock(t, mustParse(t, "2024-01-01T00:00:00Z"))

	staff := seedUser(t, d, "staff", types.ROLE_STAFF)
	other := seedUser(t, d, "other", types.ROLE_STUDENT)
	admin := seedUser(t, d, "admin", types.ROLE_ADMIN)
	equipment := seedEquipment(t, d, "microscope", types.EQUIPMENT_AVAILABLE)

	mine, err := CreateReservation(&CreateReservationInput{
		EquipmentID: equipment.ID,
		UserID:      staff.ID,
		Role:        staff.Role,
		StartTime:   mustParse(t, "2024-01-10T14:00:00Z"),
		EndTime:     mustParse(t, "2024-01-10T16:00:00Z"),
	})
	require.NoError(t, err)
	taken, err := CreateReservation(&CreateReservationInput{
		EquipmentID: equipment.ID,
		UserID:      admin.ID,
		Role:        admin.Role,
		StartTime:   mustParse(t, "2024-01-10T16:00:00Z"),
		EndTime:     mustParse(t, "2024-01-10T18:00:00Z"),
	})
	require.NoError(t, err)

	// non-owner cannot touch it
	newPurpose := "recalibration"
	_, err = UpdateReservation(mine.ID, other.ID, other.Role, &UpdateReservationInput{Purpose: &newPurpose})
	assert.ErrorIs(t, err, ErrForbidden)

	// moving onto the neighbouring interval conflicts
	start := mustParse(t, "2024-01-10T17:00:00Z")
	end := mustParse(t, "2024-01-10T19:00:00Z")
	_, err = UpdateReservation(mine.ID, staff.ID, staff.Role, &UpdateReservationInput{StartTime: &start, EndTime: &end})
	assert.ErrorIs(t, err, ErrConflict)

	// widening within its own slot does not self-conflict
	end2 := mustParse(t, "2024-01-10T16:00:00Z")
	start2 := mustParse(t, "2024-01-10T13:00:00Z")
	updated, err := UpdateReservation(mine.ID, staff.ID, staff.Role, &UpdateReservationInput{StartTime: &start2, EndTime: &end2})
	require.NoError(t, err)
	assert.True(t, updated.StartTime.Equal(start2))

	// update does not re-check the not-in-the-past rule
	freezeClock(t, mustParse(t, "2024-02-01T00:00:00Z"))
	start3 := mustParse(t, "2024-01-20T09:00:00Z")
	end3 := mustParse(t, "2024-01-20T11:00:00Z")
	_, err = UpdateReservation(mine.ID, staff.ID, staff.Role, &UpdateReservationInput{StartTime: &start3, EndTime: &end3})
	assert.NoError(t, err)

	_ = taken
}

func TestRestoreReservation(t *testing.T) {
	d := newTestDB(t)
	freezeClock(t, mustParse(t, "2024-01-01T00:00:00Z"))

	staff := seedUser(t, d, "staff", types.ROLE_STAFF)
	admin := seedUser(t, d, "admin", types.ROLE_ADMIN)
	equipment := seedEquipment(t, d, "microscope", types.EQUIPMENT_AVAILABLE)

	mine, err := CreateReservation(&CreateReservationInput{
		EquipmentID: equipment.ID,
		UserID:      staff.ID,
		Role:        staff.Role,
		StartTime:   mustParse(t, "2024-01-10T14:00:00Z"),
		EndTime:     mustParse(t, "2024-01-10T16:00:00Z"),
	})
	require.NoError(t, err)

	// restore requires cancelled status
	_, err = RestoreReservation(mine.ID, staff.ID, staff.Role)
	assert.ErrorIs(t, err, ErrNotCancelled)

	require.NoError(t, CancelReservation(mine.ID, staff.ID, staff.Role))

	// someone takes the freed slot
	_, err = CreateReservation(&CreateReservationInput{
		EquipmentID: equipment.ID,
		UserID:      admin.ID,
		Role:        admin.Role,
		StartTime:   mustParse(t, "2024-01-10T15:00:00Z"),
		EndTime:     mustParse(t, "2024-01-10T17:00:00Z"),
	})
	require.NoError(t, err)

	// restore must fail and leave the reservation cancelled
	_, err = RestoreReservation(mine.ID, staff.ID, staff.Role)
	assert.ErrorIs(t, err, ErrConflict)
	var stored models.Reservation
	require.NoError(t, d.First(&stored, mine.ID).Error)
	assert.Equal(t, types.RESERVATION_CANCELLED, stored.Status)
}

func TestRestoreReservationSucceedsOnFreeSlot(t *testing.T) {
	d := newTestDB(t)
	freezeClock(t, mustParse(t, "2024-01-01T00:00:00Z"))

	staff := seedUser(t, d, "staff", types.ROLE_STAFF)
	equipment := seedEquipment(t, d, "microscope", types.EQUIPMENT_AVAILABLE)

	mine, err := CreateReservation(&CreateReservationInput{
		EquipmentID: equipment.ID,
		UserID:      staff.ID,
		Role:        staff.Role,
		StartTime:   mustParse(t, "2024-01-10T14:00:00Z"),
		EndTime:     mustParse(t, "2024-01-10T16:00:00Z"),
	})
	require.NoError(t, err)
	require.NoError(t, CancelReservation(mine.ID, staff.ID, staff.Role))

	restored, err := RestoreReservation(mine.ID, staff.ID, staff.Role)
	require.NoError(t, err)
	assert.Equal(t, types.RESERVATION_CONFIRMED, restored.Status)
	var stored models.Reservation
	require.NoError(t, d.First(&stored, mine.ID).Error)
	assert.Equal(t, types.RESERVATION_CONFIRMED, stored.Status)
}

func TestApproveReservation(t *testing.T) {
	d := newTestDB(t)
	freezeClock(t, mustParse(t, "2024-01-01T00:00:00Z"))

	staff := seedUser(t, d, "staff", types.ROLE_STAFF)
	manager := seedUser(t, d, "manager", types.ROLE_EQUIPMENT_MANAGER)
	admin := seedUser(t, d, "admin", types.ROLE_ADMIN)
	equipment := seedEquipment(t, d, "microscope", types.EQUIPMENT_AVAILABLE)

	pending, err := CreateReservation(&CreateReservationInput{
		EquipmentID: equipment.ID,
		UserID:      staff.ID,
		Role:        staff.Role,
		StartTime:   mustParse(t, "2024-01-10T14:00:00Z"),
		EndTime:     mustParse(t, "2024-01-10T16:00:00Z"),
	})
	require.NoError(t, err)

	// a user without a manager grant cannot approve
	_, err = ApproveReservation(pending.ID, manager.ID, manager.Role)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = GrantPermission(equipment.ID, manager.ID, admin.ID, types.PERMISSION_MANAGER)
	require.NoError(t, err)
	approved, err := ApproveReservation(pending.ID, manager.ID, manager.Role)
	require.NoError(t, err)
	assert.Equal(t, types.RESERVATION_CONFIRMED, approved.Status)

	// approving twice is rejected
	_, err = ApproveReservation(pending.ID, admin.ID, admin.Role)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestCreateReservationConcurrentSlot(t *testing.T) {
	d := newTestDB(t)
	sqlDB, err := d.DB()
	require.NoError(t, err)
	// a single connection forces the transactions to truly contend
	sqlDB.SetMaxOpenConns(1)
	freezeClock(t, mustParse(t, "2024-01-01T00:00:00Z"))

	equipment := seedEquipment(t, d, "microscope", types.EQUIPMENT_AVAILABLE)
	const workers = 8
	users := make([]*models.User, workers)
	for i := range users {
		users[i] = seedUser(t, d, fmt.Sprintf("tech%d", i), types.ROLE_STAFF)
	}

	start := mustParse(t, "2024-01-10T14:00:00Z")
	end := mustParse(t, "2024-01-10T16:00:00Z")
	results := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(user *models.User) {
			defer wg.Done()
			_, err := CreateReservation(&CreateReservationInput{
				EquipmentID: equipment.ID,
				UserID:      user.ID,
				Role:        user.Role,
				StartTime:   start,
				EndTime:     end,
				Purpose:     "same slot",
			})
			results <- err
		}(users[i])
	}
	wg.Wait()
	close(results)

	admitted := 0
	for err := range results {
		if err == nil {
			admitted++
			continue
		}
		assert.True(t, errors.Is(err, ErrConflict), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, admitted)

	var count int64
	require.NoError(t, d.Model(&models.Reservation{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestCheckConflictBoundaries(t *testing.T) {
	d := newTestDB(t)
	freezeClock(t, mustParse(t, "2024-01-01T00:00:00Z"))

	staff := seedUser(t, d, "staff", types.ROLE_STAFF)
	equipment := seedEquipment(t, d, "microscope", types.EQUIPMENT_AVAILABLE)

	existing, err := CreateReservation(&CreateReservationInput{
		EquipmentID: equipment.ID,
		UserID:      staff.ID,
		Role:        staff.Role,
		StartTime:   mustParse(t, "2024-01-10T14:00:00Z"),
		EndTime:     mustParse(t, "2024-01-10T16:00:00Z"),
	})
	require.NoError(t, err)

	cases := []struct {
		name     string
		start    string
		end      string
		conflict bool
	}{
		{"start inside", "2024-01-10T15:00:00Z", "2024-01-10T17:00:00Z", true},
		{"end inside", "2024-01-10T13:00:00Z", "2024-01-10T15:00:00Z", true},
		{"fully contains", "2024-01-10T13:00:00Z", "2024-01-10T17:00:00Z", true},
		{"fully contained", "2024-01-10T14:30:00Z", "2024-01-10T15:30:00Z", true},
		{"touching before", "2024-01-10T12:00:00Z", "2024-01-10T14:00:00Z", false},
		{"touching after", "2024-01-10T16:00:00Z", "2024-01-10T18:00:00Z", false},
		{"disjoint", "2024-01-11T14:00:00Z", "2024-01-11T16:00:00Z", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conflict, err := CheckConflict(d, equipment.ID, mustParse(t, tc.start), mustParse(t, tc.end), 0)
			require.NoError(t, err)
			assert.Equal(t, tc.conflict, conflict)
		})
	}

	t.Run("exclude self", func(t *testing.T) {
		conflict, err := CheckConflict(d, equipment.ID, existing.StartTime, existing.EndTime, existing.ID)
		require.NoError(t, err)
		assert.False(t, conflict)
	})

	t.Run("other equipment is independent", func(t *testing.T) {
		other := seedEquipment(t, d, "incubator", types.EQUIPMENT_AVAILABLE)
		conflict, err := CheckConflict(d, other.ID, existing.StartTime, existing.EndTime, 0)
		require.NoError(t, err)
		assert.False(t, conflict)
	})
}

func TestDeleteReservation(t *testing.T) {
	d := newTestDB(t)
	freezeClock(t, mustParse(t, "2024-01-01T00:00:00Z"))

	staff := seedUser(t, d, "staff", types.ROLE_STAFF)
	admin := seedUser(t, d, "admin", types.ROLE_ADMIN)
	equipment := seedEquipment(t, d, "microscope", types.EQUIPMENT_AVAILABLE)

	reservation, err := CreateReservation(&CreateReservationInput{
		EquipmentID: equipment.ID,
		UserID:      staff.ID,
		Role:        staff.Role,
		StartTime:   mustParse(t, "2024-01-10T14:00:00Z"),
		EndTime:     mustParse(t, "2024-01-10T16:00:00Z"),
	})
	require.NoError(t, err)

	assert.ErrorIs(t, DeleteReservation(reservation.ID, staff.Role), ErrForbidden)
	require.NoError(t, DeleteReservation(reservation.ID, admin.Role))
	assert.ErrorIs(t, DeleteReservation(reservation.ID, admin.Role), ErrReservationNotFound)

	var count int64
	require.NoError(t, d.Model(&models.Reservation{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestOverlapSymmetryInvariant(t *testing.T) {
	d := newTestDB(t)
	freezeClock(t, mustParse(t, "2024-01-01T00:00:00Z"))

	staff := seedUser(t, d, "staff", types.ROLE_STAFF)
	equipment := seedEquipment(t, d, "microscope", types.EQUIPMENT_AVAILABLE)

	slots := [][2]string{
		{"2024-01-10T08:00:00Z", "2024-01-10T10:00:00Z"},
		{"2024-01-10T09:00:00Z", "2024-01-10T11:00:00Z"},
		{"2024-01-10T10:00:00Z", "2024-01-10T12:00:00Z"},
		{"2024-01-10T11:30:00Z", "2024-01-10T12:30:00Z"},
		{"2024-01-10T12:30:00Z", "2024-01-10T13:00:00Z"},
	}
	for _, slot := range slots {
		CreateReservation(&CreateReservationInput{
			EquipmentID: equipment.ID,
			UserID:      staff.ID,
			Role:        staff.Role,
			StartTime:   mustParse(t, slot[0]),
			EndTime:     mustParse(t, slot[1]),
		})
	}

	var active []models.Reservation
	require.NoError(t, d.
		Where("status <> ?", types.RESERVATION_CANCELLED).
		Find(&active).
		Error)
	assert.NotEmpty(t, active)
	for i, a := range active {
		for j, b := range active {
			if i == j {
				continue
			}
			overlap := a.StartTime.Before(b.EndTime) && a.EndTime.After(b.StartTime)
			assert.Falsef(t, overlap, "reservations %d and %d overlap", a.ID, b.ID)
		}
	}
}

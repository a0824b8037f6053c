package utils

import (
	"ers/src/config"
	"ers/src/db"
	"ers/src/models"
	"ers/src/types"
	"log"
	"sort"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

func GenerateJWT(email string, id uint, role types.UserRole) (string, error) {
	expirationTime := time.Now().Add(24 * time.Hour)
	claims := &types.Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(int(id)),
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(config.JWTSecret())
}

// ParseBookingTime parses the datetime format used by request bodies.
func ParseBookingTime(value string) (time.Time, error) {
	t, err := time.Parse(config.TIME_PARSE_FORMAT, value)
	if err != nil {
		return time.Time{}, err
	}
	// truncate to whole minutes, same as booking granularity
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, t.Location()), nil
}

func GetOwnReservations(userId uint) ([]models.Reservation, error) {
	var data []models.Reservation
	err := db.GetDb().
		Model(&models.Reservation{}).
		Where(&models.Reservation{UserID: userId}).
		Preload("Equipment").
		Order("start_time DESC").
		Find(&data).
		Error
	if err != nil {
		log.Printf("Error retrieving reservations for user %d: %s\n", userId, err.Error())
		return nil, err
	}
	return data, nil
}

func GetEquipmentReservations(equipmentId uint) ([]models.Reservation, error) {
	var data []models.Reservation
	err := db.GetDb().
		Model(&models.Reservation{}).
		Where(&models.Reservation{EquipmentID: equipmentId}).
		Preload("User").
		Order("start_time DESC").
		Find(&data).
		Error
	if err != nil {
		return nil, err
	}
	return data, nil
}

type StatusCount struct {
	Status types.ReservationStatus `json:"status"`
	Count  int64                   `json:"count"`
}

type EquipmentUsage struct {
	EquipmentID uint    `json:"equipment_id"`
	Name        string  `json:"name"`
	Hours       float64 `json:"hours"`
	Count       int64   `json:"count"`
}

func GetReservationStats() ([]StatusCount, error) {
	var counts []StatusCount
	err := db.GetDb().
		Model(&models.Reservation{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&counts).
		Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// GetEquipmentUsageStats aggregates booked hours per equipment over the
// given window, confirmed reservations only. Durations are summed in Go to
// stay portable across database dialects.
func GetEquipmentUsageStats(since time.Time) ([]EquipmentUsage, error) {
	var reservations []models.Reservation
	err := db.GetDb().
		Model(&models.Reservation{}).
		Where("status = ? AND start_time >= ?", types.RESERVATION_CONFIRMED, since).
		Preload("Equipment").
		Find(&reservations).
		Error
	if err != nil {
		return nil, err
	}
	byEquipment := make(map[uint]*EquipmentUsage)
	for _, r := range reservations {
		u, ok := byEquipment[r.EquipmentID]
		if !ok {
			u = &EquipmentUsage{EquipmentID: r.EquipmentID}
			if r.Equipment != nil {
				u.Name = r.Equipment.Name
			}
			byEquipment[r.EquipmentID] = u
		}
		u.Hours += r.EndTime.Sub(r.StartTime).Hours()
		u.Count++
	}
	usage := make([]EquipmentUsage, 0, len(byEquipment))
	for _, u := range byEquipment {
		usage = append(usage, *u)
	}
	sort.Slice(usage, func(i, j int) bool { return usage[i].Hours > usage[j].Hours })
	return usage, nil
}

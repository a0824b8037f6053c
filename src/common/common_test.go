package common

import (
	"ers/src/db"
	"ers/src/models"
	"ers/src/types"
	"fmt"
	"log"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestDB opens a per-test in-memory database and points the package
// db singleton at it.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("error opening test database: %s", err.Error())
	}
	err = gormDB.AutoMigrate(
		&models.User{},
		&models.Equipment{},
		&models.EquipmentPermission{},
		&models.Reservation{},
		&models.EquipmentLog{},
		&models.Attachment{},
	)
	if err != nil {
		t.Fatalf("error migration: %s", err.Error())
	}
	db.NewDB(gormDB)
	return gormDB
}

func seedUser(t *testing.T, d *gorm.DB, name string, role types.UserRole) *models.User {
	t.Helper()
	user := models.User{
		Name:  name,
		Email: fmt.Sprintf("%s@lab.local", name),
		Role:  role,
	}
	if err := d.Create(&user).Error; err != nil {
		t.Fatalf("error creating user: %s", err.Error())
	}
	return &user
}

func seedEquipment(t *testing.T, d *gorm.DB, name string, status types.EquipmentStatus) *models.Equipment {
	t.Helper()
	equipment := models.Equipment{
		Name:     name,
		Slug:     name,
		Location: "Lab 1",
		Status:   status,
	}
	if err := d.Create(&equipment).Error; err != nil {
		t.Fatalf("error creating equipment: %s", err.Error())
	}
	return &equipment
}

// freezeClock pins the engine clock and restores it when the test ends.
func freezeClock(t *testing.T, at time.Time) {
	t.Helper()
	nowFunc = func() time.Time { return at }
	t.Cleanup(func() {
		nowFunc = time.Now
	})
}

func mustParse(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		log.Fatalf("error parsing time: %s", err.Error())
	}
	return parsed
}

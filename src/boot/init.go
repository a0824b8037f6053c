package boot

import (
	"ers/src/db"
	"ers/src/lib"
	"ers/src/models"
	"ers/src/types"
	"log"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.User{},
		&models.Equipment{},
		&models.EquipmentPermission{},
		&models.Reservation{},
		&models.EquipmentLog{},
		&models.Attachment{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}
	seedAdmin(db)

	return db
}

// seedAdmin creates the initial admin account from env on an empty users
// table so a fresh deployment can log in.
func seedAdmin(db *gorm.DB) {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return
	}
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil || count > 0 {
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Error hashing admin password: %s\n", err.Error())
		return
	}
	admin := models.User{
		Name:     "Administrator",
		Email:    email,
		Password: string(hash),
		Role:     types.ROLE_ADMIN,
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Printf("Error seeding admin user: %s\n", err.Error())
	}
}

func InitScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	if _, err := lib.CreateCronJob(ExpireStalePending, 15*time.Minute); err != nil {
		log.Printf("Error scheduling expiry job: %s\n", err.Error())
		return
	}
	sched.Start()
}

// ExpireStalePending cancels pending reservations whose start time has
// passed without approval, freeing the slot.
func ExpireStalePending() {
	dbi := db.GetDb()
	res := dbi.
		Model(&models.Reservation{}).
		Where("status = ? AND start_time < ?", types.RESERVATION_PENDING, time.Now()).
		Update("status", types.RESERVATION_CANCELLED)
	if res.Error != nil {
		log.Printf("Error expiring stale pending reservations: %s\n", res.Error.Error())
		return
	}
	if res.RowsAffected > 0 {
		log.Printf("Expired %d stale pending reservations\n", res.RowsAffected)
	}
}

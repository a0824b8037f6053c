package db

import (
	"log"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB() (*gorm.DB, sqlmock.Sqlmock) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		log.Fatalf("error creating mock database: %s", err.Error())
	}
	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 conn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	if err != nil {
		log.Fatalf("error opening mock database: %s", err.Error())
	}
	return gormDB, mock
}

func TestNewDBInjection(t *testing.T) {
	gormDB, mock := newMockDB()
	NewDB(gormDB)
	defer NewDB(nil)

	assert.Same(t, gormDB, GetDb())

	mock.ExpectQuery(`SELECT count\(\*\) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	var count int64
	err := GetDb().Table("users").Count(&count).Error
	assert.Nil(t, err)
	assert.Equal(t, int64(3), count)
	assert.Nil(t, mock.ExpectationsWereMet())
}

package db

import (
	"log"

	"standup/src/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open connects to postgres. Duplicate-key failures are translated into
// gorm.ErrDuplicatedKey so the store can report conflicts.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Printf("Error connecting to database: %s\n", err.Error())
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Error establishing connection to database: %s\n", err.Error())
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.UserStatus{},
		&models.Team{},
		&models.UserInTeam{},
		&models.MeetingRecord{},
	)
}

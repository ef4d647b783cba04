package config

import (
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	model "techtrack.com/techtrack/internal/models"
)

func New(dsn string) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	if err := db.AutoMigrate(
		&model.Technician{},
		&model.Status{},
		&model.Project{},
		&model.ProjectNote{},
		&model.History{},
		&model.Vista{},
	); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	return db
}

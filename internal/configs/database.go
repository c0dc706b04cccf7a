package config

import (
	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	model "taskhub.com/taskhub/internal/models"
)

// NewDatabase opens the store and migrates the task table for the selected
// environment. TranslateError is required: the hub relies on
// gorm.ErrDuplicatedKey to implement idempotent registration.
func NewDatabase(dsn, table string) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("db open failed")
	}

	if err := db.Table(table).AutoMigrate(&model.Task{}); err != nil {
		log.Fatal().Err(err).Str("table", table).Msg("migration failed")
	}

	return db
}

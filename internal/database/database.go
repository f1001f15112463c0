package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bootnotify/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DefaultLimit bounds history listings when no limit is given.
const DefaultLimit = 20

// Store persists boot events in SQLite.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the boot history database at dbPath.
func Open(dbPath string) (*Store, error) {
	// Ensure the directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&models.BootEvent{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

// RecordBoot stores one boot event.
func (s *Store) RecordBoot(event *models.BootEvent) error {
	if err := s.db.Create(event).Error; err != nil {
		return fmt.Errorf("failed to record boot event: %w", err)
	}
	return nil
}

// RecentBoots returns up to limit boot events, newest first.
func (s *Store) RecentBoots(limit int) ([]models.BootEvent, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	var events []models.BootEvent
	if err := s.db.Order("booted_at DESC").Order("id DESC").Limit(limit).Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to list boot events: %w", err)
	}
	return events, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying *sql.DB: %w", err)
	}
	return sqlDB.Close()
}

package sql

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mcoot/gameshelf/internal/storage"
)

// record is one row of the shared records table. Position preserves the
// collection's stored order.
type record struct {
	Collection string         `gorm:"primaryKey;size:64"`
	Position   int            `gorm:"primaryKey"`
	RecordID   string         `gorm:"size:64;index"`
	Data       datatypes.JSON `gorm:"not null"`
}

func (record) TableName() string {
	return "records"
}

// Storage is a gorm-backed implementation of storage.Backend
type Storage struct {
	db *gorm.DB
}

// New opens the database and migrates the records table
func New(cfg Config) (*Storage, error) {
	var dial gorm.Dialector
	switch cfg.Driver {
	case DriverSQLite:
		dial = sqlite.Open(cfg.DSN)
	case DriverPostgres:
		dial = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", cfg.Driver)
	}

	lvl := logger.Silent
	switch cfg.LogLevel {
	case "error":
		lvl = logger.Error
	case "warn":
		lvl = logger.Warn
	case "info":
		lvl = logger.Info
	}

	db, err := gorm.Open(dial, &gorm.Config{
		Logger: logger.Default.LogMode(lvl),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return NewWithDB(db)
}

// NewWithDB wraps an existing gorm handle and migrates the records table
func NewWithDB(db *gorm.DB) (*Storage, error) {
	if err := db.AutoMigrate(&record{}); err != nil {
		return nil, fmt.Errorf("migrate records table: %w", err)
	}
	return &Storage{db: db}, nil
}

// Ensure Storage implements the interface
var _ storage.Backend = (*Storage)(nil)

func (s *Storage) Load(ctx context.Context, collection string) ([]json.RawMessage, error) {
	var rows []record
	err := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Order("position").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	records := make([]json.RawMessage, len(rows))
	for i, row := range rows {
		records[i] = json.RawMessage(row.Data)
	}
	return records, nil
}

func (s *Storage) Persist(ctx context.Context, collection string, records []json.RawMessage) error {
	rows := make([]record, len(records))
	for i, r := range records {
		var head struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(r, &head); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		rows[i] = record{
			Collection: collection,
			Position:   i,
			RecordID:   head.ID,
			Data:       datatypes.JSON(r),
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("collection = ?", collection).Delete(&record{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, 200).Error
	})
}

// Close closes the underlying connection pool
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

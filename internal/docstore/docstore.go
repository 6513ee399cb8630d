// Package docstore persists role/profile documents and account credentials
// in sqlite. Documents are opaque JSON records keyed by (collection, id).
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned when no document exists for a (collection, id).
var ErrNotFound = errors.New("document not found")

// Store reads and writes JSON documents backed by gorm.
type Store struct {
	db *gorm.DB
}

// Open initializes the database connection with production settings and
// runs migrations.
func Open(url string, zlog zerolog.Logger) (*Store, error) {
	const (
		maxOpenConns    = 8
		maxIdleConns    = 4
		connMaxLifetime = 300 * time.Second
		busyTimeout     = 5000
	)

	db, err := gorm.Open(sqlite.Open(url), &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				LogLevel:                  logger.Error,
				IgnoreRecordNotFoundError: true,
				SlowThreshold:             200 * time.Millisecond,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// WAL mode must be set first for optimal concurrency
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout),
		"PRAGMA foreign_keys=1",
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			zlog.Warn().Str("pragma", pragma).Err(err).Msg("Failed to apply pragma")
		}
	}

	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// New wraps an existing gorm connection (used by tests).
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying gorm connection.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Get returns the document in collection keyed by id, decoded into a map.
// Returns ErrNotFound when no such document exists.
func (s *Store) Get(ctx context.Context, collection, id string) (map[string]any, error) {
	var doc Document
	err := s.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, id).
		First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read document %s/%s: %w", collection, id, err)
	}

	data := map[string]any{}
	if err := json.Unmarshal([]byte(doc.Data), &data); err != nil {
		return nil, fmt.Errorf("failed to decode document %s/%s: %w", collection, id, err)
	}
	return data, nil
}

// Put creates or replaces the document in collection keyed by id.
func (s *Store) Put(ctx context.Context, collection, id string, data map[string]any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode document %s/%s: %w", collection, id, err)
	}

	var doc Document
	err = s.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, id).
		First(&doc).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		doc = Document{Collection: collection, DocID: id, Data: string(payload)}
		if err := s.db.WithContext(ctx).Create(&doc).Error; err != nil {
			return fmt.Errorf("failed to create document %s/%s: %w", collection, id, err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("failed to read document %s/%s: %w", collection, id, err)
	}

	doc.Data = string(payload)
	if err := s.db.WithContext(ctx).Save(&doc).Error; err != nil {
		return fmt.Errorf("failed to update document %s/%s: %w", collection, id, err)
	}
	return nil
}

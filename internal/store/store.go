// Package store implements the flat namespaced key-value persistence layer
// shared by the identity store and the history ledger. Keys are strings,
// values are serialized JSON, and everything lives in a single SQLite
// table so state survives process restarts.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"loanrisk/internal/logger"
)

// ErrKeyNotFound is returned by Get when no value exists for the key.
var ErrKeyNotFound = errors.New("key not found")

// schemaVersionKey tags the store layout so future migrations have
// something to dispatch on.
const (
	schemaVersionKey = "schema:version"
	schemaVersion    = 1
)

// entry is a single persisted key-value pair.
type entry struct {
	Key       string `gorm:"primaryKey"`
	Value     string
	UpdatedAt time.Time
}

// TableName keeps the table name stable regardless of struct renames.
func (entry) TableName() string { return "kv_entries" }

// KV is the key-value store. Writes go through the GORM default
// transaction; callers that need atomic multi-key updates serialize at
// the service layer.
type KV struct {
	db *gorm.DB
}

// Open opens (creating if necessary) the store at the given SQLite DSN,
// migrates the backing table, and stamps the schema version.
func Open(dsn string) (*KV, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	if err := db.AutoMigrate(&entry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate store: %w", err)
	}

	kv := &KV{db: db}
	if err := kv.checkSchemaVersion(); err != nil {
		return nil, err
	}
	return kv, nil
}

// checkSchemaVersion writes the schema version on first open and warns on
// a mismatch. There is only one version today, so a mismatch is logged
// rather than failed.
func (kv *KV) checkSchemaVersion() error {
	var stored int
	err := kv.Get(schemaVersionKey, &stored)
	switch {
	case errors.Is(err, ErrKeyNotFound):
		return kv.Put(schemaVersionKey, schemaVersion)
	case err != nil:
		return err
	case stored != schemaVersion:
		logger.Get().Warnw("store schema version mismatch",
			"stored", stored,
			"expected", schemaVersion,
		)
	}
	return nil
}

// Get reads the value for key into out. Returns ErrKeyNotFound when the
// key is absent. A value that fails to deserialize is reported as an
// error so callers can fall back to defaults.
func (kv *KV) Get(key string, out any) error {
	var e entry
	if err := kv.db.First(&e, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrKeyNotFound
		}
		return fmt.Errorf("failed to read key %q: %w", key, err)
	}
	if err := json.Unmarshal([]byte(e.Value), out); err != nil {
		return fmt.Errorf("corrupted value for key %q: %w", key, err)
	}
	return nil
}

// Put serializes v as JSON and upserts it under key.
func (kv *KV) Put(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to serialize value for key %q: %w", key, err)
	}

	e := entry{Key: key, Value: string(raw), UpdatedAt: time.Now().UTC()}
	err = kv.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		UpdateAll: true,
	}).Create(&e).Error
	if err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}

// Delete removes the value for key. Deleting an absent key is not an error.
func (kv *KV) Delete(key string) error {
	if err := kv.db.Delete(&entry{}, "key = ?", key).Error; err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}

// Close releases the underlying database connection.
func (kv *KV) Close() error {
	sqlDB, err := kv.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pokewonder/pokewonder/internal/models"
)

// stateRow is the sqlite representation: one row per entity key, the record
// itself serialized as JSON so schema additions never need a migration.
type stateRow struct {
	Key       string `gorm:"primaryKey;size:32"`
	Record    []byte
	UpdatedAt time.Time
}

// TableName keeps the table name stable across gorm naming strategies.
func (stateRow) TableName() string {
	return "entity_state"
}

// SQLiteStore persists the mapping in an embedded sqlite database. Commit
// upserts all dirty rows inside one transaction, which gives the same
// all-or-nothing guarantee as the file backend's rename.
type SQLiteStore struct {
	*memoryMap
	db *gorm.DB
}

// NewSQLiteStore opens (or creates) the database at path and loads all rows.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.AutoMigrate(&stateRow{}); err != nil {
		return nil, fmt.Errorf("migrate state table: %w", err)
	}

	s := &SQLiteStore{memoryMap: newMemoryMap(), db: db}

	var rows []stateRow
	if err := db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load state rows: %w", err)
	}
	for _, row := range rows {
		var rec models.StateRecord
		if err := json.Unmarshal(row.Record, &rec); err != nil {
			// a single bad row degrades to "new entity", same as a
			// corrupt file snapshot
			continue
		}
		s.records[row.Key] = rec
	}
	return s, nil
}

// Commit upserts every dirty record in one transaction.
func (s *SQLiteStore) Commit() error {
	dirty := s.takeDirty()
	if len(dirty) == 0 {
		return nil
	}

	rows := make([]stateRow, 0, len(dirty))
	now := time.Now()
	for key := range dirty {
		rec, ok := s.Get(key)
		if !ok {
			continue
		}
		data, err := json.Marshal(rec)
		if err != nil {
			s.restoreDirty(dirty)
			return fmt.Errorf("marshal record %s: %w", key, err)
		}
		rows = append(rows, stateRow{Key: key, Record: data, UpdatedAt: now})
	}
	if len(rows) == 0 {
		return nil
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rows).Error
	})
	if err != nil {
		s.restoreDirty(dirty)
		return fmt.Errorf("commit state rows: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

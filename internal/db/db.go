// Package db implements docstore.Store on SQLite through gorm. Every
// collection lives in one documents table keyed by collection path and id,
// with field values stored as JSON.
package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/docstore"
)

// Ensure Store implements docstore.Store and docstore.Versioner.
var (
	_ docstore.Store     = (*Store)(nil)
	_ docstore.Versioner = (*Store)(nil)
)

// generationID is the primary key of the single Generation row.
const generationID = 1

// Document is one stored document row.
type Document struct {
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Collection string `gorm:"primaryKey;size:255"`
	ID         string `gorm:"primaryKey;size:64"`
	Data       string `gorm:"type:text;not null"`
}

// Generation counts writes to the database file. Every process sharing the
// file bumps the same row.
type Generation struct {
	ID    uint `gorm:"primaryKey"`
	Value int64
}

// Store is a SQLite-backed document store.
type Store struct {
	db      *gorm.DB
	indexes docstore.Indexes
}

// Open sets up the database connection at path and runs migrations.
func Open(path string, indexes docstore.Indexes) (*Store, error) {
	// Ensure the directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // Quiet by default
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Store{db: gdb, indexes: indexes}
	if err := s.runMigrations(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

// DefaultPath returns ~/.chumo/chumo.db.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".chumo", "chumo.db"), nil
}

// runMigrations creates/updates the database schema
func (s *Store) runMigrations() error {
	if err := s.db.AutoMigrate(&Document{}, &Generation{}); err != nil {
		return err
	}
	return s.db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&Generation{ID: generationID}).Error
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Get retrieves a document by id.
func (s *Store) Get(ctx context.Context, collection, id string) (*docstore.Doc, error) {
	var row Document
	err := s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable(err)
	}
	return decodeRow(row)
}

// Query evaluates q against the collection. Filters with an SQL form are
// pushed down to SQLite first; docstore.Apply then runs every filter, the
// ordering and the limit on what comes back.
func (s *Store) Query(ctx context.Context, q docstore.Query) ([]docstore.Doc, error) {
	if err := s.indexes.Check(q); err != nil {
		return nil, err
	}

	tx := s.db.WithContext(ctx).Where("collection = ?", q.Collection)
	for _, f := range q.Filters {
		tx = pushDown(tx, f)
	}
	var rows []Document
	if err := tx.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, unavailable(err)
	}

	docs := make([]docstore.Doc, 0, len(rows))
	for _, row := range rows {
		doc, err := decodeRow(row)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docstore.Apply(q, docs), nil
}

// fieldName limits pushed-down fields to plain JSON object keys.
var fieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// pushDown narrows tx with the SQL form of f. Only equality against null
// or a string has one; a missing field reads as null, as in docstore.
func pushDown(tx *gorm.DB, f docstore.Filter) *gorm.DB {
	if f.Op != docstore.OpEqual || !fieldName.MatchString(f.Field) {
		return tx
	}
	path := "$." + f.Field
	switch v := f.Value.(type) {
	case nil:
		return tx.Where("json_extract(data, ?) IS NULL", path)
	case string:
		return tx.Where("json_extract(data, ?) = ?", path, v)
	default:
		return tx
	}
}

// Version returns the write generation of the database file.
func (s *Store) Version(ctx context.Context) (int64, error) {
	var g Generation
	if err := s.db.WithContext(ctx).First(&g, generationID).Error; err != nil {
		return 0, unavailable(err)
	}
	return g.Value, nil
}

// write runs fn in a transaction and bumps the generation when it succeeds
// and changed something.
func (s *Store) write(ctx context.Context, fn func(tx *gorm.DB) (bool, error)) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		changed, err := fn(tx)
		if err != nil || !changed {
			return err
		}
		err = tx.Model(&Generation{}).Where("id = ?", generationID).
			UpdateColumn("value", gorm.Expr("value + ?", 1)).Error
		if err != nil {
			return unavailable(err)
		}
		return nil
	})
}

// Add creates a document with a random id.
func (s *Store) Add(ctx context.Context, collection string, fields docstore.Fields) (string, error) {
	data, err := Encode(fields)
	if err != nil {
		return "", err
	}
	row := Document{Collection: collection, ID: uuid.NewString(), Data: data}
	err = s.write(ctx, func(tx *gorm.DB) (bool, error) {
		if err := tx.Create(&row).Error; err != nil {
			return false, unavailable(err)
		}
		return true, nil
	})
	if err != nil {
		return "", err
	}
	return row.ID, nil
}

// Set creates or replaces a document with a caller-chosen id.
func (s *Store) Set(ctx context.Context, collection, id string, fields docstore.Fields) error {
	data, err := Encode(fields)
	if err != nil {
		return err
	}
	row := Document{Collection: collection, ID: id, Data: data}
	return s.write(ctx, func(tx *gorm.DB) (bool, error) {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "collection"}, {Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).Create(&row).Error
		if err != nil {
			return false, unavailable(err)
		}
		return true, nil
	})
}

// Update merges fields into an existing document.
func (s *Store) Update(ctx context.Context, collection, id string, fields docstore.Fields) error {
	return s.write(ctx, func(tx *gorm.DB) (bool, error) {
		var row Document
		err := tx.Where("collection = ? AND id = ?", collection, id).First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, fmt.Errorf("%w: %s/%s", docstore.ErrNotFound, collection, id)
		}
		if err != nil {
			return false, unavailable(err)
		}

		existing, err := Decode(row.Data)
		if err != nil {
			return false, err
		}
		for k, v := range fields {
			existing[k] = v
		}
		data, err := Encode(existing)
		if err != nil {
			return false, err
		}
		if err := tx.Model(&row).Update("data", data).Error; err != nil {
			return false, unavailable(err)
		}
		return true, nil
	})
}

// Delete removes a document.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	return s.write(ctx, func(tx *gorm.DB) (bool, error) {
		res := tx.Where("collection = ? AND id = ?", collection, id).Delete(&Document{})
		if res.Error != nil {
			return false, unavailable(res.Error)
		}
		return res.RowsAffected > 0, nil
	})
}

func decodeRow(row Document) (*docstore.Doc, error) {
	fields, err := Decode(row.Data)
	if err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", row.Collection, row.ID, err)
	}
	return &docstore.Doc{Collection: row.Collection, ID: row.ID, Fields: fields}, nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", docstore.ErrUnavailable, err)
}

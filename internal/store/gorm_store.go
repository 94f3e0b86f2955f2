package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Document is a single record of the path-keyed document table used by the
// relational drivers. The JSON body is stored opaque; the store never
// queries inside it at the SQL level.
type Document struct {
	Path string `gorm:"primaryKey;type:varchar(512)"`
	Data []byte
}

// GormStore implements Store on a relational database through GORM, so a
// local sqlite file or a Postgres instance can stand in for the remote
// document store.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore migrates the document table and returns the store.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&Document{}); err != nil {
		return nil, fmt.Errorf("failed to migrate document table: %w", err)
	}
	return &GormStore{db: db}, nil
}

// Get decodes the document at path, or the collection of direct children.
func (s *GormStore) Get(path string, dest any) error {
	var doc Document
	err := s.db.First(&doc, "path = ?", path).Error
	if err == nil {
		return json.Unmarshal(doc.Data, dest)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to get document at %s: %w", path, err)
	}

	children, err := s.children(path)
	if err != nil {
		return err
	}
	if len(children) == 0 {
		return ErrNotFound
	}
	return decodeInto(children, dest)
}

// Set replaces the document at path, discarding any children below it.
func (s *GormStore) Set(path string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode document at %s: %w", path, err)
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("path LIKE ?", path+"/%").Delete(&Document{}).Error; err != nil {
			return fmt.Errorf("failed to clear subtree at %s: %w", path, err)
		}
		err := tx.Clauses(clause.OnConflict{UpdateAll: true}).
			Create(&Document{Path: path, Data: raw}).Error
		if err != nil {
			return fmt.Errorf("failed to set document at %s: %w", path, err)
		}
		return nil
	})
}

// Push stores value under path with a generated key and returns the key.
func (s *GormStore) Push(path string, value any) (string, error) {
	key := uuid.New().String()
	if err := s.Set(path+"/"+key, value); err != nil {
		return "", err
	}
	return key, nil
}

// Update merges fields into the document at path, creating it if absent.
func (s *GormStore) Update(path string, fields map[string]any) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		doc := make(map[string]any)
		var existing Document
		err := tx.First(&existing, "path = ?", path).Error
		if err == nil {
			if err := json.Unmarshal(existing.Data, &doc); err != nil {
				return fmt.Errorf("failed to decode document at %s: %w", path, err)
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to get document at %s: %w", path, err)
		}

		for k, v := range fields {
			doc[k] = v
		}
		raw, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to encode document at %s: %w", path, err)
		}
		err = tx.Clauses(clause.OnConflict{UpdateAll: true}).
			Create(&Document{Path: path, Data: raw}).Error
		if err != nil {
			return fmt.Errorf("failed to update document at %s: %w", path, err)
		}
		return nil
	})
}

// Delete removes the document at path along with any children.
func (s *GormStore) Delete(path string) error {
	err := s.db.Where("path = ? OR path LIKE ?", path, path+"/%").
		Delete(&Document{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete document at %s: %w", path, err)
	}
	return nil
}

// FilterEqual collects the children of path whose field equals value.
// The JSON body is opaque to SQL, so children are decoded and compared here.
func (s *GormStore) FilterEqual(path, field, value string, dest any) error {
	children, err := s.children(path)
	if err != nil {
		return err
	}
	matches := make(map[string]json.RawMessage)
	for key, raw := range children {
		var doc map[string]any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("failed to decode document at %s/%s: %w", path, key, err)
		}
		if v, ok := doc[field].(string); ok && v == value {
			matches[key] = raw
		}
	}
	return decodeInto(matches, dest)
}

func (s *GormStore) children(path string) (map[string]json.RawMessage, error) {
	var docs []Document
	if err := s.db.Find(&docs, "path LIKE ?", path+"/%").Error; err != nil {
		return nil, fmt.Errorf("failed to list children of %s: %w", path, err)
	}
	prefix := path + "/"
	children := make(map[string]json.RawMessage)
	for _, doc := range docs {
		key := strings.TrimPrefix(doc.Path, prefix)
		if strings.Contains(key, "/") {
			continue
		}
		children[key] = json.RawMessage(doc.Data)
	}
	return children, nil
}

package store_test

import (
	"fmt"
	"testing"

	"jooba/internal/store"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var gormTestSeq int

// newGormStore opens a fresh shared in-memory sqlite database per test so
// state never leaks between tests.
func newGormStore(t *testing.T) *store.GormStore {
	t.Helper()
	gormTestSeq++
	dsn := fmt.Sprintf("file:gormstore%d?mode=memory&cache=shared", gormTestSeq)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	s, err := store.NewGormStore(db)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return s
}

func TestGormStore_SetGetDelete(t *testing.T) {
	s := newGormStore(t)

	err := s.Set("users/u1", record{Name: "alice", OwnerUID: "u1"})
	assert.NoError(t, err)

	var got record
	err = s.Get("users/u1", &got)
	assert.NoError(t, err)
	assert.Equal(t, "alice", got.Name)

	// Set replaces the existing document in full.
	err = s.Set("users/u1", record{Name: "alice2", OwnerUID: "u1"})
	assert.NoError(t, err)
	err = s.Get("users/u1", &got)
	assert.NoError(t, err)
	assert.Equal(t, "alice2", got.Name)

	err = s.Delete("users/u1")
	assert.NoError(t, err)
	err = s.Get("users/u1", &got)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGormStore_PushAndCollectionGet(t *testing.T) {
	s := newGormStore(t)

	k1, err := s.Push("products", record{Name: "Chair", Category: "furniture"})
	assert.NoError(t, err)
	k2, err := s.Push("products", record{Name: "Lamp", Category: "lighting"})
	assert.NoError(t, err)

	collection := make(map[string]record)
	err = s.Get("products", &collection)
	assert.NoError(t, err)
	assert.Len(t, collection, 2)
	assert.Equal(t, "Chair", collection[k1].Name)
	assert.Equal(t, "Lamp", collection[k2].Name)

	err = s.Get("nothing_here", &collection)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGormStore_UpdateMergesFields(t *testing.T) {
	s := newGormStore(t)

	err := s.Set("products/p1", record{Name: "Chair", Category: "furniture", Price: 10, OwnerUID: "u1"})
	assert.NoError(t, err)

	err = s.Update("products/p1", map[string]any{"name": "Armchair", "price": 15.0})
	assert.NoError(t, err)

	var got record
	err = s.Get("products/p1", &got)
	assert.NoError(t, err)
	assert.Equal(t, "Armchair", got.Name)
	assert.Equal(t, 15.0, got.Price)
	assert.Equal(t, "furniture", got.Category)
	assert.Equal(t, "u1", got.OwnerUID)
}

func TestGormStore_FilterEqual(t *testing.T) {
	s := newGormStore(t)

	_, err := s.Push("products", record{Name: "Chair", Category: "furniture", OwnerUID: "u1"})
	assert.NoError(t, err)
	_, err = s.Push("products", record{Name: "Lamp", Category: "lighting", OwnerUID: "u2"})
	assert.NoError(t, err)

	matches := make(map[string]record)
	err = s.FilterEqual("products", "owner_uid", "u2", &matches)
	assert.NoError(t, err)
	assert.Len(t, matches, 1)

	none := make(map[string]record)
	err = s.FilterEqual("products", "owner_uid", "u3", &none)
	assert.NoError(t, err)
	assert.Empty(t, none)
}

package prefs

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T, path string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newTestGorm(t *testing.T) *Gorm {
	t.Helper()
	db := openTestDB(t, fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_")))
	g, err := NewGorm(db)
	require.NoError(t, err)
	return g
}

// storeContract runs the same checks against every Store implementation.
func storeContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("default when absent", func(t *testing.T) {
		s := newStore(t)
		v, err := s.GetInt("WinCount", 7)
		require.NoError(t, err)
		assert.Equal(t, 7, v)
	})

	t.Run("staged value visible before save", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.SetInt("WinCount", 3))
		v, err := s.GetInt("WinCount", 0)
		require.NoError(t, err)
		assert.Equal(t, 3, v)
	})

	t.Run("save then overwrite", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.SetInt("WinCount", 1))
		require.NoError(t, s.Save())
		require.NoError(t, s.SetInt("WinCount", 2))
		require.NoError(t, s.Save())

		v, err := s.GetInt("WinCount", 0)
		require.NoError(t, err)
		assert.Equal(t, 2, v)
	})

	t.Run("delete key", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.SetInt("LossCount", 4))
		require.NoError(t, s.Save())
		require.NoError(t, s.DeleteKey("LossCount"))

		v, err := s.GetInt("LossCount", -1)
		require.NoError(t, err)
		assert.Equal(t, -1, v, "staged delete hides committed value")

		require.NoError(t, s.Save())
		v, err = s.GetInt("LossCount", -1)
		require.NoError(t, err)
		assert.Equal(t, -1, v)
	})

	t.Run("delete all then set", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.SetInt("WinCount", 5))
		require.NoError(t, s.SetInt("LossCount", 6))
		require.NoError(t, s.Save())

		require.NoError(t, s.DeleteAll())
		require.NoError(t, s.SetInt("WinCount", 1))
		require.NoError(t, s.Save())

		w, err := s.GetInt("WinCount", 0)
		require.NoError(t, err)
		l, err := s.GetInt("LossCount", 0)
		require.NoError(t, err)
		assert.Equal(t, 1, w)
		assert.Equal(t, 0, l)
	})

	t.Run("empty key rejected", func(t *testing.T) {
		s := newStore(t)
		assert.Error(t, s.SetInt("", 1))
	})
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, func(t *testing.T) Store { return NewMemory() })
}

func TestGormStore(t *testing.T) {
	storeContract(t, func(t *testing.T) Store { return newTestGorm(t) })
}

func TestMemory_SaveCountsAndCommitted(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.SetInt("WinCount", 2))
	assert.Empty(t, m.Committed())

	require.NoError(t, m.Save())
	assert.Equal(t, map[string]int{"WinCount": 2}, m.Committed())
	assert.Equal(t, 1, m.Saves())
}

func TestGorm_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.db")

	first, err := NewGorm(openTestDB(t, path))
	require.NoError(t, err)
	require.NoError(t, first.SetInt("WinCount", 9))
	require.NoError(t, first.Save())

	second, err := NewGorm(openTestDB(t, path))
	require.NoError(t, err)
	v, err := second.GetInt("WinCount", 0)
	require.NoError(t, err)
	assert.Equal(t, 9, v)
}

func TestGorm_UnsavedWritesAreNotDurable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.db")

	first, err := NewGorm(openTestDB(t, path))
	require.NoError(t, err)
	require.NoError(t, first.SetInt("WinCount", 9))

	second, err := NewGorm(openTestDB(t, path))
	require.NoError(t, err)
	v, err := second.GetInt("WinCount", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, v)
}

func TestNewGorm_NilDB(t *testing.T) {
	_, err := NewGorm(nil)
	assert.Error(t, err)
}

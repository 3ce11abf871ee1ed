package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteDatabase_Integration(t *testing.T) {
	// Create a temporary database file
	dbPath := filepath.Join(t.TempDir(), "ezsnip.db")

	db, err := NewSQLiteDatabase(dbPath)
	require.NoError(t, err, "Failed to create database")
	defer db.Close()

	first := time.Unix(1700000000, 0)
	later := first.Add(time.Hour)

	t.Run("Empty scope", func(t *testing.T) {
		usage, err := db.GetUsage("glsl")
		require.NoError(t, err)
		assert.Empty(t, usage)

		_, err = db.GetUsageByTrigger("glsl", "box")
		assert.ErrorIs(t, err, ErrNoUsage, "Unknown snippets should return ErrNoUsage")
	})

	t.Run("Increment counts", func(t *testing.T) {
		require.NoError(t, db.IncUsageCount("glsl", "box", first))
		require.NoError(t, db.IncUsageCount("glsl", "box", later))
		require.NoError(t, db.IncUsageCount("glsl", "vc", first))
		require.NoError(t, db.IncUsageCount("wgsl", "box", first))

		usage, err := db.GetUsage("glsl")
		require.NoError(t, err)
		require.Len(t, usage, 2)

		assert.Equal(t, 2, usage["box"].Count)
		assert.True(t, later.Equal(usage["box"].LastUsed), "LastUsed should track the latest use")
		assert.Equal(t, 1, usage["vc"].Count)
		assert.Equal(t, "glsl", usage["vc"].Scope)
	})

	t.Run("Scopes are independent", func(t *testing.T) {
		u, err := db.GetUsageByTrigger("wgsl", "box")
		require.NoError(t, err)
		assert.Equal(t, 1, u.Count)
	})

	t.Run("Set usage", func(t *testing.T) {
		require.NoError(t, db.SetUsage(&Usage{Scope: "glsl", Trigger: "box", Count: 10, LastUsed: first}))
		require.NoError(t, db.SetUsage(&Usage{Scope: "glsl", Trigger: "rot", Count: 5}))

		u, err := db.GetUsageByTrigger("glsl", "box")
		require.NoError(t, err)
		assert.Equal(t, 10, u.Count, "SetUsage should overwrite the count")
		assert.True(t, first.Equal(u.LastUsed))

		u, err = db.GetUsageByTrigger("glsl", "rot")
		require.NoError(t, err)
		assert.Equal(t, 5, u.Count)
		assert.True(t, u.LastUsed.IsZero(), "An unknown time of use should read back as the zero time")
	})

	t.Run("Reset scope", func(t *testing.T) {
		require.NoError(t, db.ResetUsage("glsl"))

		usage, err := db.GetUsage("glsl")
		require.NoError(t, err)
		assert.Empty(t, usage)

		// Other scopes keep their counts.
		u, err := db.GetUsageByTrigger("wgsl", "box")
		require.NoError(t, err)
		assert.Equal(t, 1, u.Count)
	})
}

func TestSQLiteDatabase_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ezsnip.db")

	db, err := NewSQLiteDatabase(dbPath)
	require.NoError(t, err)
	require.NoError(t, db.IncUsageCount("glsl", "fori", time.Unix(1, 0)))
	require.NoError(t, db.Close())

	db, err = NewSQLiteDatabase(dbPath)
	require.NoError(t, err)
	defer db.Close()

	u, err := db.GetUsageByTrigger("glsl", "fori")
	require.NoError(t, err)
	assert.Equal(t, 1, u.Count, "Counts should persist across connections")
}

package cachedb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akzhy/nocojs/internal/store"
)

func TestOpenCreatesSchemaAndVersion(t *testing.T) {
	db, err := Open(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	var version string
	err = db.conn.QueryRow(`SELECT value FROM metadata WHERE key = 'version'`).Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, version)
}

func TestFlushInsertThenSelectAll(t *testing.T) {
	db, err := Open(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	err = db.Flush([]store.PlaceholderRecord{
		{URL: "https://example.test/a.png", Placeholder: "data:...", PreviewType: "normal", CacheKey: "normal_0_0", OriginalWidth: 320, OriginalHeight: 200},
	}, nil)
	require.NoError(t, err)

	rows, err := db.SelectAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "https://example.test/a.png", rows[0].URL)
	assert.Equal(t, uint32(320), rows[0].OriginalWidth)
}

func TestFlushUpdateAppliesInPlace(t *testing.T) {
	db, err := Open(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Flush([]store.PlaceholderRecord{
		{URL: "https://example.test/a.png", Placeholder: "data:old", PreviewType: "normal", CacheKey: "normal_0_0", OriginalWidth: 1, OriginalHeight: 1},
	}, nil))
	rows, err := db.SelectAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	id := rows[0].ID

	require.NoError(t, db.Flush(nil, []store.PlaceholderRecord{
		{ID: id, URL: "https://example.test/a.png", Placeholder: "data:new", PreviewType: "normal", CacheKey: "normal_0_0", OriginalWidth: 2, OriginalHeight: 2},
	}))

	rows, err = db.SelectAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "data:new", rows[0].Placeholder)
}

func TestFlushEmptyIsNoop(t *testing.T) {
	db, err := Open(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Flush(nil, nil))
	rows, err := db.SelectAll()
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestFlushInsertCollisionFails(t *testing.T) {
	db, err := Open(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	rec := store.PlaceholderRecord{URL: "https://example.test/a.png", Placeholder: "data:...", PreviewType: "normal", CacheKey: "normal_0_0"}
	require.NoError(t, db.Flush([]store.PlaceholderRecord{rec}, nil))

	err = db.Flush([]store.PlaceholderRecord{rec}, nil)
	assert.Error(t, err)
}

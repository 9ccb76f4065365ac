package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func exerciseDatabase(t *testing.T, db Database) {
	t.Helper()

	_, err := db.Get([]byte("missing"))
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, db.Put([]byte("a/1"), []byte("one")))
	require.NoError(t, db.Put([]byte("a/2"), []byte("two")))
	require.NoError(t, db.Put([]byte("b/1"), []byte("other")))

	got, err := db.Get([]byte("a/1"))
	require.NoError(t, err)
	require.Equal(t, []byte("one"), got)

	ok, err := db.Has([]byte("a/2"))
	require.NoError(t, err)
	require.True(t, ok)

	var keys []string
	require.NoError(t, db.Iterate([]byte("a/"), func(key, _ []byte) bool {
		keys = append(keys, string(key))
		return true
	}))
	require.Equal(t, []string{"a/1", "a/2"}, keys)

	batch := db.NewBatch()
	batch.Put([]byte("a/3"), []byte("three"))
	batch.Delete([]byte("a/1"))
	require.Equal(t, 2, batch.Len())

	ok, err = db.Has([]byte("a/3"))
	require.NoError(t, err)
	require.False(t, ok, "batch must not apply before Write")

	require.NoError(t, batch.Write())
	ok, err = db.Has([]byte("a/1"))
	require.NoError(t, err)
	require.False(t, ok)
	got, err = db.Get([]byte("a/3"))
	require.NoError(t, err)
	require.Equal(t, []byte("three"), got)

	require.NoError(t, db.Delete([]byte("b/1")))
	_, err = db.Get([]byte("b/1"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemDB(t *testing.T) {
	db := NewMemDB()
	defer db.Close()
	exerciseDatabase(t, db)
}

func TestLevelDB(t *testing.T) {
	db, err := NewLevelDB(t.TempDir())
	require.NoError(t, err)
	defer db.Close()
	exerciseDatabase(t, db)
}

func TestBoltDB(t *testing.T) {
	db, err := NewBoltDB(filepath.Join(t.TempDir(), "state.db"), nil)
	require.NoError(t, err)
	defer db.Close()
	exerciseDatabase(t, db)
}

func TestLevelDBPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	db1, err := NewLevelDB(dir)
	require.NoError(t, err)
	require.NoError(t, db1.Put([]byte("key"), []byte("value")))
	db1.Close()

	db2, err := NewLevelDB(dir)
	require.NoError(t, err)
	defer db2.Close()

	got, err := db2.Get([]byte("key"))
	require.NoError(t, err)
	require.Equal(t, []byte("value"), got)
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open("rocks", "/tmp/x")
	require.Error(t, err)

	db, err := Open("memory", "")
	require.NoError(t, err)
	db.Close()
}

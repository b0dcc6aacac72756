package checkpoint_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/topoblend/pkg/topoblend/checkpoint"
)

type storeFactory func(t *testing.T) checkpoint.Store

// storeContractTest runs contract tests against any Store implementation.
func storeContractTest(t *testing.T, name string, factory storeFactory) {
	t.Run(name+"/Save_and_Load", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		data := []byte(`{"global_time": 10}`)
		require.NoError(t, store.Save("run-1", 10, data))

		loaded, err := store.Load("run-1", 10)
		require.NoError(t, err)
		assert.Equal(t, data, loaded)
	})

	t.Run(name+"/Load_NotFound", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		_, err := store.Load("missing", 0)
		assert.ErrorIs(t, err, checkpoint.ErrNotFound)
	})

	t.Run(name+"/Save_Overwrite", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		require.NoError(t, store.Save("run-1", 5, []byte("first")))
		require.NoError(t, store.Save("run-1", 5, []byte("second")))

		loaded, err := store.Load("run-1", 5)
		require.NoError(t, err)
		assert.Equal(t, []byte("second"), loaded)
	})

	t.Run(name+"/Latest", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		require.NoError(t, store.Save("run-1", 40, []byte("b")))
		require.NoError(t, store.Save("run-1", 80, []byte("c")))
		require.NoError(t, store.Save("run-1", 20, []byte("a")))
		require.NoError(t, store.Save("run-2", 999, []byte("other")))

		data, info, err := store.Latest("run-1")
		require.NoError(t, err)
		assert.Equal(t, []byte("c"), data)
		assert.Equal(t, 80, info.GlobalTime)
		assert.Equal(t, "run-1", info.RunID)
		assert.Equal(t, int64(1), info.Size)
	})

	t.Run(name+"/Latest_NotFound", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		_, _, err := store.Latest("missing")
		assert.ErrorIs(t, err, checkpoint.ErrNotFound)
	})

	t.Run(name+"/List_Ordered", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		infos, err := store.List("run-1")
		require.NoError(t, err)
		assert.Empty(t, infos)

		for _, gt := range []int{30, 10, 20} {
			require.NoError(t, store.Save("run-1", gt, []byte("data")))
		}

		infos, err = store.List("run-1")
		require.NoError(t, err)
		require.Len(t, infos, 3)
		assert.Equal(t, 10, infos[0].GlobalTime)
		assert.Equal(t, 20, infos[1].GlobalTime)
		assert.Equal(t, 30, infos[2].GlobalTime)
		assert.False(t, infos[0].Timestamp.IsZero())
	})

	t.Run(name+"/DeleteRun", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		require.NoError(t, store.Save("run-1", 1, []byte("x")))
		require.NoError(t, store.Save("run-2", 1, []byte("y")))
		require.NoError(t, store.DeleteRun("run-1"))

		infos, err := store.List("run-1")
		require.NoError(t, err)
		assert.Empty(t, infos)

		_, err = store.Load("run-2", 1)
		assert.NoError(t, err)
	})

	t.Run(name+"/Closed", func(t *testing.T) {
		store := factory(t)
		require.NoError(t, store.Close())

		assert.ErrorIs(t, store.Save("run", 1, nil), checkpoint.ErrStoreClosed)
		_, err := store.Load("run", 1)
		assert.ErrorIs(t, err, checkpoint.ErrStoreClosed)
		_, err = store.List("run")
		assert.ErrorIs(t, err, checkpoint.ErrStoreClosed)
	})
}

// TestMemoryStore verifies MemoryStore satisfies the Store contract.
func TestMemoryStore(t *testing.T) {
	storeContractTest(t, "MemoryStore", func(t *testing.T) checkpoint.Store {
		return checkpoint.NewMemoryStore()
	})
}

// TestSQLiteStore verifies SQLiteStore satisfies the Store contract.
func TestSQLiteStore(t *testing.T) {
	storeContractTest(t, "SQLiteStore", func(t *testing.T) checkpoint.Store {
		store, err := checkpoint.NewSQLiteStore(":memory:")
		require.NoError(t, err)
		return store
	})
}

// TestSQLiteStore_Persists verifies checkpoints survive reopening the file.
func TestSQLiteStore_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blend.db")

	store, err := checkpoint.NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Save("run-1", 42, []byte("snapshot")))
	require.NoError(t, store.Close())

	reopened, err := checkpoint.NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	data, info, err := reopened.Latest("run-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("snapshot"), data)
	assert.Equal(t, 42, info.GlobalTime)
}

// TestMemoryStore_CopiesData verifies callers cannot mutate stored bytes.
func TestMemoryStore_CopiesData(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	data := []byte("abc")
	require.NoError(t, store.Save("run", 1, data))
	data[0] = 'z'

	loaded, err := store.Load("run", 1)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), loaded)
	assert.Equal(t, 1, store.Len())
}

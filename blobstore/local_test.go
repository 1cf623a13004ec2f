package blobstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/truthbits/internal/fs"
)

func TestLocalStore(t *testing.T) {
	testBlobStore(t, NewLocalStore(t.TempDir()))
}

func TestLocalStore_Layout(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store := NewLocalStore(root)
	assert.Equal(t, root, store.Root())

	require.NoError(t, store.Put(ctx, "a/b/c.tbb", []byte("x")))
	_, err := os.Stat(filepath.Join(root, "a", "b", "c.tbb"))
	require.NoError(t, err)
}

func TestLocalStore_UncommittedWriteIsInvisible(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir())

	w, err := store.Create(ctx, "pending.tbb")
	require.NoError(t, err)
	_, err = w.Write([]byte("partial"))
	require.NoError(t, err)

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, names)

	_, err = store.Open(ctx, "pending.tbb")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, w.Close())
	names, err = store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"pending.tbb"}, names)
}

func TestLocalStore_MissingRoot(t *testing.T) {
	store := NewLocalStore(filepath.Join(t.TempDir(), "does-not-exist"))
	names, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestLocalStore_RejectsEscapingNames(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir())

	for _, name := range []string{"", "../evil", "/abs"} {
		assert.Error(t, store.Put(ctx, name, []byte("x")), "name %q", name)
	}
}

func TestLocalStore_FailedPutLeavesNothing(t *testing.T) {
	tests := []struct {
		name  string
		fault fs.Fault
	}{
		{"write", fs.Fault{FailAfterBytes: 4}},
		{"sync", fs.Fault{FailOnSync: true}},
		{"close", fs.Fault{FailOnClose: true}},
		{"rename", fs.Fault{FailOnRename: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			root := t.TempDir()
			ffs := fs.NewFaultyFS(nil)
			ffs.AddRule("batch-01", tt.fault)
			store := newLocalStoreFS(root, ffs)

			require.ErrorIs(t, store.Put(ctx, "run/batch-01.tbb", []byte("columns")), fs.ErrInjected)
			require.NoError(t, store.Put(ctx, "run/batch-02.tbb", []byte("columns")))

			names, err := store.List(ctx, "")
			require.NoError(t, err)
			assert.Equal(t, []string{"run/batch-02.tbb"}, names)

			entries, err := os.ReadDir(filepath.Join(root, "run"))
			require.NoError(t, err)
			assert.Len(t, entries, 1, "temporary file is removed")
		})
	}
}

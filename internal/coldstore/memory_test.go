package coldstore

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStore_PutGet(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	err := store.Put(ctx, "2026/08/28/summary.csv", "text/csv", strings.NewReader("a,b\n1,2\n"))
	require.NoError(t, err)

	rc, err := store.Get(ctx, "2026/08/28/summary.csv")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(data))
}

func TestMemStore_GetMissing(t *testing.T) {
	store := NewMemory()

	_, err := store.Get(context.Background(), "nope")
	assert.Error(t, err)
}

func TestMemStore_ListByPrefix(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "2026/08/28/summary.csv", "text/csv", strings.NewReader("x")))
	require.NoError(t, store.Put(ctx, "2026/08/28/anomalies.csv", "text/csv", strings.NewReader("y")))
	require.NoError(t, store.Put(ctx, "2026/08/27/summary.csv", "text/csv", strings.NewReader("z")))

	infos, err := store.List(ctx, "2026/08/28/")
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "2026/08/28/anomalies.csv", infos[0].Key)
	assert.Equal(t, "2026/08/28/summary.csv", infos[1].Key)
}

func TestMemStore_FailPut(t *testing.T) {
	store := NewMemory()
	store.FailPut = assert.AnError

	err := store.Put(context.Background(), "key", "text/csv", strings.NewReader("x"))
	assert.ErrorIs(t, err, assert.AnError)
	assert.Zero(t, store.Len())
}

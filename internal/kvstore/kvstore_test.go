package kvstore

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T, name string) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestItems(t *testing.T) {
	ctx := context.Background()
	s, _ := openTemp(t, "items.db")

	n, err := s.ItemCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, ok, err := s.GetItem(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetItem(ctx, "a", "1"))
	require.NoError(t, s.SetItem(ctx, "a", "2"))
	v, ok, err := s.GetItem(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2", v)

	require.NoError(t, s.SetItem(ctx, "empty", ""))
	v, ok, err = s.GetItem(ctx, "empty")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "", v)

	n, err = s.ItemCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, s.RemoveItem(ctx, "a"))
	require.NoError(t, s.RemoveItem(ctx, "a"))
	_, ok, err = s.GetItem(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Clear(ctx))
	n, err = s.ItemCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestValues(t *testing.T) {
	ctx := context.Background()
	s, _ := openTemp(t, "values.db")

	for k, v := range map[string]string{
		"user_b":    "B",
		"user_a":    "A",
		"User_c":    "C",
		"user%x":    "percent",
		"user_":     "underscore",
		"userXa":    "X",
		"other":     "O",
		"user_a_ok": "AA",
	} {
		require.NoError(t, s.SetItem(ctx, k, v))
	}

	values, err := s.Values(ctx, "user_")
	require.NoError(t, err)
	assert.Equal(t, []string{"underscore", "A", "AA", "B"}, values)

	values, err = s.Values(ctx, "user%")
	require.NoError(t, err)
	assert.Equal(t, []string{"percent"}, values)

	values, err = s.Values(ctx, "nothing")
	require.NoError(t, err)
	assert.Empty(t, values)

	values, err = s.Values(ctx, "")
	require.NoError(t, err)
	assert.Len(t, values, 8)
}

func TestPersistence(t *testing.T) {
	ctx := context.Background()
	s, path := openTemp(t, "persist.db")
	require.NoError(t, s.SetItem(ctx, "k", "v"))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()
	v, ok, err := reopened.GetItem(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	other, _ := openTemp(t, "other.db")
	_, ok, err = other.GetItem(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	s, _ := openTemp(t, "concurrent.db")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.SetItem(ctx, fmt.Sprintf("key_%02d", i), fmt.Sprint(i)))
		}(i)
	}
	wg.Wait()

	n, err := s.ItemCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, n)
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bobby-s-dev/fireguard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleInput = models.ForecastInput{
	Region:            models.RegionOregon,
	Year:              2024,
	FireRisk:          models.FireRiskMedium,
	PopulationDensity: models.PopulationMedium,
}

func TestMemoryStore_GetMissing(t *testing.T) {
	_, err := NewMemoryStore().Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_PutCopiesValue(t *testing.T) {
	s := NewMemoryStore()
	value := []byte(`{"a":1}`)
	require.NoError(t, s.Put(context.Background(), "k", value))
	value[2] = 'b'

	got, err := s.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(got))
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "store.json")
	s := NewFileStore(path)
	ctx := context.Background()

	_, err := s.Get(ctx, LastForecastKey)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put(ctx, "first", []byte(`{"n":1}`)))
	require.NoError(t, s.Put(ctx, "second", []byte(`[1,2,3]`)))
	require.NoError(t, s.Put(ctx, "first", []byte(`{"n":2}`)))

	reopened := NewFileStore(path)
	got, err := reopened.Get(ctx, "first")
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":2}`, string(got))

	got, err = reopened.Get(ctx, "second")
	require.NoError(t, err)
	assert.JSONEq(t, `[1,2,3]`, string(got))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestFileStore_RejectsInvalidJSON(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "store.json"))
	err := s.Put(context.Background(), "k", []byte("not json"))
	require.Error(t, err)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	_, err := NewFileStore(path).Get(context.Background(), LastForecastKey)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestForecastRepository_RoundTrip(t *testing.T) {
	for name, kv := range map[string]KeyValueStore{
		"memory": NewMemoryStore(),
		"file":   NewFileStore(filepath.Join(t.TempDir(), "store.json")),
	} {
		t.Run(name, func(t *testing.T) {
			repo := NewForecastRepository(kv)
			ctx := context.Background()

			_, ok, err := repo.LoadLast(ctx)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, repo.SaveLast(ctx, sampleInput))

			got, ok, err := repo.LoadLast(ctx)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, sampleInput, got)

			raw, err := kv.Get(ctx, LastForecastKey)
			require.NoError(t, err)
			assert.JSONEq(t, `{"region":"Oregon","year":2024,"fireRisk":"Medium","populationDensity":"Medium"}`, string(raw))
		})
	}
}

func TestForecastRepository_UndecodableValue(t *testing.T) {
	kv := NewMemoryStore()
	require.NoError(t, kv.Put(context.Background(), LastForecastKey, []byte(`{"year":"soon"}`)))

	_, ok, err := NewForecastRepository(kv).LoadLast(context.Background())
	require.Error(t, err)
	assert.False(t, ok)
}

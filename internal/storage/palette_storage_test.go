package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/annel0/blockstate/internal/blockstate"
	"github.com/annel0/blockstate/internal/palette"
	"github.com/dgraph-io/badger/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStorage(t *testing.T) *PaletteStorage {
	t.Helper()

	storage, err := NewPaletteStorage(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Не удалось создать хранилище: %v", err)
	}
	t.Cleanup(func() { storage.Close() })
	return storage
}

func testPalette() *palette.Palette {
	p := palette.New()
	p.Index(blockstate.MustParse("minecraft:water[level=3]"))
	p.Index(blockstate.MustParse("minecraft:oak_stairs[facing=east,half=bottom,shape=straight]"))
	p.Index(blockstate.MustParse("minecraft:stone"))
	return p
}

func TestSaveAndLoadPalette(t *testing.T) {
	storage := setupTestStorage(t)
	ctx := context.Background()

	p := testPalette()
	require.NoError(t, storage.SavePalette(ctx, "overworld", p))

	res, err := storage.LoadPalette(ctx, "overworld")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Missing)
	require.Equal(t, p.Len(), res.Palette.Len())

	for i, s := range p.States() {
		assert.True(t, s.Equal(res.Palette.Get(palette.Index(i))), "индекс %d", i)
	}
}

func TestSavePalette_Overwrites(t *testing.T) {
	storage := setupTestStorage(t)
	ctx := context.Background()

	require.NoError(t, storage.SavePalette(ctx, "nether", testPalette()))
	require.NoError(t, storage.SavePalette(ctx, "nether", palette.New()))

	res, err := storage.LoadPalette(ctx, "nether")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Palette.Len())
}

func TestSavePalette_CancelledKeepsPrevious(t *testing.T) {
	storage := setupTestStorage(t)
	require.NoError(t, storage.SavePalette(context.Background(), "w", testPalette()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := storage.SavePalette(ctx, "w", palette.New())
	assert.True(t, errors.Is(err, context.Canceled))

	res, err := storage.LoadPalette(context.Background(), "w")
	require.NoError(t, err)
	assert.Equal(t, testPalette().Len(), res.Palette.Len())
	assert.Equal(t, "minecraft:stone[]", res.Palette.Get(3).String())
}

func TestLoadPalette_NonAirFirstIsCorrupted(t *testing.T) {
	storage := setupTestStorage(t)
	ctx := context.Background()

	require.NoError(t, storage.SavePalette(ctx, "overworld", testPalette()))
	err := storage.db.Update(func(txn *badger.Txn) error {
		return txn.Set(entryKey("overworld", palette.AirIndex), []byte("minecraft:stone[]"))
	})
	require.NoError(t, err)

	_, err = storage.LoadPalette(ctx, "overworld")
	assert.True(t, errors.Is(err, ErrCorrupted))
}

func TestLoadPalette_NotFound(t *testing.T) {
	storage := setupTestStorage(t)

	_, err := storage.LoadPalette(context.Background(), "end")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSavePalette_InvalidWorld(t *testing.T) {
	storage := setupTestStorage(t)

	err := storage.SavePalette(context.Background(), "a/b", palette.New())
	assert.True(t, errors.Is(err, ErrInvalidWorld))
}

func TestLoadPalette_MalformedEntryBecomesMissing(t *testing.T) {
	storage := setupTestStorage(t)
	ctx := context.Background()

	require.NoError(t, storage.SavePalette(ctx, "overworld", testPalette()))

	// портим запись напрямую
	err := storage.db.Update(func(txn *badger.Txn) error {
		return txn.Set(entryKey("overworld", 2), []byte("not a valid]["))
	})
	require.NoError(t, err)

	res, err := storage.LoadPalette(ctx, "overworld")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Missing)
	assert.Same(t, blockstate.Missing, res.Palette.Get(2))
	assert.Equal(t, "minecraft:stone[]", res.Palette.Get(3).String())
}

func TestWorldsAndDelete(t *testing.T) {
	storage := setupTestStorage(t)
	ctx := context.Background()

	require.NoError(t, storage.SavePalette(ctx, "overworld", testPalette()))
	require.NoError(t, storage.SavePalette(ctx, "over", palette.New()))

	worlds, err := storage.Worlds()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"overworld", "over"}, worlds)

	require.NoError(t, storage.DeletePalette("over"))
	worlds, err = storage.Worlds()
	require.NoError(t, err)
	assert.Equal(t, []string{"overworld"}, worlds)
}

func TestClosedStorage(t *testing.T) {
	storage, err := NewPaletteStorage(t.TempDir(), nil)
	require.NoError(t, err)
	require.NoError(t, storage.Close())
	require.NoError(t, storage.Close())

	err = storage.SavePalette(context.Background(), "overworld", palette.New())
	assert.True(t, errors.Is(err, ErrNotReady))
}

func TestInMemoryStorage(t *testing.T) {
	storage, err := NewInMemoryPaletteStorage(nil)
	require.NoError(t, err)
	defer storage.Close()

	ctx := context.Background()
	require.NoError(t, storage.SavePalette(ctx, "overworld", testPalette()))
	res, err := storage.LoadPalette(ctx, "overworld")
	require.NoError(t, err)
	assert.Equal(t, 4, res.Palette.Len())
}

package storage

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/annel0/blockstate/internal/blockstate"
	"github.com/annel0/blockstate/internal/logging"
	"github.com/annel0/blockstate/internal/palette"
	"github.com/dgraph-io/badger/v3"
)

const palettePrefix = "palette/"

// PaletteStorage хранит палитры миров в BadgerDB в каноническом текстовом виде.
// Каждая запись: palette/<world>/<index> -> namespace:path[k=v,...]
type PaletteStorage struct {
	db      *badger.DB
	dbPath  string
	mutex   sync.RWMutex
	isReady bool
	counter palette.FailureCounter
}

// LoadResult результат загрузки палитры
type LoadResult struct {
	Palette *palette.Palette
	// Missing количество записей, замещённых состоянием missing
	Missing int
}

// NewPaletteStorage открывает хранилище в каталоге dataPath.
// counter может быть nil.
func NewPaletteStorage(dataPath string, counter palette.FailureCounter) (*PaletteStorage, error) {
	opts := badger.DefaultOptions(dataPath)
	opts.Logger = nil // Отключаем логирование BadgerDB

	return openStorage(opts, dataPath, counter)
}

// NewInMemoryPaletteStorage создаёт хранилище без диска (для тестов и инструментов)
func NewInMemoryPaletteStorage(counter palette.FailureCounter) (*PaletteStorage, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	return openStorage(opts, "", counter)
}

func openStorage(opts badger.Options, path string, counter palette.FailureCounter) (*PaletteStorage, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	return &PaletteStorage{
		db:      db,
		dbPath:  path,
		isReady: true,
		counter: counter,
	}, nil
}

// Close закрывает хранилище данных
func (ps *PaletteStorage) Close() error {
	ps.mutex.Lock()
	defer ps.mutex.Unlock()

	if !ps.isReady {
		return nil
	}

	ps.isReady = false
	return ps.db.Close()
}

func worldPrefix(world string) []byte {
	return []byte(palettePrefix + world + "/")
}

func entryKey(world string, idx palette.Index) []byte {
	// индекс дополняется нулями, чтобы порядок ключей совпадал с порядком индексов
	return []byte(fmt.Sprintf("%s%s/%010d", palettePrefix, world, idx))
}

// SavePalette перезаписывает палитру мира
func (ps *PaletteStorage) SavePalette(ctx context.Context, world string, p *palette.Palette) error {
	ps.mutex.RLock()
	defer ps.mutex.RUnlock()

	if !ps.isReady {
		return ErrNotReady
	}
	if strings.Contains(world, "/") || world == "" {
		return fmt.Errorf("%w: %q", ErrInvalidWorld, world)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	states := p.States()
	// запись новых индексов и удаление хвоста старой палитры идут одной транзакцией
	err := ps.db.Update(func(txn *badger.Txn) error {
		stale := staleKeys(txn, world, len(states))

		for i, s := range states {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := txn.Set(entryKey(world, palette.Index(i)), []byte(s.String())); err != nil {
				return fmt.Errorf("ошибка записи палитры %s: %w", world, err)
			}
		}
		for _, k := range stale {
			if err := txn.Delete(k); err != nil {
				return fmt.Errorf("ошибка удаления устаревших записей %s: %w", world, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения палитры %s: %w", world, err)
	}

	logging.GetStorageLogger().Debug("Палитра %s сохранена: %d состояний", world, len(states))
	return nil
}

// LoadPalette загружает палитру мира. Неразобранные записи становятся missing,
// позиции остальных сохраняются.
func (ps *PaletteStorage) LoadPalette(ctx context.Context, world string) (*LoadResult, error) {
	ps.mutex.RLock()
	defer ps.mutex.RUnlock()

	if !ps.isReady {
		return nil, ErrNotReady
	}

	var (
		states  []*blockstate.BlockState
		missing int
	)

	err := ps.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = worldPrefix(world)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			item := it.Item()
			idx, err := indexFromKey(item.Key(), len(opts.Prefix))
			if err != nil {
				return err
			}
			if idx != len(states) {
				return fmt.Errorf("%w: пропущен индекс %d в %s", ErrCorrupted, len(states), world)
			}

			err = item.Value(func(val []byte) error {
				s := palette.ParseOrMissing(string(val), ps.counter)
				if s == blockstate.Missing {
					missing++
				}
				states = append(states, s)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки палитры %s: %w", world, err)
	}

	if len(states) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, world)
	}

	if missing > 0 {
		logging.GetStorageLogger().Warn("Палитра %s: %d записей не разобрано", world, missing)
	}

	p, err := palette.FromStates(states)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupted, world, err)
	}

	return &LoadResult{Palette: p, Missing: missing}, nil
}

// DeletePalette удаляет палитру мира
func (ps *PaletteStorage) DeletePalette(world string) error {
	ps.mutex.RLock()
	defer ps.mutex.RUnlock()

	if !ps.isReady {
		return ErrNotReady
	}
	return ps.deleteWorld(world)
}

// Worlds возвращает имена миров, для которых сохранены палитры
func (ps *PaletteStorage) Worlds() ([]string, error) {
	ps.mutex.RLock()
	defer ps.mutex.RUnlock()

	if !ps.isReady {
		return nil, ErrNotReady
	}

	seen := make(map[string]struct{})
	var worlds []string
	err := ps.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(palettePrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			rest := string(it.Item().Key()[len(palettePrefix):])
			world, _, _ := strings.Cut(rest, "/")
			if _, ok := seen[world]; !ok {
				seen[world] = struct{}{}
				worlds = append(worlds, world)
			}
		}
		return nil
	})
	return worlds, err
}

func (ps *PaletteStorage) deleteWorld(world string) error {
	var keys [][]byte
	err := ps.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = worldPrefix(world)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	wb := ps.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			return fmt.Errorf("ошибка удаления палитры %s: %w", world, err)
		}
	}
	return wb.Flush()
}

// staleKeys ключи мира с индексом >= keep
func staleKeys(txn *badger.Txn, world string, keep int) [][]byte {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = worldPrefix(world)
	it := txn.NewIterator(opts)
	defer it.Close()

	var keys [][]byte
	for it.Seek(entryKey(world, palette.Index(keep))); it.Valid(); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	return keys
}

func indexFromKey(k []byte, prefixLen int) (int, error) {
	n, err := strconv.Atoi(string(k[prefixLen:]))
	if err != nil {
		return 0, fmt.Errorf("%w: ключ %q", ErrCorrupted, k)
	}
	return n, nil
}

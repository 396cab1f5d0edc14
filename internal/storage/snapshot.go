package storage

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/annel0/blockstate/internal/blockstate"
	"github.com/annel0/blockstate/internal/palette"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/sync/errgroup"
)

const snapshotMagic = "BSNAP1"

// parseChunk количество строк, разбираемых одной горутиной
const parseChunk = 1024

// maxSnapshotSize предел распакованного снимка в байтах
var maxSnapshotSize uint64 = 256 << 20

// Snapshot переносимый снимок палитры: zstd поверх текста
//
//	BSNAP1 <uuid> <count>
//	minecraft:air[]
//	minecraft:water[level=3]
//	...
type Snapshot struct {
	ID     uuid.UUID
	States []*blockstate.BlockState
	// Missing количество строк, замещённых состоянием missing
	Missing int
}

// EncodeSnapshot сериализует палитру в сжатый снимок
func EncodeSnapshot(p *palette.Palette) ([]byte, uuid.UUID, error) {
	id := uuid.New()
	states := p.States()

	var raw bytes.Buffer
	fmt.Fprintf(&raw, "%s %s %d\n", snapshotMagic, id, len(states))
	for _, s := range states {
		raw.WriteString(s.String())
		raw.WriteByte('\n')
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, uuid.Nil, err
	}
	defer enc.Close()

	return enc.EncodeAll(raw.Bytes(), nil), id, nil
}

// DecodeSnapshot распаковывает снимок и разбирает состояния параллельно.
func DecodeSnapshot(ctx context.Context, data []byte, counter palette.FailureCounter) (*Snapshot, error) {
	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxSnapshotSize))
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	raw, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
	}

	sc := bufio.NewScanner(bytes.NewReader(raw))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	if !sc.Scan() {
		return nil, fmt.Errorf("%w: нет заголовка", ErrBadSnapshot)
	}

	id, count, err := parseHeader(sc.Text())
	if err != nil {
		return nil, err
	}

	lines := make([]string, 0, min(count, 1<<16))
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
	}
	if len(lines) != count {
		return nil, fmt.Errorf("%w: ожидалось %d состояний, получено %d", ErrBadSnapshot, count, len(lines))
	}

	states := make([]*blockstate.BlockState, len(lines))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for start := 0; start < len(lines); start += parseChunk {
		end := min(start+parseChunk, len(lines))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				states[i] = palette.ParseOrMissing(lines[i], counter)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(states) > 0 && !states[0].Equal(blockstate.Air) {
		return nil, fmt.Errorf("%w: первая строка %q, ожидался воздух", ErrBadSnapshot, lines[0])
	}

	missing := 0
	for _, s := range states {
		if s == blockstate.Missing {
			missing++
		}
	}

	return &Snapshot{ID: id, States: states, Missing: missing}, nil
}

func parseHeader(line string) (uuid.UUID, int, error) {
	fields := strings.Fields(line)
	if len(fields) != 3 || fields[0] != snapshotMagic {
		return uuid.Nil, 0, fmt.Errorf("%w: заголовок %q", ErrBadSnapshot, line)
	}

	id, err := uuid.Parse(fields[1])
	if err != nil {
		return uuid.Nil, 0, fmt.Errorf("%w: id: %v", ErrBadSnapshot, err)
	}

	count, err := strconv.Atoi(fields[2])
	if err != nil || count < 0 {
		return uuid.Nil, 0, fmt.Errorf("%w: количество %q", ErrBadSnapshot, fields[2])
	}
	return id, count, nil
}

// ExportSnapshot загружает палитру мира и упаковывает её в снимок
func (ps *PaletteStorage) ExportSnapshot(ctx context.Context, world string) ([]byte, uuid.UUID, error) {
	res, err := ps.LoadPalette(ctx, world)
	if err != nil {
		return nil, uuid.Nil, err
	}
	return EncodeSnapshot(res.Palette)
}

// ImportSnapshot разбирает снимок и сохраняет его как палитру мира
func (ps *PaletteStorage) ImportSnapshot(ctx context.Context, world string, data []byte) (*Snapshot, error) {
	snap, err := DecodeSnapshot(ctx, data, ps.counter)
	if err != nil {
		return nil, err
	}
	p, err := palette.FromStates(snap.States)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
	}
	if err := ps.SavePalette(ctx, world, p); err != nil {
		return nil, err
	}
	return snap, nil
}

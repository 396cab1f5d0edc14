package palette

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/annel0/blockstate/internal/blockstate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCounter struct {
	mu      sync.Mutex
	ok, bad int
}

func (c *countingCounter) ParseFailed() {
	c.mu.Lock()
	c.bad++
	c.mu.Unlock()
}

func (c *countingCounter) ParseSucceeded() {
	c.mu.Lock()
	c.ok++
	c.mu.Unlock()
}

func TestPalette_AirIsZero(t *testing.T) {
	p := New()
	assert.Equal(t, 1, p.Len())
	assert.True(t, p.Get(AirIndex).IsAir())
	assert.Equal(t, AirIndex, p.Index(blockstate.MustParse("minecraft:air")))
}

func TestPalette_DedupByEquality(t *testing.T) {
	p := New()

	a := blockstate.MustParse("minecraft:oak_stairs[facing=east,half=bottom]")
	b := blockstate.MustParse("minecraft:oak_stairs[half=bottom,facing=east]")

	ia := p.Index(a)
	ib := p.Index(b)
	assert.Equal(t, ia, ib)
	assert.Equal(t, 2, p.Len())
	assert.Same(t, a, p.Canonical(b), "должен возвращаться первый зарегистрированный экземпляр")

	ic := p.Index(blockstate.MustParse("minecraft:oak_stairs[facing=west,half=bottom]"))
	assert.NotEqual(t, ia, ic)
}

func TestPalette_Lookup(t *testing.T) {
	p := New()
	s := blockstate.MustParse("minecraft:stone")

	_, ok := p.Lookup(s)
	assert.False(t, ok)

	idx := p.Index(s)
	got, ok := p.Lookup(blockstate.MustParse("minecraft:stone[]"))
	assert.True(t, ok)
	assert.Equal(t, idx, got)
}

func TestPalette_GetUnknownIsMissing(t *testing.T) {
	p := New()
	assert.Same(t, blockstate.Missing, p.Get(Index(100)))
}

func TestPalette_States(t *testing.T) {
	p := New()
	p.Index(blockstate.Water)

	states := p.States()
	require.Len(t, states, 2)
	assert.True(t, states[1].IsWater())
}

func TestPalette_Concurrent(t *testing.T) {
	p := New()

	var wg sync.WaitGroup
	results := make([][]Index, 8)
	for w := range results {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				s := blockstate.MustParse(fmt.Sprintf("minecraft:water[level=%d]", i%16))
				results[w] = append(results[w], p.Index(s))
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, 17, p.Len())
	for w := 1; w < len(results); w++ {
		assert.Equal(t, results[0], results[w])
	}
}

func TestParseOrMissing(t *testing.T) {
	c := &countingCounter{}

	s := ParseOrMissing("minecraft:water[level=2]", c)
	assert.Equal(t, 2, s.LiquidLevel())

	for i := 0; i < 3; i++ {
		assert.Same(t, blockstate.Missing, ParseOrMissing("not a valid][", c))
	}
	assert.Equal(t, 1, c.ok)
	assert.Equal(t, 3, c.bad)

	// без счётчика тоже работает
	assert.Same(t, blockstate.Missing, ParseOrMissing("", nil))
}

func TestParseIndex(t *testing.T) {
	p := New()
	idx := p.ParseIndex("broken[", nil)
	assert.True(t, p.Get(idx).Equal(blockstate.Missing))
}

func TestFromStates_KeepsPositions(t *testing.T) {
	states := []*blockstate.BlockState{
		blockstate.Air,
		blockstate.Missing,
		blockstate.MustParse("minecraft:stone"),
		blockstate.Missing,
	}
	p, err := FromStates(states)
	require.NoError(t, err)

	assert.Equal(t, 4, p.Len())
	assert.Same(t, states[2], p.Get(2))
	assert.Equal(t, Index(1), p.Index(blockstate.Missing))

	empty, err := FromStates(nil)
	require.NoError(t, err)
	assert.Equal(t, 1, empty.Len())
	assert.True(t, empty.Get(AirIndex).IsAir())
}

func TestFromStates_RequiresAirFirst(t *testing.T) {
	for _, first := range []*blockstate.BlockState{
		blockstate.MustParse("minecraft:stone"),
		blockstate.Missing,
		blockstate.MustParse("minecraft:cave_air"),
	} {
		_, err := FromStates([]*blockstate.BlockState{first, blockstate.Air})
		assert.True(t, errors.Is(err, ErrAirIndex), "%s", first)
	}
}

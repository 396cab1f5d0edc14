package palette

import (
	"errors"
	"fmt"
	"sync"

	"github.com/annel0/blockstate/internal/blockstate"
)

// Index номер состояния в палитре
type Index uint32

// AirIndex всегда указывает на minecraft:air
const AirIndex Index = 0

// ErrAirIndex под индексом 0 лежит не воздух
var ErrAirIndex = errors.New("индекс 0 палитры должен быть minecraft:air")

// Palette сопоставляет каждому различному состоянию блока плотный индекс.
// Равные (Equal) состояния получают один индекс и один общий экземпляр.
type Palette struct {
	mu      sync.RWMutex
	states  []*blockstate.BlockState
	buckets map[uint64][]Index // Hash -> индексы с этим хешем
}

// New создаёт палитру с воздухом под индексом 0
func New() *Palette {
	p := &Palette{
		states:  make([]*blockstate.BlockState, 0, 64),
		buckets: make(map[uint64][]Index),
	}
	p.add(blockstate.Air)
	return p
}

// Lookup ищет индекс состояния без регистрации
func (p *Palette) Lookup(s *blockstate.BlockState) (Index, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.find(s)
}

// Index возвращает индекс состояния, регистрируя его при первом появлении
func (p *Palette) Index(s *blockstate.BlockState) Index {
	p.mu.RLock()
	idx, ok := p.find(s)
	p.mu.RUnlock()
	if ok {
		return idx
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Проверяем еще раз на случай race condition
	if idx, ok := p.find(s); ok {
		return idx
	}
	return p.add(s)
}

// Canonical возвращает общий экземпляр, равный s
func (p *Palette) Canonical(s *blockstate.BlockState) *blockstate.BlockState {
	return p.Get(p.Index(s))
}

// Get возвращает состояние по индексу. Неизвестный индекс даёт Missing.
func (p *Palette) Get(idx Index) *blockstate.BlockState {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if int(idx) >= len(p.states) {
		return blockstate.Missing
	}
	return p.states[idx]
}

// Len возвращает количество состояний в палитре
func (p *Palette) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.states)
}

// States возвращает копию списка состояний в порядке индексов
func (p *Palette) States() []*blockstate.BlockState {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]*blockstate.BlockState, len(p.states))
	copy(out, p.states)
	return out
}

func (p *Palette) find(s *blockstate.BlockState) (Index, bool) {
	for _, idx := range p.buckets[s.Hash()] {
		if p.states[idx].Equal(s) {
			return idx, true
		}
	}
	return 0, false
}

func (p *Palette) add(s *blockstate.BlockState) Index {
	idx := Index(len(p.states))
	p.states = append(p.states, s)
	h := s.Hash()
	p.buckets[h] = append(p.buckets[h], idx)
	return idx
}

// FromStates восстанавливает палитру с сохранением позиций.
// Повторяющиеся состояния допустимы: поиск возвращает первый индекс.
// Первым состоянием должен быть minecraft:air.
func FromStates(states []*blockstate.BlockState) (*Palette, error) {
	if len(states) == 0 {
		return New(), nil
	}
	if !states[0].Equal(blockstate.Air) {
		return nil, fmt.Errorf("%w: %s", ErrAirIndex, states[0])
	}

	p := &Palette{
		states:  make([]*blockstate.BlockState, 0, len(states)),
		buckets: make(map[uint64][]Index),
	}
	for _, s := range states {
		p.add(s)
	}
	return p, nil
}

// Package blockstate описывает состояние блока: идентификатор плюс набор
// строковых свойств. Значение неизменяемо и безопасно для одновременного
// чтения из любого числа горутин рендера; равенство и хеш структурные,
// поэтому состояния можно использовать как ключи кешей и палитр.
package blockstate

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/annel0/blockstate/internal/intern"
	"github.com/annel0/blockstate/internal/key"
	"github.com/cespare/xxhash/v2"
)

// Имена свойств с быстрым доступом
const (
	PropertyWaterlogged = "waterlogged"
	PropertyLevel       = "level"
	PropertyPower       = "power"
)

const maxLevel = 15

const (
	flagAir uint8 = 1 << iota
	flagWater
	flagWaterlogged
)

// Часто используемые состояния
var (
	Air     = New(key.Air)
	Water   = New(key.Water)
	Missing = New(key.Missing)
)

// BlockState неизменяемое состояние блока.
// Передаётся только по указателю: внутри лежат ячейки мемоизации.
type BlockState struct {
	id    key.Key
	props Properties
	flags uint8

	hash          hashCell
	liquidLevel   levelCell
	redstonePower levelCell
}

// New создаёт состояние из идентификатора и свойств.
// При повторе ключа побеждает последнее значение.
func New(id key.Key, props ...Property) *BlockState {
	return NewWith(intern.Default(), id, props...)
}

// NewWith как New, но интернирует свойства в указанном интернере.
func NewWith(in *intern.Interner, id key.Key, props ...Property) *BlockState {
	return newState(id, buildProperties(in, props))
}

// FromMap создаёт состояние из map. Порядок итерации — по возрастанию ключей.
func FromMap(id key.Key, m map[string]string) *BlockState {
	props := make([]Property, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		props = append(props, Property{Key: k, Value: m[k]})
	}
	return New(id, props...)
}

func newState(id key.Key, props Properties) *BlockState {
	s := &BlockState{id: id, props: props}

	if id.Equal(key.Air) || id.Equal(key.CaveAir) || id.Equal(key.VoidAir) {
		s.flags |= flagAir
	}
	if id.Equal(key.Water) {
		s.flags |= flagWater
	}
	if v, ok := props.Get(PropertyWaterlogged); ok && v == "true" {
		s.flags |= flagWaterlogged
	}
	return s
}

// ID возвращает идентификатор блока.
func (s *BlockState) ID() key.Key {
	return s.id
}

// Properties возвращает свойства только для чтения.
//
// Например:
//
//	facing = east
//	half = bottom
func (s *BlockState) Properties() Properties {
	return s.props
}

// Property возвращает значение одного свойства.
func (s *BlockState) Property(k string) (string, bool) {
	return s.props.Get(k)
}

func (s *BlockState) IsAir() bool         { return s.flags&flagAir != 0 }
func (s *BlockState) IsWater() bool       { return s.flags&flagWater != 0 }
func (s *BlockState) IsWaterlogged() bool { return s.flags&flagWaterlogged != 0 }

// LiquidLevel возвращает уровень жидкости 0..15.
// Отсутствующее или нечисловое свойство level даёт 0.
func (s *BlockState) LiquidLevel() int {
	return s.liquidLevel.get(func() int {
		v, ok := s.props.Get(PropertyLevel)
		if !ok {
			return 0
		}
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return 0
		}
		return clampLevel(n)
	})
}

// RedstonePower возвращает силу сигнала 0..15.
// Отсутствующее свойство power даёт 0, нечисловое даёт 15.
func (s *BlockState) RedstonePower() int {
	return s.redstonePower.get(func() int {
		v, ok := s.props.Get(PropertyPower)
		if !ok {
			return 0
		}
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return maxLevel
		}
		return clampLevel(n)
	})
}

func clampLevel(n int64) int {
	if n > maxLevel {
		return maxLevel
	}
	if n < 0 {
		return 0
	}
	return int(n)
}

// Equal сравнивает идентификатор и отсортированные свойства.
func (s *BlockState) Equal(other *BlockState) bool {
	if s == other {
		return true
	}
	if s == nil || other == nil {
		return false
	}
	if !s.id.Equal(other.id) {
		return false
	}

	a, b := s.props.sorted, other.props.sorted
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Hash возвращает структурный хеш, согласованный с Equal.
// Вычисляется один раз.
func (s *BlockState) Hash() uint64 {
	return s.hash.get(s.computeHash)
}

func (s *BlockState) computeHash() uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(s.id.Namespace())
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(s.id.Value())
	for _, p := range s.props.sorted {
		_, _ = d.Write([]byte{0})
		_, _ = d.WriteString(p.Key)
		_, _ = d.Write([]byte{'='})
		_, _ = d.WriteString(p.Value)
	}
	return d.Sum64()
}

// String возвращает каноническую строку namespace:path[k=v,...].
// Свойства идут в порядке вставки; скобки пишутся всегда.
func (s *BlockState) String() string {
	var b strings.Builder
	b.WriteString(s.id.String())
	b.WriteByte('[')
	for i, p := range s.props.ordered {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(p.Key)
		b.WriteByte('=')
		b.WriteString(p.Value)
	}
	b.WriteByte(']')
	return b.String()
}

// MarshalText позволяет использовать состояние в JSON/YAML как строку.
func (s *BlockState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

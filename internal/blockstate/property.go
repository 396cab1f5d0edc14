package blockstate

import (
	"iter"
	"sort"
	"strings"

	"github.com/annel0/blockstate/internal/intern"
)

// Property пара ключ=значение состояния блока.
type Property struct {
	Key   string
	Value string
}

// NewProperty создаёт свойство с интернированными ключом и значением.
func NewProperty(k, v string) Property {
	return internProperty(intern.Default(), k, v)
}

func internProperty(in *intern.Interner, k, v string) Property {
	return Property{Key: in.Intern(k), Value: in.Intern(v)}
}

// Compare упорядочивает свойства сначала по ключу, затем по значению.
func (p Property) Compare(o Property) int {
	if c := strings.Compare(p.Key, o.Key); c != 0 {
		return c
	}
	return strings.Compare(p.Value, o.Value)
}

func (p Property) String() string {
	return p.Key + "=" + p.Value
}

// Properties неизменяемое представление свойств состояния.
// Итерация идёт в порядке вставки, поиск по отсортированной копии.
type Properties struct {
	ordered []Property
	sorted  []Property
}

// Len возвращает количество свойств.
func (p Properties) Len() int {
	return len(p.ordered)
}

// Get возвращает значение свойства по ключу.
func (p Properties) Get(k string) (string, bool) {
	i := sort.Search(len(p.sorted), func(i int) bool { return p.sorted[i].Key >= k })
	if i < len(p.sorted) && p.sorted[i].Key == k {
		return p.sorted[i].Value, true
	}
	return "", false
}

// All перебирает свойства в порядке вставки.
func (p Properties) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, prop := range p.ordered {
			if !yield(prop.Key, prop.Value) {
				return
			}
		}
	}
}

// Keys возвращает ключи в порядке вставки.
func (p Properties) Keys() []string {
	keys := make([]string, len(p.ordered))
	for i, prop := range p.ordered {
		keys[i] = prop.Key
	}
	return keys
}

// Sorted возвращает копию свойств в каноническом порядке.
func (p Properties) Sorted() []Property {
	out := make([]Property, len(p.sorted))
	copy(out, p.sorted)
	return out
}

// Map возвращает копию свойств в виде map.
func (p Properties) Map() map[string]string {
	m := make(map[string]string, len(p.ordered))
	for _, prop := range p.ordered {
		m[prop.Key] = prop.Value
	}
	return m
}

// buildProperties интернирует свойства, схлопывает повторяющиеся ключи
// (побеждает последнее значение, позиция остаётся первой) и строит отсортированный вид.
func buildProperties(in *intern.Interner, props []Property) Properties {
	if len(props) == 0 {
		return Properties{}
	}

	ordered := make([]Property, 0, len(props))
	for _, p := range props {
		p = internProperty(in, p.Key, p.Value)
		replaced := false
		for i := range ordered {
			if ordered[i].Key == p.Key {
				ordered[i].Value = p.Value
				replaced = true
				break
			}
		}
		if !replaced {
			ordered = append(ordered, p)
		}
	}

	sortedAlready := sort.SliceIsSorted(ordered, func(i, j int) bool {
		return ordered[i].Compare(ordered[j]) < 0
	})
	if sortedAlready {
		return Properties{ordered: ordered, sorted: ordered}
	}

	sorted := make([]Property, len(ordered))
	copy(sorted, ordered)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Compare(sorted[j]) < 0
	})
	return Properties{ordered: ordered, sorted: sorted}
}

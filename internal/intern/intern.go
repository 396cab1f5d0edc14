package intern

import (
	"sync"
	"sync/atomic"
)

// Interner хранит канонические экземпляры строк.
// Равные строки после Intern разделяют один и тот же буфер, поэтому
// миллионы одинаковых свойств блоков не дублируются в памяти.
//
// Таблица только растёт: удаления не предусмотрено.
type Interner struct {
	table sync.Map // string -> string
	size  atomic.Int64
}

// New создаёт изолированный интернер (используется в тестах и инструментах).
func New() *Interner {
	return &Interner{}
}

var defaultInterner = New()

// Default возвращает общий для процесса интернер.
func Default() *Interner {
	return defaultInterner
}

// Intern возвращает канонический экземпляр строки s.
func (in *Interner) Intern(s string) string {
	if v, ok := in.table.Load(s); ok {
		return v.(string)
	}
	// Клонируем, чтобы не удерживать в таблице больший буфер, из которого s была вырезана
	c := cloneString(s)
	v, loaded := in.table.LoadOrStore(c, c)
	if !loaded {
		in.size.Add(1)
	}
	return v.(string)
}

// Len возвращает количество уникальных строк в таблице.
func (in *Interner) Len() int {
	return int(in.size.Load())
}

func cloneString(s string) string {
	if s == "" {
		return ""
	}
	b := make([]byte, len(s))
	copy(b, s)
	return string(b)
}

package palette

import (
	"github.com/annel0/blockstate/internal/blockstate"
	"github.com/annel0/blockstate/internal/logging"
)

// FailureCounter получает уведомления о неразобранных строках
type FailureCounter interface {
	ParseFailed()
	ParseSucceeded()
}

// ParseOrMissing разбирает текст из внешних данных (мир, конфигурация).
// При ошибке пишет одно предупреждение на текст и возвращает Missing,
// чтобы рендер не прерывался.
func ParseOrMissing(text string, counter FailureCounter) *blockstate.BlockState {
	s, err := blockstate.Parse(text)
	if err != nil {
		if counter != nil {
			counter.ParseFailed()
		}
		logging.GetParserLogger().NoFloodWarn(text, "⚠️ %v, используется %s", err, blockstate.Missing)
		return blockstate.Missing
	}
	if counter != nil {
		counter.ParseSucceeded()
	}
	return s
}

// ParseIndex разбирает текст и регистрирует результат в палитре
func (p *Palette) ParseIndex(text string, counter FailureCounter) Index {
	return p.Index(ParseOrMissing(text, counter))
}

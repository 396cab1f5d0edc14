package middleware

import "github.com/gin-gonic/gin"

const outcomeKey = "blockstate_outcome"

// CacheHeader заголовок ответа снимка: HIT или MISS
const CacheHeader = "X-Cache"

// ParseOutcome итог разбора состояний в одном запросе
type ParseOutcome struct {
	Parsed int
	Failed int
}

// SetParseOutcome сохраняет итог разбора для метрик и журнала запросов
func SetParseOutcome(c *gin.Context, parsed, failed int) {
	c.Set(outcomeKey, ParseOutcome{Parsed: parsed, Failed: failed})
}

// GetParseOutcome возвращает итог, если обработчик его выставил
func GetParseOutcome(c *gin.Context) (ParseOutcome, bool) {
	v, ok := c.Get(outcomeKey)
	if !ok {
		return ParseOutcome{}, false
	}
	o, ok := v.(ParseOutcome)
	return o, ok
}

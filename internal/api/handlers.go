package api

import (
	"errors"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/annel0/blockstate/internal/blockstate"
	"github.com/annel0/blockstate/internal/cache"
	"github.com/annel0/blockstate/internal/middleware"
	"github.com/annel0/blockstate/internal/palette"
	"github.com/annel0/blockstate/internal/storage"
	"github.com/gin-gonic/gin"
)

// maxNormalizeBatch ограничивает размер запроса нормализации
const maxNormalizeBatch = 10000

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// StateView описание состояния блока в ответах API
type StateView struct {
	ID            string            `json:"id"`
	Properties    map[string]string `json:"properties"`
	Canonical     string            `json:"canonical"`
	Hash          string            `json:"hash"`
	PaletteIndex  *palette.Index    `json:"palette_index,omitempty"`
	IsAir         bool              `json:"is_air"`
	IsWater       bool              `json:"is_water"`
	IsWaterlogged bool              `json:"is_waterlogged"`
	LiquidLevel   int               `json:"liquid_level"`
	RedstonePower int               `json:"redstone_power"`
}

// NormalizeRequest запрос нормализации списка строк
type NormalizeRequest struct {
	States []string `json:"states" binding:"required"`
}

// NormalizeResult результат для одной строки
type NormalizeResult struct {
	Input     string `json:"input"`
	Canonical string `json:"canonical,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (rs *RestServer) view(s *blockstate.BlockState) StateView {
	v := StateView{
		ID:            s.ID().String(),
		Properties:    s.Properties().Map(),
		Canonical:     s.String(),
		Hash:          strconv.FormatUint(s.Hash(), 16),
		IsAir:         s.IsAir(),
		IsWater:       s.IsWater(),
		IsWaterlogged: s.IsWaterlogged(),
		LiquidLevel:   s.LiquidLevel(),
		RedstonePower: s.RedstonePower(),
	}
	// запрос на чтение не регистрирует состояние в палитре
	if idx, ok := rs.palette.Lookup(s); ok {
		v.PaletteIndex = &idx
	}
	return v
}

func (rs *RestServer) countParse(err error) {
	if rs.counter == nil {
		return
	}
	if err != nil {
		rs.counter.ParseFailed()
	} else {
		rs.counter.ParseSucceeded()
	}
}

// handleParse разбирает ?state= и возвращает описание состояния
func (rs *RestServer) handleParse(c *gin.Context) {
	text, ok := c.GetQuery("state")
	if !ok {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Отсутствует параметр state",
		})
		return
	}

	s, err := blockstate.ParseWith(rs.interner, text)
	rs.countParse(err)
	if err != nil {
		middleware.SetParseOutcome(c, 0, 1)
		c.JSON(http.StatusUnprocessableEntity, GenericResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	middleware.SetParseOutcome(c, 1, 0)
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "ok",
		Data:    rs.view(s),
	})
}

// handleNormalize приводит список строк к каноническому виду
func (rs *RestServer) handleNormalize(c *gin.Context) {
	var req NormalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверный формат запроса",
		})
		return
	}
	if len(req.States) > maxNormalizeBatch {
		c.JSON(http.StatusRequestEntityTooLarge, GenericResponse{
			Success: false,
			Message: "Слишком много состояний в запросе",
		})
		return
	}

	results := make([]NormalizeResult, len(req.States))
	failed := 0
	for i, text := range req.States {
		results[i].Input = text
		s, err := blockstate.ParseWith(rs.interner, text)
		rs.countParse(err)
		if err != nil {
			results[i].Error = err.Error()
			failed++
			continue
		}
		results[i].Canonical = rs.palette.Canonical(s).String()
	}
	middleware.SetParseOutcome(c, len(req.States)-failed, failed)

	c.JSON(http.StatusOK, GenericResponse{
		Success: failed == 0,
		Message: strconv.Itoa(failed) + " ошибок",
		Data:    results,
	})
}

// handlePalette возвращает текущую палитру в порядке индексов
func (rs *RestServer) handlePalette(c *gin.Context) {
	states := rs.palette.States()
	out := make([]string, len(states))
	for i, s := range states {
		out[i] = s.String()
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "ok",
		Data:    out,
	})
}

// handleSnapshot отдаёт сжатый снимок палитры мира: сначала из кеша, затем из хранилища
func (rs *RestServer) handleSnapshot(c *gin.Context) {
	world := c.Param("world")
	ctx := c.Request.Context()

	if rs.cache != nil {
		data, err := rs.cache.Get(ctx, world)
		if err == nil {
			c.Header(middleware.CacheHeader, "HIT")
			c.Data(http.StatusOK, "application/zstd", data)
			return
		}
		if !cache.IsCacheMiss(err) {
			rs.log.Warn("Ошибка кеша снимков для %s: %v", world, err)
		}
	}

	if rs.storage == nil {
		c.JSON(http.StatusServiceUnavailable, GenericResponse{
			Success: false,
			Message: "Хранилище не настроено",
		})
		return
	}

	data, _, err := rs.storage.ExportSnapshot(ctx, world)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, GenericResponse{
			Success: false,
			Message: "Палитра не найдена",
		})
		return
	}
	if err != nil {
		rs.log.Error("Ошибка экспорта палитры %s: %v", world, err)
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Внутренняя ошибка сервера",
		})
		return
	}

	if rs.cache != nil {
		if err := rs.cache.Set(ctx, world, data, rs.cacheTTL); err != nil {
			rs.log.Warn("Не удалось закешировать снимок %s: %v", world, err)
		}
	}

	c.Header(middleware.CacheHeader, "MISS")
	c.Data(http.StatusOK, "application/zstd", data)
}

// handleStats возвращает статистику палитры, интернера и процесса
func (rs *RestServer) handleStats(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := gin.H{
		"palette_states":   rs.palette.Len(),
		"interned_strings": rs.interner.Len(),
		"uptime":           time.Since(rs.started).Round(time.Second).String(),
		"heap_alloc_mb":    float64(m.HeapAlloc) / 1024 / 1024,
		"goroutines":       runtime.NumGoroutine(),
	}
	if rs.cache != nil {
		stats["cache"] = rs.cache.Metrics()
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "ok",
		Data:    stats,
	})
}

// handleHealth проверка работоспособности
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/annel0/blockstate/internal/blockstate"
	"github.com/annel0/blockstate/internal/cache"
	"github.com/annel0/blockstate/internal/palette"
	"github.com/annel0/blockstate/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type response struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func do(t *testing.T, h http.Handler, method, path string, body []byte) (*httptest.ResponseRecorder, response) {
	t.Helper()
	w := httptest.NewRecorder()
	req, err := http.NewRequest(method, path, bytes.NewReader(body))
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	h.ServeHTTP(w, req)

	var resp response
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func newTestServer(t *testing.T, cfg Config) *RestServer {
	t.Helper()
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}
	return NewRestServer(cfg)
}

func TestHandleParse(t *testing.T) {
	rs := newTestServer(t, Config{})

	q := url.Values{"state": {"minecraft:water[level=99]"}}
	w, resp := do(t, rs.Handler(), "GET", "/api/blockstate?"+q.Encode(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)

	var view StateView
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	assert.Equal(t, "minecraft:water", view.ID)
	assert.True(t, view.IsWater)
	assert.Equal(t, 15, view.LiquidLevel)
	assert.Equal(t, "minecraft:water[level=99]", view.Canonical)
	assert.Nil(t, view.PaletteIndex)
	assert.Equal(t, 1, rs.palette.Len())
}

func TestHandleParse_KnownStateHasIndex(t *testing.T) {
	p := palette.New()
	stone := p.Index(blockstate.MustParse("minecraft:stone"))
	rs := newTestServer(t, Config{Palette: p})

	q := url.Values{"state": {"minecraft:stone"}}
	w, resp := do(t, rs.Handler(), "GET", "/api/blockstate?"+q.Encode(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var view StateView
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	require.NotNil(t, view.PaletteIndex)
	assert.Equal(t, stone, *view.PaletteIndex)
	assert.Equal(t, 2, p.Len())
}

func TestHandleParse_Errors(t *testing.T) {
	rs := newTestServer(t, Config{})

	w, _ := do(t, rs.Handler(), "GET", "/api/blockstate", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	q := url.Values{"state": {"not a valid]["}}
	w, resp := do(t, rs.Handler(), "GET", "/api/blockstate?"+q.Encode(), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "could not be parsed")
}

func TestHandleNormalize(t *testing.T) {
	p := palette.New()
	rs := newTestServer(t, Config{Palette: p})

	body, _ := json.Marshal(NormalizeRequest{States: []string{
		"minecraft:oak_stairs[half=bottom,facing=east]",
		"minecraft:oak_stairs[facing=east,half=bottom]",
		"broken[",
	}})
	w, resp := do(t, rs.Handler(), "POST", "/api/blockstate/normalize", body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, resp.Success)

	var results []NormalizeResult
	require.NoError(t, json.Unmarshal(resp.Data, &results))
	require.Len(t, results, 3)
	// оба варианта приводятся к первому зарегистрированному экземпляру
	assert.Equal(t, "minecraft:oak_stairs[half=bottom,facing=east]", results[0].Canonical)
	assert.Equal(t, results[0].Canonical, results[1].Canonical)
	assert.NotEmpty(t, results[2].Error)
	assert.Equal(t, 2, p.Len())

	w, _ = do(t, rs.Handler(), "POST", "/api/blockstate/normalize", []byte("{"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandlePalette(t *testing.T) {
	p := palette.New()
	p.Index(blockstate.Water)
	rs := newTestServer(t, Config{Palette: p})

	_, resp := do(t, rs.Handler(), "GET", "/api/palette", nil)
	var states []string
	require.NoError(t, json.Unmarshal(resp.Data, &states))
	assert.Equal(t, []string{"minecraft:air[]", "minecraft:water[]"}, states)
}

func TestHandleSnapshot_CacheThroughStorage(t *testing.T) {
	ps, err := storage.NewPaletteStorage(t.TempDir(), nil)
	require.NoError(t, err)
	defer ps.Close()

	p := palette.New()
	p.Index(blockstate.MustParse("minecraft:stone"))
	require.NoError(t, ps.SavePalette(context.Background(), "overworld", p))

	c := cache.NewMemorySnapshotCache()
	rs := newTestServer(t, Config{Storage: ps, Cache: c})

	w, _ := do(t, rs.Handler(), "GET", "/api/palette/overworld/snapshot", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	first := w.Body.Bytes()

	snap, err := storage.DecodeSnapshot(context.Background(), first, nil)
	require.NoError(t, err)
	assert.Len(t, snap.States, 2)

	w, _ = do(t, rs.Handler(), "GET", "/api/palette/overworld/snapshot", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	assert.Equal(t, first, w.Body.Bytes())

	w, _ = do(t, rs.Handler(), "GET", "/api/palette/end/snapshot", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleSnapshot_NoStorage(t *testing.T) {
	rs := newTestServer(t, Config{})
	w, _ := do(t, rs.Handler(), "GET", "/api/palette/overworld/snapshot", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHealthStatsAndMetrics(t *testing.T) {
	rs := newTestServer(t, Config{Cache: cache.NewMemorySnapshotCache()})

	w, _ := do(t, rs.Handler(), "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, resp := do(t, rs.Handler(), "GET", "/api/stats", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(resp.Data), "palette_states")
	assert.Contains(t, string(resp.Data), "hit_ratio")

	w, _ = do(t, rs.Handler(), "GET", "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "blockstate_api_http_request_duration_seconds")
}

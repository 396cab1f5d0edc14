package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/annel0/blockstate/internal/cache"
	"github.com/annel0/blockstate/internal/intern"
	"github.com/annel0/blockstate/internal/logging"
	"github.com/annel0/blockstate/internal/middleware"
	"github.com/annel0/blockstate/internal/palette"
	"github.com/annel0/blockstate/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// RestServer HTTP API для разбора и нормализации состояний блоков
type RestServer struct {
	router   *gin.Engine
	server   *http.Server
	palette  *palette.Palette
	storage  *storage.PaletteStorage
	cache    cache.SnapshotCache
	counter  palette.FailureCounter
	interner *intern.Interner
	cacheTTL time.Duration
	started  time.Time
	log      *logging.Logger
}

// Config содержит зависимости REST сервера
type Config struct {
	Addr     string                  // адрес для запуска сервера
	Palette  *palette.Palette        // общая палитра; nil — новая
	Storage  *storage.PaletteStorage // может быть nil
	Cache    cache.SnapshotCache     // может быть nil
	CacheTTL time.Duration
	Counter  palette.FailureCounter // может быть nil
	Registry *prometheus.Registry   // nil — метрики HTTP не собираются
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Addr == "" {
		config.Addr = ":8088"
	}
	if config.Palette == nil {
		config.Palette = palette.New()
	}

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	log := logging.GetAPILogger()
	router.Use(middleware.NewRequestLogger(log).Handler())
	router.Use(otelgin.Middleware("blockstate_api"))

	if config.Registry != nil {
		promMw := middleware.NewPrometheusMiddleware("blockstate_api", config.Registry)
		router.Use(promMw.Handler())
		promMw.RegisterMetricsEndpoint(router, config.Registry)
	}

	rs := &RestServer{
		router:   router,
		palette:  config.Palette,
		storage:  config.Storage,
		cache:    config.Cache,
		counter:  config.Counter,
		interner: intern.Default(),
		cacheTTL: config.CacheTTL,
		started:  time.Now(),
		log:      log,
	}
	rs.server = &http.Server{
		Addr:              config.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	rs.setupRoutes()
	return rs
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	api := rs.router.Group("/api")
	{
		api.GET("/blockstate", rs.handleParse)
		api.POST("/blockstate/normalize", rs.handleNormalize)
		api.GET("/palette", rs.handlePalette)
		api.GET("/palette/:world/snapshot", rs.handleSnapshot)
		api.GET("/stats", rs.handleStats)
	}

	rs.router.GET("/health", rs.handleHealth)
}

// Handler возвращает http.Handler (используется в тестах)
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

// Start запускает REST сервер и блокируется до Stop
func (rs *RestServer) Start() error {
	rs.log.Info("🌐 REST API слушает %s", rs.server.Addr)
	if err := rs.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop останавливает REST сервер
func (rs *RestServer) Stop(ctx context.Context) error {
	return rs.server.Shutdown(ctx)
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/blockstate/internal/api"
	"github.com/annel0/blockstate/internal/cache"
	"github.com/annel0/blockstate/internal/config"
	"github.com/annel0/blockstate/internal/intern"
	"github.com/annel0/blockstate/internal/logging"
	"github.com/annel0/blockstate/internal/metrics"
	"github.com/annel0/blockstate/internal/observability"
	"github.com/annel0/blockstate/internal/palette"
	"github.com/annel0/blockstate/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config (or BLOCKSTATE_CONFIG)")
		command    = flag.String("cmd", "parse", "Command: parse, normalize, import, export, serve")
		world      = flag.String("world", "overworld", "World name for import/export")
		file       = flag.String("file", "", "Input/output file (default stdin/stdout)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	if err := logging.InitLogger(cfg.Logging.Dir, logging.ParseLevel(cfg.Logging.Level)); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseLogger()

	switch *command {
	case "parse":
		if err := runParse(os.Stdout, flag.Args()); err != nil {
			os.Exit(1)
		}

	case "normalize":
		in, closeIn, err := openInput(*file)
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		defer closeIn()
		if _, err := runNormalize(in, os.Stdout, palette.New(), nil); err != nil {
			log.Fatalf("❌ Normalize failed: %v", err)
		}

	case "import", "export":
		ps, err := storage.NewPaletteStorage(cfg.Storage.DataDir, nil)
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		defer ps.Close()

		ctx := context.Background()
		if *command == "import" {
			err = runImport(ctx, ps, *world, *file)
		} else {
			err = runExport(ctx, ps, *world, *file)
		}
		if err != nil {
			log.Fatalf("❌ %s failed: %v", *command, err)
		}

	case "serve":
		if err := serve(cfg); err != nil {
			log.Fatalf("❌ Serve failed: %v", err)
		}

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", *command)
		flag.Usage()
		os.Exit(2)
	}
}

func serve(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.InitTelemetry(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.Enabled)
	if err != nil {
		return err
	}
	defer shutdownTelemetry(context.Background())

	ps, err := storage.NewPaletteStorage(cfg.Storage.DataDir, nil)
	if err != nil {
		return err
	}
	defer ps.Close()

	var snapshots cache.SnapshotCache = cache.NewMemorySnapshotCache()
	if cfg.Cache.RedisAddr != "" {
		rc, err := cache.NewRedisSnapshotCache(ctx, cache.RedisConfig{
			Addr:   cfg.Cache.RedisAddr,
			DB:     cfg.Cache.RedisDB,
			MaxTTL: cfg.Cache.TTL,
		})
		if err != nil {
			logging.Warn("⚠️ Redis недоступен, используется локальный кеш: %v", err)
		} else {
			snapshots = rc
		}
	}
	defer snapshots.Close()

	pal := palette.New()
	for _, s := range cfg.MatcherStates() {
		pal.Index(s)
	}

	reg := prometheus.NewRegistry()
	exporter := metrics.NewExporter(reg, intern.Default(), pal)
	exporter.Start(5 * time.Second)
	defer exporter.Stop()

	server := api.NewRestServer(api.Config{
		Addr:     fmt.Sprintf(":%d", cfg.Server.GetHTTPPort()),
		Palette:  pal,
		Storage:  ps,
		Cache:    snapshots,
		CacheTTL: cfg.Cache.TTL,
		Counter:  exporter,
		Registry: reg,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logging.Info("🛑 Остановка сервера...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Stop(shutdownCtx)
	}
}

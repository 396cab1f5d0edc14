package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/annel0/blockstate/internal/blockstate"
	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации приложения.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Storage   StorageConfig   `yaml:"storage"`
	Cache     CacheConfig     `yaml:"cache"`
	Server    ServerConfig    `yaml:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Matchers список состояний в каноническом виде, например
	// "minecraft:water[level=0]". Разбираются при загрузке.
	Matchers []string `yaml:"matchers"`

	matchers []*blockstate.BlockState
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
}

type CacheConfig struct {
	RedisAddr string        `yaml:"redis_addr"`
	RedisDB   int           `yaml:"redis_db"`
	TTL       time.Duration `yaml:"ttl"`
}

type ServerConfig struct {
	HTTPPort int `yaml:"http_port"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

// MatcherError сообщает о неразобранном состоянии в списке matchers.
type MatcherError struct {
	Index int
	Err   error
}

func (e *MatcherError) Error() string {
	return fmt.Sprintf("matchers[%d]: %v", e.Index, e.Err)
}

func (e *MatcherError) Unwrap() error {
	return e.Err
}

// GetHTTPPort возвращает HTTP порт с поддержкой fallback значений
func (s *ServerConfig) GetHTTPPort() int {
	return getPortWithEnvFallback(s.HTTPPort, "BLOCKSTATE_HTTP_PORT", 8088)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info"},
		Storage: StorageConfig{DataDir: "data"},
		Cache: CacheConfig{
			RedisAddr: "localhost:6379",
			TTL:       time.Hour,
		},
		Telemetry: TelemetryConfig{ServiceName: "blockstate"},
	}
}

// Load читает YAML файл конфигурации.
// Если path == "", пытается прочитать из ENV BLOCKSTATE_CONFIG или возвращает Default().
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("BLOCKSTATE_CONFIG")
		if path == "" {
			return Default(), nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse разбирает YAML поверх значений по умолчанию и проверяет matchers.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфигурации: %w", err)
	}

	cfg.matchers = make([]*blockstate.BlockState, 0, len(cfg.Matchers))
	for i, text := range cfg.Matchers {
		s, err := blockstate.Parse(text)
		if err != nil {
			return nil, &MatcherError{Index: i, Err: err}
		}
		cfg.matchers = append(cfg.matchers, s)
	}

	return cfg, nil
}

// MatcherStates возвращает разобранные matchers.
func (c *Config) MatcherStates() []*blockstate.BlockState {
	return c.matchers
}

// Matches сообщает, совпадает ли состояние с одним из matchers.
func (c *Config) Matches(s *blockstate.BlockState) bool {
	for _, m := range c.matchers {
		if m.Equal(s) {
			return true
		}
	}
	return false
}

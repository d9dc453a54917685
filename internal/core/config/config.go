package config

import (
	"time"

	"github.com/vietddude/inventorybot/internal/infra/kafka"
	"github.com/vietddude/inventorybot/internal/infra/lmstfy"
	redisclient "github.com/vietddude/inventorybot/internal/infra/redis"
	"github.com/vietddude/inventorybot/internal/infra/storage/postgres"
)

// Dead-letter backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendKafka    = "kafka"
	BackendLmstfy   = "lmstfy"
)

// Downstream modes.
const (
	DownstreamSimulated = "simulated"
	DownstreamHTTP      = "http"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Bot        BotConfig        `yaml:"bot"`
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
	Downstream DownstreamConfig `yaml:"downstream"`
	DeadLetter DeadLetterConfig `yaml:"dead_letter"`
}

// BotConfig holds worker and retry settings.
type BotConfig struct {
	Workers    int           `yaml:"workers"     env:"BOT_WORKERS"`
	MaxBatches int           `yaml:"max_batches" env:"BOT_MAX_BATCHES"` // 0 = unbounded
	MaxRetries int           `yaml:"max_retries" env:"BOT_MAX_RETRIES"`
	BaseDelay  time.Duration `yaml:"base_delay"  env:"BOT_BASE_DELAY"`

	// CriticalDeadLetters is the per-worker count above which health is critical
	CriticalDeadLetters int `yaml:"critical_dead_letters"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port" env:"BOT_METRICS_PORT"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level   string `yaml:"level"` // debug, info, warn, error
	File    string `yaml:"file"    env:"BOT_LOG_FILE"`
	Backups int    `yaml:"backups"`
}

// DownstreamConfig selects and tunes the inventory operation.
type DownstreamConfig struct {
	Mode     string        `yaml:"mode"` // simulated, http
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`

	MinLatency    time.Duration `yaml:"min_latency"`
	MaxLatency    time.Duration `yaml:"max_latency"`
	APIErrorRate  float64       `yaml:"api_error_rate"`
	TransientRate float64       `yaml:"transient_rate"`
}

// DeadLetterConfig selects where exhausted batches go.
type DeadLetterConfig struct {
	Backend   string             `yaml:"backend"`
	Retention time.Duration      `yaml:"retention"` // 0 = keep forever
	Redis     redisclient.Config `yaml:"redis"`
	Database  postgres.Config    `yaml:"database"`
	Kafka     kafka.Config       `yaml:"kafka"`
	Lmstfy    lmstfy.Config      `yaml:"lmstfy"`
}

// Default returns the configuration used when nothing is set.
func Default() AppConfig {
	return AppConfig{
		Bot: BotConfig{
			Workers:             2,
			MaxBatches:          500,
			MaxRetries:          3,
			BaseDelay:           100 * time.Millisecond,
			CriticalDeadLetters: 50,
		},
		Server: ServerConfig{Port: 9100},
		Logging: LoggingConfig{
			Level:   "info",
			File:    "../logs/inventory.log",
			Backups: 7,
		},
		Downstream: DownstreamConfig{
			Mode:          DownstreamSimulated,
			Timeout:       5 * time.Second,
			MinLatency:    50 * time.Millisecond,
			MaxLatency:    200 * time.Millisecond,
			APIErrorRate:  0.03,
			TransientRate: 0.02,
		},
		DeadLetter: DeadLetterConfig{
			Backend: BackendMemory,
		},
	}
}

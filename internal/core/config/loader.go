package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file on top of Default, then applies
// BOT_* environment overrides. An empty path skips the file.
func Load(path string) (*AppConfig, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		// Expand environment variables in the YAML content
		expandedData := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Validate checks ranges and backend-specific requirements.
func (c *AppConfig) Validate() error {
	var errs []error

	if c.Bot.Workers < 1 {
		errs = append(errs, fmt.Errorf("bot.workers must be >= 1, got %d", c.Bot.Workers))
	}
	if c.Bot.MaxBatches < 0 {
		errs = append(errs, fmt.Errorf("bot.max_batches must be >= 0, got %d", c.Bot.MaxBatches))
	}
	if c.Bot.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("bot.max_retries must be >= 0, got %d", c.Bot.MaxRetries))
	}
	if c.Bot.BaseDelay <= 0 {
		errs = append(errs, fmt.Errorf("bot.base_delay must be positive, got %s", c.Bot.BaseDelay))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}

	switch c.Downstream.Mode {
	case DownstreamSimulated:
		d := c.Downstream
		if d.MinLatency < 0 || d.MaxLatency < d.MinLatency {
			errs = append(errs, fmt.Errorf("downstream latency range invalid: %s..%s", d.MinLatency, d.MaxLatency))
		}
		if d.APIErrorRate < 0 || d.TransientRate < 0 || d.APIErrorRate+d.TransientRate > 1 {
			errs = append(errs, fmt.Errorf("downstream error rates invalid: api=%v transient=%v", d.APIErrorRate, d.TransientRate))
		}
	case DownstreamHTTP:
		if c.Downstream.Endpoint == "" {
			errs = append(errs, errors.New("downstream.endpoint is required in http mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown downstream.mode %q", c.Downstream.Mode))
	}

	dl := c.DeadLetter
	switch dl.Backend {
	case BackendMemory:
	case BackendRedis:
		if dl.Redis.URL == "" {
			errs = append(errs, errors.New("dead_letter.redis.url is required"))
		}
	case BackendPostgres:
		if dl.Database.URL == "" {
			errs = append(errs, errors.New("dead_letter.database.url is required"))
		}
	case BackendKafka:
		if len(dl.Kafka.Brokers) == 0 || dl.Kafka.Topic == "" {
			errs = append(errs, errors.New("dead_letter.kafka.brokers and topic are required"))
		}
	case BackendLmstfy:
		if dl.Lmstfy.Host == "" || dl.Lmstfy.Queue == "" {
			errs = append(errs, errors.New("dead_letter.lmstfy.host and queue are required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown dead_letter.backend %q", dl.Backend))
	}
	if dl.Retention < 0 {
		errs = append(errs, fmt.Errorf("dead_letter.retention must be >= 0, got %s", dl.Retention))
	}

	return errors.Join(errs...)
}

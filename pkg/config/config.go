package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Remote struct {
		Enabled        bool          `yaml:"enabled"`
		APIURL         string        `yaml:"api_url"`
		APIKey         string        `yaml:"api_key"`
		Model          string        `yaml:"model"`
		MaxRetries     int           `yaml:"max_retries"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
	} `yaml:"remote"`
	Orchestrator struct {
		MaxFailuresBeforeFallback int  `yaml:"max_failures_before_fallback"`
		Anonymize                 bool `yaml:"anonymize"`
		FallbackToLocal           bool `yaml:"fallback_to_local"`
	} `yaml:"orchestrator"`
	Ensemble struct {
		Weights map[string]float64 `yaml:"weights"`
	} `yaml:"ensemble"`
	Risk struct {
		BasePositionSize float64 `yaml:"base_position_size"`
		MaxPositionSize  float64 `yaml:"max_position_size"`
		MinPositionSize  float64 `yaml:"min_position_size"`
		StopLossPct      float64 `yaml:"stop_loss_pct"`
		TakeProfitPct    float64 `yaml:"take_profit_pct"`
	} `yaml:"risk"`
	Cache struct {
		Enabled bool          `yaml:"enabled"`
		TTL     time.Duration `yaml:"ttl"`
		Redis   struct {
			Enabled  bool   `yaml:"enabled"`
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Audit struct {
		Enabled    bool `yaml:"enabled"`
		ClickHouse struct {
			Host     string        `yaml:"host"`
			Port     int           `yaml:"port"`
			Database string        `yaml:"database"`
			User     string        `yaml:"user"`
			Password string        `yaml:"password"`
			Timeout  time.Duration `yaml:"timeout"`
		} `yaml:"clickhouse"`
	} `yaml:"audit"`
	Events struct {
		Enabled bool `yaml:"enabled"`
		Kafka   struct {
			Brokers      []string `yaml:"brokers"`
			Topic        string   `yaml:"topic"`
			RequiredAcks int      `yaml:"required_acks"`
			Compression  string   `yaml:"compression"`
		} `yaml:"kafka"`
	} `yaml:"events"`
	RateLimit struct {
		Capacity     float64 `yaml:"capacity"`
		RefillPerSec float64 `yaml:"refill_per_sec"`
	} `yaml:"ratelimit"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("REMOTE_API_KEY"); v != "" {
		c.Remote.APIKey = v
	}
	if v := os.Getenv("DEEPSEEK_API_KEY"); v != "" && c.Remote.APIKey == "" {
		c.Remote.APIKey = v
	}
	if v := os.Getenv("REMOTE_API_URL"); v != "" {
		c.Remote.APIURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port := splitHostPort(v)
		c.Cache.Redis.Host = host
		if port > 0 {
			c.Cache.Redis.Port = port
		}
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Events.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.Audit.ClickHouse.Host = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Remote.Enabled && c.Remote.APIURL == "" {
		return fmt.Errorf("remote.api_url is required when remote is enabled")
	}
	if c.Cache.Redis.Enabled && c.Cache.Redis.Host == "" {
		return fmt.Errorf("cache.redis.host is required when redis is enabled")
	}
	if c.Events.Enabled && len(c.Events.Kafka.Brokers) == 0 {
		return fmt.Errorf("events.kafka.brokers cannot be empty when events are enabled")
	}
	if c.Audit.Enabled && c.Audit.ClickHouse.Host == "" {
		return fmt.Errorf("audit.clickhouse.host is required when audit is enabled")
	}
	for name, w := range c.Ensemble.Weights {
		if w < 0 {
			return fmt.Errorf("ensemble.weights.%s must be non-negative", name)
		}
	}
	return nil
}

func splitHostPort(addr string) (string, int) {
	host, portStr, ok := strings.Cut(addr, ":")
	if !ok {
		return addr, 0
	}
	var port int
	_, _ = fmt.Sscanf(portStr, "%d", &port)
	return host, port
}

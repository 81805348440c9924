package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
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
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			Enabled     bool   `yaml:"enabled"`
			QuotesTopic string `yaml:"quotes_topic"`
			GroupID     string `yaml:"group_id"`
			Workers     int    `yaml:"workers"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Quotes struct {
		APIKey         string        `yaml:"api_key"`
		WebSocketURL   string        `yaml:"websocket_url"`
		RESTURL        string        `yaml:"rest_url"`
		Symbols        []string      `yaml:"symbols"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"quotes"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Cache struct {
		PredictionTTL time.Duration `yaml:"prediction_ttl"`
	} `yaml:"cache"`
	Queue struct {
		Enabled    bool          `yaml:"enabled"`
		Workers    int           `yaml:"workers"`
		QueueSize  int           `yaml:"queue_size"`
		RetryLimit int           `yaml:"retry_limit"`
		RetryDelay time.Duration `yaml:"retry_delay"`
	} `yaml:"queue"`
	Model    Model    `yaml:"model"`
	Detector Detector `yaml:"detector"`
	Keywords Keywords `yaml:"keywords"`
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

	c.applyDefaults()

	// Validate required fields
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

	// Override with environment variables
	if v := os.Getenv("QUOTES_API_KEY"); v != "" {
		c.Quotes.APIKey = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Quotes.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port, found := strings.Cut(v, ":")
		c.Redis.Host = host
		if found {
			if p, err := strconv.Atoi(port); err == nil {
				c.Redis.Port = p
			}
		}
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Model.Version == "" {
		c.Model = DefaultModel()
	}
	if c.Detector.MinHistoryDays == 0 {
		c.Detector = DefaultDetector()
	}
	if c.Keywords.OverrideThreshold == 0 {
		c.Keywords = DefaultKeywords()
	}
	if len(c.Keywords.Bullish) == 0 {
		c.Keywords.Bullish = DefaultKeywords().Bullish
	}
	if len(c.Keywords.Bearish) == 0 {
		c.Keywords.Bearish = DefaultKeywords().Bearish
	}
	if c.Cache.PredictionTTL == 0 {
		c.Cache.PredictionTTL = 5 * time.Minute
	}
	if c.Redis.Port == 0 {
		c.Redis.Port = 6379
	}
	if c.Queue.Workers == 0 {
		c.Queue.Workers = 2
	}
	if c.Queue.QueueSize == 0 {
		c.Queue.QueueSize = 1000
	}
	if c.Queue.RetryLimit == 0 {
		c.Queue.RetryLimit = 3
	}
	if c.Queue.RetryDelay == 0 {
		c.Queue.RetryDelay = 10 * time.Second
	}
	if c.Kafka.Consumer.GroupID == "" {
		c.Kafka.Consumer.GroupID = "stockpulse"
	}
	if c.Kafka.Consumer.Workers == 0 {
		c.Kafka.Consumer.Workers = 2
	}
}

// Validate checks if the configuration is valid. Weight and threshold
// problems are fatal here, never at per-prediction time.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if sum := c.Model.Weights.Sum(); math.Abs(sum-1.0) > 1e-6 {
		return fmt.Errorf("model.weights must sum to 1.0, got %.6f", sum)
	}
	if c.Model.Probability.Floor >= c.Model.Probability.Ceiling {
		return fmt.Errorf("model.probability floor %.2f must be below ceiling %.2f",
			c.Model.Probability.Floor, c.Model.Probability.Ceiling)
	}
	if c.Model.Move.MaxPct <= c.Model.Move.MinPct {
		return fmt.Errorf("model.move max_pct must exceed min_pct")
	}
	if c.Detector.MinHistoryDays < 2 {
		return fmt.Errorf("detector.min_history_days must be at least 2")
	}
	for i := 1; i < len(c.Detector.DropTiers); i++ {
		if c.Detector.DropTiers[i].MinPrice >= c.Detector.DropTiers[i-1].MinPrice {
			return fmt.Errorf("detector.drop_tiers must be ordered by descending min_price")
		}
	}
	if c.Keywords.OverrideThreshold <= 0 {
		return fmt.Errorf("keywords.override_threshold must be positive")
	}
	for k, w := range c.Keywords.Bullish {
		if w <= 0 {
			return fmt.Errorf("keywords.bullish[%s] must carry a positive weight", k)
		}
	}
	for k, w := range c.Keywords.Bearish {
		if w >= 0 {
			return fmt.Errorf("keywords.bearish[%s] must carry a negative weight", k)
		}
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when clickhouse is enabled")
	}
	if c.Queue.Enabled && !c.Redis.Enabled {
		return fmt.Errorf("queue requires redis to be enabled")
	}
	if c.Kafka.Consumer.Enabled {
		if !c.Kafka.Enabled {
			return fmt.Errorf("kafka.consumer requires kafka to be enabled")
		}
		if c.Kafka.Consumer.QuotesTopic == "" {
			return fmt.Errorf("kafka.consumer.quotes_topic is required when the consumer is enabled")
		}
	}
	return nil
}

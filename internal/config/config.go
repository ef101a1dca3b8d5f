package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Source   SourceConfig   `yaml:"source"`
	Store    StoreConfig    `yaml:"store"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Sync     SyncConfig     `yaml:"sync"`
	LogLevel string         `yaml:"log_level"`
}

// SourceConfig holds the HiveSQL (SQL Server) connection settings.
type SourceConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

func (s SourceConfig) DSN() string {
	u := &url.URL{
		Scheme: "sqlserver",
		User:   url.UserPassword(s.User, s.Password),
		Host:   fmt.Sprintf("%s:%d", s.Host, s.Port),
	}
	q := url.Values{}
	q.Set("database", s.Database)
	q.Set("encrypt", "true")
	q.Set("TrustServerCertificate", "true")
	u.RawQuery = q.Encode()
	return u.String()
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

type RabbitMQConfig struct {
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	QueueName  string `yaml:"queue_name"`
}

type SyncConfig struct {
	MaxStoreBytes    int64         `yaml:"max_store_bytes"`
	MinutesPerDay    int           `yaml:"minutes_per_day"`
	BatchSize        int           `yaml:"batch_size"`
	ProbeTimeout     time.Duration `yaml:"probe_timeout"`
	ProbeConcurrency int           `yaml:"probe_concurrency"`
	SampleLimit      int           `yaml:"sample_limit"`
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Source.Port == 0 {
		c.Source.Port = 1433
	}
	if c.Store.Path == "" {
		c.Store.Path = "hivelens.db"
	}
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "hivelens"
	}
	if c.RabbitMQ.RoutingKey == "" {
		c.RabbitMQ.RoutingKey = "indexed_images"
	}
	if c.RabbitMQ.QueueName == "" {
		c.RabbitMQ.QueueName = "image_analysis"
	}
	if c.Sync.MaxStoreBytes == 0 {
		c.Sync.MaxStoreBytes = 4 << 30
	}
	if c.Sync.MinutesPerDay == 0 {
		c.Sync.MinutesPerDay = 35
	}
	if c.Sync.BatchSize == 0 {
		c.Sync.BatchSize = 100
	}
	if c.Sync.ProbeTimeout == 0 {
		c.Sync.ProbeTimeout = 5 * time.Second
	}
	if c.Sync.ProbeConcurrency == 0 {
		c.Sync.ProbeConcurrency = 16
	}
	if c.Sync.SampleLimit == 0 {
		c.Sync.SampleLimit = 10
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Auth     AuthConfig     `yaml:"auth"`
	Orders   OrdersConfig   `yaml:"orders"`
}

type ServerConfig struct {
	Port             int  `yaml:"port"`
	DevMode          bool `yaml:"dev_mode"`
	HandshakeTimeout int  `yaml:"handshake_timeout_seconds"`
}

func (c ServerConfig) HandshakeTimeoutDuration() time.Duration {
	if c.HandshakeTimeout <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.HandshakeTimeout) * time.Second
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type RedisConfig struct {
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	DB      int    `yaml:"db"`
	Channel string `yaml:"channel"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type RabbitMQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Exchange string `yaml:"exchange"`
}

type AuthConfig struct {
	Secret string `yaml:"secret"`
}

type OrdersConfig struct {
	// TaxRate is a flat fraction of the subtotal, e.g. "0.08" for 8%.
	TaxRate string `yaml:"tax_rate"`
}

func (c OrdersConfig) TaxRateDecimal() (decimal.Decimal, error) {
	if c.TaxRate == "" {
		return decimal.Zero, nil
	}
	rate, err := decimal.NewFromString(c.TaxRate)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid tax_rate %q: %w", c.TaxRate, err)
	}
	if rate.IsNegative() {
		return decimal.Zero, fmt.Errorf("tax_rate must not be negative")
	}
	return rate, nil
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Redis.Channel == "" {
		cfg.Redis.Channel = "realtime_events"
	}
	if cfg.RabbitMQ.Exchange == "" {
		cfg.RabbitMQ.Exchange = "owner_notifications"
	}
	return &cfg, nil
}

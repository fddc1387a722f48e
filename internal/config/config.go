package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultAPIBaseURL is where the order form submits unless the config file
	// names another base at startup.
	DefaultAPIBaseURL = "http://localhost:9009"
	// OrderPath is the order-submission resource of the API.
	OrderPath = "/api/order"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	API      APIConfig      `yaml:"api"`
	Web      WebConfig      `yaml:"web"`
	Kitchen  KitchenConfig  `yaml:"kitchen"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	MaxConns int    `yaml:"max_conns"`
}

// DSN renders the connection string understood by pgx.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Database)
}

type RabbitMQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

func (c RabbitMQConfig) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", c.User, c.Password, c.Host, c.Port)
}

type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// OrderURL is the full order-submission endpoint.
func (c APIConfig) OrderURL() string {
	return c.BaseURL + OrderPath
}

type WebConfig struct {
	SessionIdle time.Duration `yaml:"session_idle"`
}

type KitchenConfig struct {
	WorkerName string `yaml:"worker_name"`
	Prefetch   int    `yaml:"prefetch"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "bloom",
			Password: "bloom",
			Database: "bloom_pizza",
		},
		RabbitMQ: RabbitMQConfig{
			Host:     "localhost",
			Port:     5672,
			User:     "guest",
			Password: "guest",
		},
		API: APIConfig{
			BaseURL: DefaultAPIBaseURL,
			Timeout: 10 * time.Second,
		},
		Web: WebConfig{
			SessionIdle: 30 * time.Minute,
		},
		Kitchen: KitchenConfig{
			WorkerName: "kitchen-1",
			Prefetch:   1,
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse yaml: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	str := map[string]*string{
		"BLOOM_DB_HOST":        &c.Database.Host,
		"BLOOM_DB_USER":        &c.Database.User,
		"BLOOM_DB_PASSWORD":    &c.Database.Password,
		"BLOOM_DB_NAME":        &c.Database.Database,
		"BLOOM_RABBITMQ_HOST":  &c.RabbitMQ.Host,
		"BLOOM_RABBITMQ_USER":  &c.RabbitMQ.User,
		"BLOOM_RABBITMQ_PASS":  &c.RabbitMQ.Password,
		"BLOOM_API_BASE_URL":   &c.API.BaseURL,
		"BLOOM_KITCHEN_WORKER": &c.Kitchen.WorkerName,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"BLOOM_DB_PORT":       &c.Database.Port,
		"BLOOM_RABBITMQ_PORT": &c.RabbitMQ.Port,
	}
	for key, dst := range ints {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = n
	}
	return nil
}

func (c *Config) validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url must not be empty")
	}
	if c.API.Timeout <= 0 {
		return errors.New("api.timeout must be positive")
	}
	if c.Kitchen.Prefetch < 1 {
		return errors.New("kitchen.prefetch must be at least 1")
	}
	return nil
}

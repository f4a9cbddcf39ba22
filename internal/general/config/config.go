package config

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Database struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"database"`
	} `yaml:"database"`
	RabbitMQ struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
	} `yaml:"rabbitmq"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Services struct {
		BookingServicePort int `yaml:"booking_service"`
	} `yaml:"services"`
	JWT struct {
		SecretKey string `yaml:"secret_key"`
	} `yaml:"jwt"`
	Safety struct {
		OperatingHourStart  int      `yaml:"operating_hour_start"`
		OperatingHourEnd    int      `yaml:"operating_hour_end"`
		AllowedEmailDomains []string `yaml:"allowed_email_domains"`
		MaxTripDistanceKM   float64  `yaml:"max_trip_distance_km"`
		UnsafeKeywords      []string `yaml:"unsafe_keywords"`
		NoShowThreshold     int      `yaml:"no_show_threshold"`
		CancellationLimit   int      `yaml:"cancellation_limit"`
	} `yaml:"safety"`
	Notifications struct {
		PushEnabled  bool `yaml:"push_enabled"`
		EmailEnabled bool `yaml:"email_enabled"`
		SMSEnabled   bool `yaml:"sms_enabled"`
		InAppEnabled bool `yaml:"in_app_enabled"`
	} `yaml:"notifications"`
}

// LoadFromFile loads config from a YAML file, applies defaults, and validates required fields.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config

	// channel defaults must be seeded before unmarshal: yaml leaves
	// absent keys untouched, so the file can still turn a channel off
	// explicitly. SMS stays opt-in.
	cfg.Notifications.InAppEnabled = true
	cfg.Notifications.PushEnabled = true
	cfg.Notifications.EmailEnabled = true

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets safe defaults for some fields.
func applyDefaults(cfg *Config) {
	// Database
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}

	// RabbitMQ
	if cfg.RabbitMQ.Host == "" {
		cfg.RabbitMQ.Host = "localhost"
	}
	if cfg.RabbitMQ.Port == 0 {
		cfg.RabbitMQ.Port = 5672
	}

	// Redis
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}

	// Services
	if cfg.Services.BookingServicePort == 0 {
		cfg.Services.BookingServicePort = 3000
	}

	// Safety gate
	if cfg.Safety.OperatingHourStart == 0 {
		cfg.Safety.OperatingHourStart = 6
	}
	if cfg.Safety.OperatingHourEnd == 0 {
		cfg.Safety.OperatingHourEnd = 22
	}
	if len(cfg.Safety.AllowedEmailDomains) == 0 {
		cfg.Safety.AllowedEmailDomains = []string{
			"formanite.fccollege.edu.pk",
			"fccollege.edu.pk",
		}
	}
	if cfg.Safety.MaxTripDistanceKM == 0 {
		cfg.Safety.MaxTripDistanceKM = 50
	}
	if len(cfg.Safety.UnsafeKeywords) == 0 {
		cfg.Safety.UnsafeKeywords = []string{"abandoned", "industrial", "warehouse"}
	}
	if cfg.Safety.NoShowThreshold == 0 {
		cfg.Safety.NoShowThreshold = 3
	}
	if cfg.Safety.CancellationLimit == 0 {
		cfg.Safety.CancellationLimit = 5
	}

	if cfg.JWT.SecretKey == "" {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			// fallback: time-based bytes
			key = []byte(fmt.Sprintf("%d", time.Now().UnixNano()))
		}
		cfg.JWT.SecretKey = base64.StdEncoding.EncodeToString(key)
	}
}

// validate checks required fields and basic ranges.
func (c *Config) validate() error {
	var problems []string

	// DB
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		problems = append(problems, "database.port must be in 1..65535")
	}
	if c.Database.User == "" {
		problems = append(problems, "database.user is required")
	}
	if c.Database.Password == "" {
		problems = append(problems, "database.password is required")
	}
	if c.Database.Name == "" {
		problems = append(problems, "database.database is required")
	}

	// RabbitMQ
	if c.RabbitMQ.Port <= 0 || c.RabbitMQ.Port > 65535 {
		problems = append(problems, "rabbitmq.port must be in 1..65535")
	}
	if c.RabbitMQ.User == "" {
		problems = append(problems, "rabbitmq.user is required")
	}
	if c.RabbitMQ.Password == "" {
		problems = append(problems, "rabbitmq.password is required")
	}

	// Services
	if c.Services.BookingServicePort <= 0 || c.Services.BookingServicePort > 65535 {
		problems = append(problems, "services.booking_service must be in 1..65535")
	}

	// Safety gate
	if c.Safety.OperatingHourStart < 0 || c.Safety.OperatingHourStart > 23 {
		problems = append(problems, "safety.operating_hour_start must be in 0..23")
	}
	if c.Safety.OperatingHourEnd < 1 || c.Safety.OperatingHourEnd > 24 {
		problems = append(problems, "safety.operating_hour_end must be in 1..24")
	}
	if c.Safety.OperatingHourStart >= c.Safety.OperatingHourEnd {
		problems = append(problems, "safety operating hours must form a non-empty window")
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

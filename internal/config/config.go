package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	_ "github.com/joho/godotenv/autoload"
)

// Config holds all application configuration
type Config struct {
	Server ServerConfig
	Mongo  MongoConfig
	Redis  RedisConfig
	JWT    JWTConfig
	Minio  MinioConfig
	SMTP   SMTPConfig
	Stats  StatsConfig
}

// ServerConfig holds listener configuration
type ServerConfig struct {
	Port        string   `env:"SERVER_PORT" envDefault:"8080"`
	OpsPort     string   `env:"OPS_PORT" envDefault:"9090"`
	CORSOrigins []string `env:"CORS_ORIGINS" envDefault:"*" envSeparator:","`
	LogLevel    string   `env:"LOG_LEVEL" envDefault:"info"`
}

// MongoConfig holds MongoDB connection parameters
type MongoConfig struct {
	URI    string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	DBName string `env:"MONGO_DBNAME" envDefault:"reading_journal"`
}

type RedisConfig struct {
	URL string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
}

type JWTConfig struct {
	Secret string        `env:"JWT_SECRET,notEmpty"`
	TTL    time.Duration `env:"JWT_TTL" envDefault:"72h"`
}

// MinioConfig holds book cover storage configuration
type MinioConfig struct {
	Endpoint  string `env:"MINIO_ENDPOINT" envDefault:"localhost:9000"`
	AccessKey string `env:"MINIO_ACCESS_KEY"`
	SecretKey string `env:"MINIO_SECRET_KEY"`
	Bucket    string `env:"MINIO_BUCKET" envDefault:"book-covers"`
	PublicURL string `env:"MINIO_PUBLIC_URL" envDefault:"http://localhost:9000"`
	UseSSL    bool   `env:"MINIO_USE_SSL" envDefault:"false"`
}

type SMTPConfig struct {
	Host string `env:"SMTP_HOST"`
	Port int    `env:"SMTP_PORT" envDefault:"587"`
	User string `env:"SMTP_USER"`
	Pass string `env:"SMTP_PASS"`
}

type StatsConfig struct {
	RefreshInterval time.Duration `env:"STATS_REFRESH_INTERVAL" envDefault:"1h"`
}

// NewConfig creates a new Config from the environment and an optional .env file
func NewConfig() (*Config, error) {
	cfg := new(Config)
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Stats.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewStoreConfig loads only the database and job settings, for the offline tools
func NewStoreConfig() (*Config, error) {
	cfg := new(Config)
	for _, section := range []interface{}{&cfg.Server, &cfg.Mongo, &cfg.Redis, &cfg.Stats} {
		if err := env.Parse(section); err != nil {
			return nil, err
		}
	}
	if err := cfg.Stats.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c StatsConfig) validate() error {
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("STATS_REFRESH_INTERVAL must be positive, got %s", c.RefreshInterval)
	}
	return nil
}

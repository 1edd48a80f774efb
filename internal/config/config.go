package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	Debug          bool     `env:"DEBUG" envDefault:"false"`
	AppPort        string   `env:"APP_PORT" envDefault:"3000"`
	AppEnv         string   `env:"APP_ENV" envDefault:"development"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	AWS struct {
		Region      string `env:"AWS_REGION" envDefault:"us-east-1"`
		EndpointURL string `env:"AWS_ENDPOINT_URL"` // empty in prod, LocalStack URL in dev
		AccessKeyID string `env:"AWS_ACCESS_KEY_ID"`
		SecretKey   string `env:"AWS_SECRET_ACCESS_KEY"`
	}

	DynamoTables DynamoTables

	Redis struct {
		Addr       string        `env:"REDIS_ADDR"` // empty disables caching
		Password   string        `env:"REDIS_PASSWORD"`
		DB         int           `env:"REDIS_DB" envDefault:"0"`
		ProfileTTL time.Duration `env:"REDIS_PROFILE_TTL" envDefault:"10m"`
		StatsTTL   time.Duration `env:"REDIS_STATS_TTL" envDefault:"1m"`
	}

	Reddit struct {
		ClientID     string  `env:"REDDIT_CLIENT_ID,required"`
		ClientSecret string  `env:"REDDIT_CLIENT_SECRET,required"`
		Username     string  `env:"REDDIT_USERNAME,required"`
		Password     string  `env:"REDDIT_PASSWORD,required"`
		UserAgent    string  `env:"REDDIT_USER_AGENT" envDefault:"community-review-backend/1.0"`
		Subreddit    string  `env:"REDDIT_SUBREDDIT,required"`
		RatePerSec   float64 `env:"REDDIT_RATE_PER_SEC" envDefault:"1"`
		RateBurst    int     `env:"REDDIT_RATE_BURST" envDefault:"5"`
	}

	JWTPrivateKeyPath string        `env:"JWT_PRIVATE_KEY_PATH" envDefault:"./private_key.pem"`
	JWTPublicKeyPath  string        `env:"JWT_PUBLIC_KEY_PATH" envDefault:"./public_key.pem"`
	JWTExpiry         time.Duration `env:"JWT_EXPIRY" envDefault:"168h"`

	Review struct {
		LeaseTTL      time.Duration `env:"REVIEW_LEASE_TTL" envDefault:"5m"`
		SweepInterval time.Duration `env:"REVIEW_SWEEP_INTERVAL" envDefault:"5m"`
	}
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users string `env:"DYNAMO_TABLE_USERS" envDefault:"users"`
	OTPs  string `env:"DYNAMO_TABLE_OTPS" envDefault:"otps"`
}

// Load reads all configuration from the environment. A missing .env file is
// not an error; in production the variables are set directly.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v7"
	"github.com/joho/godotenv"
)

type ServerConfig struct {
	Port                  string   `env:"SERVER_PORT" envDefault:"8080"`
	Env                   string   `env:"APP_ENV" envDefault:"production"`
	RequestTimeoutSeconds int      `env:"REQUEST_TIMEOUT_SECONDS" envDefault:"15"`
	CORSOrigins           []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:3000"`
	UploadDir             string   `env:"UPLOAD_DIR" envDefault:"uploads"`
	RateLimitPerHour      int      `env:"RATE_LIMIT_PER_HOUR" envDefault:"300"`
}

func (s ServerConfig) IsDevelopment() bool {
	return s.Env == "development"
}

type LoggerConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

type PostgresConfig struct {
	DSN      string `env:"DATABASE_URL,required"`
	MaxConns int32  `env:"DATABASE_MAX_CONNS" envDefault:"10"`
}

type RedisConfig struct {
	Address  string `env:"REDIS_ADDRESS" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type JWTConfig struct {
	SecretKey      string        `env:"JWT_SECRET_KEY,required"`
	AccessTokenTTL time.Duration `env:"JWT_EXPIRES_IN" envDefault:"24h"`
}

type KafkaConfig struct {
	Brokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	Topic   string   `env:"KAFKA_TOPIC" envDefault:"resource-events"`
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type AuthConfig struct {
	MaxLoginAttempts int           `env:"AUTH_MAX_LOGIN_ATTEMPTS" envDefault:"5"`
	LockoutDuration  time.Duration `env:"AUTH_LOCKOUT_DURATION" envDefault:"15m"`
}

// AccessConfig holds the school to department mapping used when scoping deans.
type AccessConfig struct {
	SchoolDepartments string `env:"SCHOOL_DEPARTMENTS"`
}

type SeederConfig struct {
	AdminEmail    string `env:"SEED_ADMIN_EMAIL"`
	AdminPassword string `env:"SEED_ADMIN_PASSWORD"`
}

type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Kafka    KafkaConfig
	Auth     AuthConfig
	Access   AccessConfig
	Seeder   SeederConfig
}

func New() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, reading configuration from the environment")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// ParseSchoolDepartments reads "school:dep1,dep2;school2:dep3".
func ParseSchoolDepartments(raw string) (map[string][]string, error) {
	result := make(map[string][]string)
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return result, nil
	}
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		school, deps, ok := strings.Cut(entry, ":")
		school = strings.TrimSpace(school)
		if !ok || school == "" {
			return nil, fmt.Errorf("invalid school mapping entry %q", entry)
		}
		for _, d := range strings.Split(deps, ",") {
			if d = strings.TrimSpace(d); d != "" {
				result[school] = append(result[school], d)
			}
		}
	}
	return result, nil
}

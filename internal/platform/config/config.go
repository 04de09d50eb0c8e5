package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverBolt     = "bolt"
	DriverMemory   = "memory"

	defaultJWTSecret = "defaultsecret"
)

type Config struct {
	APIPort string
	AppEnv  string

	JWTKey            []byte
	JWTExp            time.Duration
	SessionCookieName string
	BcryptCost        int

	StoreDriver string

	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBSslMode     string
	DBConnStr     string
	DBAutoMigrate bool

	MongoURI      string
	MongoDatabase string

	BoltPath string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	EventQueueName      string
	EventDedupTTL       time.Duration
	SessionRevokePrefix string

	CORSAllowedOrigins []string
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		APIPort:             getEnv("API_PORT", "8080"),
		AppEnv:              strings.ToLower(getEnv("APP_ENV", EnvProduction)),
		JWTKey:              []byte(getEnv("JWT_SECRET", defaultJWTSecret)),
		JWTExp:              time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 360)) * time.Hour,
		SessionCookieName:   getEnv("SESSION_COOKIE_NAME", "jwt"),
		BcryptCost:          getEnvAsInt("BCRYPT_COST", bcrypt.DefaultCost),
		StoreDriver:         strings.ToLower(getEnv("STORE_DRIVER", DriverPostgres)),
		DBHost:              getEnv("DB_HOST", "localhost"),
		DBPort:              getEnv("DB_PORT", "5432"),
		DBUser:              getEnv("DB_USER", "user"),
		DBPassword:          getEnv("DB_PASSWORD", "password"),
		DBName:              getEnv("DB_NAME", "assignment_desk"),
		DBSslMode:           getEnv("DB_SSLMODE", "disable"),
		DBAutoMigrate:       getEnvAsBool("DB_AUTO_MIGRATE", true),
		MongoURI:            getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:       getEnv("MONGO_DATABASE", "assignment_desk"),
		BoltPath:            getEnv("BOLT_PATH", "data/assignment_desk.db"),
		RedisAddr:           getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RedisDB:             getEnvAsInt("REDIS_DB", 0),
		EventQueueName:      getEnv("EVENT_QUEUE_NAME", "assignment_events_queue"),
		EventDedupTTL:       time.Duration(getEnvAsInt("EVENT_DEDUP_TTL_SECONDS", 86400)) * time.Second,
		SessionRevokePrefix: getEnv("SESSION_REVOKE_PREFIX", "revoked_session:"),
		CORSAllowedOrigins:  getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
	}

	cfg.DBConnStr = "host=" + cfg.DBHost +
		" port=" + cfg.DBPort +
		" user=" + cfg.DBUser +
		" password=" + cfg.DBPassword +
		" dbname=" + cfg.DBName +
		" sslmode=" + cfg.DBSslMode

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverPostgres, DriverMongo, DriverBolt, DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.AppEnv != EnvDevelopment && c.AppEnv != EnvProduction {
		return fmt.Errorf("unknown APP_ENV %q", c.AppEnv)
	}
	if c.AppEnv == EnvProduction && string(c.JWTKey) == defaultJWTSecret {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.JWTExp <= 0 {
		return fmt.Errorf("JWT_EXPIRATION_HOURS must be positive")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == EnvDevelopment
}

// RedisEnabled reports whether a Redis address was configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

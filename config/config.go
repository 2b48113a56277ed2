package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	StoreMemory    = "memory"
	StoreMongo     = "mongo"
	StoreCassandra = "cassandra"

	VerifierJWT    = "jwt"
	VerifierRemote = "remote"
)

type Config struct {
	ServerPort string
	CORSOrigin string

	JWTSecret string
	TokenTTL  time.Duration

	Verifier           string
	IdentityServiceURL string
	VerifierTimeout    time.Duration

	TaskStore       string
	MongoURI        string
	MongoDBName     string
	MongoCollection string

	NotificationStore string
	CassandraHost     string

	AdminUsername string
	AdminPassword string

	LogFile  string
	LogLevel logrus.Level
}

// Load reads envFile when it exists and then builds the configuration from the
// process environment.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		CORSOrigin:         getEnv("CORS_ORIGIN", "*"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		Verifier:           getEnv("VERIFIER", VerifierJWT),
		IdentityServiceURL: os.Getenv("IDENTITY_SERVICE_URL"),
		TaskStore:          getEnv("TASK_STORE", StoreMemory),
		MongoURI:           os.Getenv("MONGO_URI"),
		MongoDBName:        getEnv("MONGO_DB_NAME", "tasks_db"),
		MongoCollection:    getEnv("MONGO_COLLECTION", "tasks"),
		NotificationStore:  getEnv("NOTIFICATION_STORE", StoreMemory),
		CassandraHost:      getEnv("CASS_DB", "127.0.0.1"),
		AdminUsername:      os.Getenv("ADMIN_USERNAME"),
		AdminPassword:      os.Getenv("ADMIN_PASSWORD"),
		LogFile:            getEnv("LOG_FILE", "logs/task-tracker.log"),
	}

	var err error
	if cfg.TokenTTL, err = getDuration("TOKEN_TTL", 2*time.Hour); err != nil {
		return nil, err
	}
	if cfg.VerifierTimeout, err = getDuration("VERIFIER_TIMEOUT", 3*time.Second); err != nil {
		return nil, err
	}
	if cfg.LogLevel, err = logrus.ParseLevel(getEnv("LOG_LEVEL", "info")); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	// Login issues tokens even when a remote service verifies them.
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}

	switch c.Verifier {
	case VerifierJWT:
	case VerifierRemote:
		if c.IdentityServiceURL == "" {
			return errors.New("IDENTITY_SERVICE_URL is required when VERIFIER=remote")
		}
	default:
		return fmt.Errorf("unknown VERIFIER %q", c.Verifier)
	}

	switch c.TaskStore {
	case StoreMemory:
	case StoreMongo:
		if c.MongoURI == "" {
			return errors.New("MONGO_URI is required when TASK_STORE=mongo")
		}
	default:
		return fmt.Errorf("unknown TASK_STORE %q", c.TaskStore)
	}

	switch c.NotificationStore {
	case StoreMemory, StoreCassandra:
	default:
		return fmt.Errorf("unknown NOTIFICATION_STORE %q", c.NotificationStore)
	}

	if (c.AdminUsername == "") != (c.AdminPassword == "") {
		return errors.New("ADMIN_USERNAME and ADMIN_PASSWORD must be set together")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

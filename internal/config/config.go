package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultPostgresUser     = "postgres"
	defaultPostgresPassword = "postgres"
	defaultPostgresHost     = "localhost"
	defaultPostgresPort     = "5432"
	defaultPostgresDB       = "taskmanager"
	defaultListenAddr       = ":5001"
	defaultSSLMode          = "disable"
	defaultMaxOpenConns     = 25
	defaultMaxIdleConns     = 25

	// DevelopmentSecretKey signs sessions when SECRET_KEY is not configured.
	DevelopmentSecretKey = "dev-secret-key-change-me"
)

// Config is built once at startup and handed to every component that needs it.
type Config struct {
	DatabaseURL      string `yaml:"database_url"`
	SecretKey        string `yaml:"secret_key"`
	PostgresUser     string `yaml:"postgres_user"`
	PostgresPassword string `yaml:"postgres_password"`
	PostgresHost     string `yaml:"postgres_host"`
	PostgresPort     string `yaml:"postgres_port"`
	PostgresDB       string `yaml:"postgres_db"`

	ListenAddr       string `yaml:"listen_addr"`
	MonitoringAPIKey string `yaml:"monitoring_api_key"`
	DBSSLMode        string `yaml:"db_sslmode"`
	DBMaxOpenConns   int    `yaml:"db_max_open_conns"`
	DBMaxIdleConns   int    `yaml:"db_max_idle_conns"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		PostgresUser:     defaultPostgresUser,
		PostgresPassword: defaultPostgresPassword,
		PostgresHost:     defaultPostgresHost,
		PostgresPort:     defaultPostgresPort,
		PostgresDB:       defaultPostgresDB,
		ListenAddr:       defaultListenAddr,
		DBSSLMode:        defaultSSLMode,
		DBMaxOpenConns:   defaultMaxOpenConns,
		DBMaxIdleConns:   defaultMaxIdleConns,
	}
}

// Load layers defaults, the optional YAML file named by CONFIG_FILE and the
// process environment, in that order.
func Load() (Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}

	cfg.applyEnv(os.LookupEnv)

	if strings.TrimSpace(cfg.SecretKey) == "" {
		log.Printf("SECRET_KEY is not set, using the development key")
		cfg.SecretKey = DevelopmentSecretKey
	}

	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fromFile Config
	if err := yaml.Unmarshal(raw, &fromFile); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	overrideString(&c.DatabaseURL, fromFile.DatabaseURL)
	overrideString(&c.SecretKey, fromFile.SecretKey)
	overrideString(&c.PostgresUser, fromFile.PostgresUser)
	overrideString(&c.PostgresPassword, fromFile.PostgresPassword)
	overrideString(&c.PostgresHost, fromFile.PostgresHost)
	overrideString(&c.PostgresPort, fromFile.PostgresPort)
	overrideString(&c.PostgresDB, fromFile.PostgresDB)
	overrideString(&c.ListenAddr, fromFile.ListenAddr)
	overrideString(&c.MonitoringAPIKey, fromFile.MonitoringAPIKey)
	overrideString(&c.DBSSLMode, fromFile.DBSSLMode)
	if fromFile.DBMaxOpenConns > 0 {
		c.DBMaxOpenConns = fromFile.DBMaxOpenConns
	}
	if fromFile.DBMaxIdleConns > 0 {
		c.DBMaxIdleConns = fromFile.DBMaxIdleConns
	}
	return nil
}

// applyEnv lets non-empty environment values win over everything else.
func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	get := func(key string) string {
		value, _ := lookup(key)
		return strings.TrimSpace(value)
	}

	overrideString(&c.DatabaseURL, get("DATABASE_URL"))
	overrideString(&c.SecretKey, get("SECRET_KEY"))
	overrideString(&c.PostgresUser, get("POSTGRES_USER"))
	overrideString(&c.PostgresPassword, get("POSTGRES_PASSWORD"))
	overrideString(&c.PostgresHost, get("POSTGRES_HOST"))
	overrideString(&c.PostgresPort, get("POSTGRES_PORT"))
	overrideString(&c.PostgresDB, get("POSTGRES_DB"))
	overrideString(&c.MonitoringAPIKey, get("MONITORING_API_KEY"))
	overrideString(&c.DBSSLMode, get("DB_SSLMODE"))

	if port := get("PORT"); port != "" {
		c.ListenAddr = ":" + strings.TrimPrefix(port, ":")
	}

	c.DBMaxOpenConns = positiveIntOrDefault("DB_MAX_OPEN_CONNS", get("DB_MAX_OPEN_CONNS"), c.DBMaxOpenConns)
	c.DBMaxIdleConns = positiveIntOrDefault("DB_MAX_IDLE_CONNS", get("DB_MAX_IDLE_CONNS"), c.DBMaxIdleConns)
}

// DatabaseURI returns DATABASE_URL when set, otherwise the URI assembled from
// the POSTGRES_* settings.
func (c Config) DatabaseURI() string {
	if strings.TrimSpace(c.DatabaseURL) != "" {
		return c.DatabaseURL
	}
	return BuildPostgresURI(c)
}

// BuildPostgresURI formats the connection URI from the discrete Postgres fields.
func BuildPostgresURI(c Config) string {
	return fmt.Sprintf("postgresql+psycopg2://%s:%s@%s:%s/%s",
		c.PostgresUser,
		c.PostgresPassword,
		c.PostgresHost,
		c.PostgresPort,
		c.PostgresDB,
	)
}

func overrideString(target *string, value string) {
	if value != "" {
		*target = value
	}
}

func positiveIntOrDefault(key string, raw string, defaultValue int) int {
	if raw == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		log.Printf("Invalid %s=%q, using default %d", key, raw, defaultValue)
		return defaultValue
	}

	return value
}

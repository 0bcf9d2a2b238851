package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Драйверы хранилища
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config содержит конфигурацию приложения
type Config struct {
	HTTPAddr    string
	StoreDriver string // postgres | sqlite | memory

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	SQLitePath string
	SeedFile   string // YAML с начальными данными для memory/sqlite
	SeedWatch  bool   // memory: перечитывать SeedFile при изменении

	// Ночной пересчёт нагрузок
	RecalibrationCron   string // cron с секундами
	RecalibrationDryRun bool

	LogLevel  string
	LogFormat string // console | json

	RequestTimeout time.Duration
}

// fileConfig - необязательный YAML-файл (CONFIG_FILE). Переменные окружения важнее.
type fileConfig struct {
	HTTPAddr    string `yaml:"http_addr"`
	StoreDriver string `yaml:"store_driver"`
	Database    struct {
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
	} `yaml:"database"`
	SQLitePath    string `yaml:"sqlite_path"`
	SeedFile      string `yaml:"seed_file"`
	SeedWatch     string `yaml:"seed_watch"`
	Recalibration struct {
		Cron   string `yaml:"cron"`
		DryRun string `yaml:"dry_run"`
	} `yaml:"recalibration"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	RequestTimeout string `yaml:"request_timeout"`
}

// Load загружает конфигурацию из переменных окружения, .env файла и YAML (CONFIG_FILE)
func Load() (*Config, error) {
	return load(".env")
}

func load(envFile string) (*Config, error) {
	env, err := loadEnvFile(envFile)
	if err != nil {
		env = make(map[string]string)
	}

	lookup := func(key string) string {
		if value := os.Getenv(key); value != "" {
			return value
		}
		return env[key]
	}

	var file fileConfig
	if path := lookup("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("чтение %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("разбор %s: %w", path, err)
		}
	}

	// getEnv: окружение, затем .env, затем YAML, затем значение по умолчанию
	getEnv := func(key, fromFile, defaultValue string) string {
		if value := lookup(key); value != "" {
			return value
		}
		if fromFile != "" {
			return fromFile
		}
		return defaultValue
	}

	cfg := &Config{
		HTTPAddr:    getEnv("HTTP_ADDR", file.HTTPAddr, ":8080"),
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", file.StoreDriver, DriverPostgres)),

		DBHost:     getEnv("DB_HOST", file.Database.Host, "localhost"),
		DBPort:     getEnv("DB_PORT", file.Database.Port, "5432"),
		DBUser:     getEnv("DB_USER", file.Database.User, "postgres"),
		DBPassword: getEnv("DB_PASSWORD", file.Database.Password, ""),
		DBName:     getEnv("DB_NAME", file.Database.Name, "postgres"),

		SQLitePath: getEnv("SQLITE_PATH", file.SQLitePath, "gymcoach.db"),
		SeedFile:   getEnv("SEED_FILE", file.SeedFile, ""),

		RecalibrationCron: getEnv("RECALIBRATION_CRON", file.Recalibration.Cron, "0 0 3 * * *"),

		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", file.Log.Level, "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", file.Log.Format, "console")),
	}

	seedWatch := getEnv("SEED_WATCH", file.SeedWatch, "false")
	if cfg.SeedWatch, err = strconv.ParseBool(seedWatch); err != nil {
		return nil, fmt.Errorf("SEED_WATCH: %w", err)
	}
	dryRun := getEnv("RECALIBRATION_DRY_RUN", file.Recalibration.DryRun, "false")
	if cfg.RecalibrationDryRun, err = strconv.ParseBool(dryRun); err != nil {
		return nil, fmt.Errorf("RECALIBRATION_DRY_RUN: %w", err)
	}
	timeout := getEnv("REQUEST_TIMEOUT", file.RequestTimeout, "15s")
	if cfg.RequestTimeout, err = time.ParseDuration(timeout); err != nil {
		return nil, fmt.Errorf("REQUEST_TIMEOUT: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет согласованность настроек
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DBName == "" {
			return fmt.Errorf("DB_NAME не задан")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH не задан")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("неизвестный STORE_DRIVER %q", c.StoreDriver)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("неизвестный LOG_FORMAT %q", c.LogFormat)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT должен быть положительным")
	}
	return nil
}

// DSN возвращает строку подключения к базе данных
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName,
	)
}

// loadEnvFile читает .env файл
func loadEnvFile(filename string) (map[string]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	env := make(map[string]string)
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		value = strings.Trim(value, `"'`)

		env[key] = value
	}

	return env, scanner.Err()
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Notify   NotifyConfig
	Monitor  MonitorConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines API authentication parameters. OperatorPasswordHash
// is a bcrypt hash; while it is unset no operator token can be issued,
// so the authenticated API group stays unreachable until credentials
// are configured.
type AuthConfig struct {
	JWTSecret            string
	TokenTTLMinutes      int
	OperatorName         string
	OperatorPasswordHash string
}

// NotifyConfig holds alert dispatch settings. Scope configs may override
// the webhook URL per scope.
type NotifyConfig struct {
	WebhookURL     string
	TimeoutSeconds int
}

// MonitorConfig drives the background scheduler. Values can come from the
// environment or from an optional YAML file referenced by
// MONITOR_CONFIG_FILE; the file wins where both are set.
type MonitorConfig struct {
	SLAScanSeconds         int     `yaml:"sla_scan_seconds"`
	MaintenanceScanSeconds int     `yaml:"maintenance_scan_seconds"`
	AutoCloseScanSeconds   int     `yaml:"auto_close_scan_seconds"`
	MetricsScanSeconds     int     `yaml:"metrics_scan_seconds"`
	ShutdownTimeoutSeconds int     `yaml:"shutdown_timeout_seconds"`
	WarningThresholdPct    float64 `yaml:"warning_threshold_pct"`
	AggregationWindowDays  int     `yaml:"aggregation_window_days"`
	CallTimeoutSeconds     int     `yaml:"call_timeout_seconds"`
}

// Load reads configuration from environment variables, applying defaults
// where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "ticket-lifecycle"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:            getEnv("AUTH_JWT_SECRET", "dev-secret"),
			TokenTTLMinutes:      getEnvAsInt("AUTH_TOKEN_TTL_MINUTES", 60),
			OperatorName:         getEnv("AUTH_OPERATOR_NAME", "operator"),
			OperatorPasswordHash: os.Getenv("AUTH_OPERATOR_PASSWORD_HASH"),
		},
		Notify: NotifyConfig{
			WebhookURL:     getEnv("NOTIFY_WEBHOOK_URL", ""),
			TimeoutSeconds: getEnvAsInt("NOTIFY_TIMEOUT_SECONDS", 5),
		},
		Monitor: MonitorConfig{
			SLAScanSeconds:         getEnvAsInt("MONITOR_SLA_SCAN_SECONDS", 60),
			MaintenanceScanSeconds: getEnvAsInt("MONITOR_MAINTENANCE_SCAN_SECONDS", 60),
			AutoCloseScanSeconds:   getEnvAsInt("MONITOR_AUTO_CLOSE_SCAN_SECONDS", 3600),
			MetricsScanSeconds:     getEnvAsInt("MONITOR_METRICS_SCAN_SECONDS", 1800),
			ShutdownTimeoutSeconds: getEnvAsInt("MONITOR_SHUTDOWN_TIMEOUT_SECONDS", 10),
			WarningThresholdPct:    getEnvAsFloat("MONITOR_WARNING_THRESHOLD_PCT", 75),
			AggregationWindowDays:  getEnvAsInt("MONITOR_AGGREGATION_WINDOW_DAYS", 30),
			CallTimeoutSeconds:     getEnvAsInt("MONITOR_CALL_TIMEOUT_SECONDS", 10),
		},
	}

	if file := os.Getenv("MONITOR_CONFIG_FILE"); file != "" {
		if err := loadMonitorFile(file, &cfg.Monitor); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func loadMonitorFile(path string, monitor *MonitorConfig) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read monitor config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(content, monitor); err != nil {
		return fmt.Errorf("parse monitor config %s: %w", path, err)
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// SLAScanInterval returns the SLA scan cadence.
func (m MonitorConfig) SLAScanInterval() time.Duration {
	return secondsOrDefault(m.SLAScanSeconds, 60*time.Second)
}

// MaintenanceScanInterval returns the maintenance scan cadence.
func (m MonitorConfig) MaintenanceScanInterval() time.Duration {
	return secondsOrDefault(m.MaintenanceScanSeconds, 60*time.Second)
}

// AutoCloseScanInterval returns the auto-close scan cadence.
func (m MonitorConfig) AutoCloseScanInterval() time.Duration {
	return secondsOrDefault(m.AutoCloseScanSeconds, time.Hour)
}

// MetricsScanInterval returns the staff-metrics refresh cadence.
func (m MonitorConfig) MetricsScanInterval() time.Duration {
	return secondsOrDefault(m.MetricsScanSeconds, 30*time.Minute)
}

// ShutdownTimeout bounds how long Stop waits for scan loops to exit.
func (m MonitorConfig) ShutdownTimeout() time.Duration {
	return secondsOrDefault(m.ShutdownTimeoutSeconds, 10*time.Second)
}

// CallTimeout bounds each repository call and notification dispatch.
func (m MonitorConfig) CallTimeout() time.Duration {
	return secondsOrDefault(m.CallTimeoutSeconds, 10*time.Second)
}

// AggregationWindow returns the closed-ticket lookback for staff metrics.
func (m MonitorConfig) AggregationWindow() time.Duration {
	days := m.AggregationWindowDays
	if days <= 0 {
		days = 30
	}
	return time.Duration(days) * 24 * time.Hour
}

func secondsOrDefault(seconds int, fallback time.Duration) time.Duration {
	if seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

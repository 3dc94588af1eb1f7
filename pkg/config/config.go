package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Log       LogConfig
	Engine    EngineConfig
	SMTP      SMTPConfig
	Scheduler SchedulerConfig
	Summary   SummaryConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// EngineConfig tunes risk aggregation and notification cadence.
type EngineConfig struct {
	InactivityThreshold time.Duration
	MinNotifyInterval   time.Duration
	QueryChunkSize      int
}

// SMTPConfig configures the outbound mail channel.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SchedulerConfig controls the periodic pipeline trigger.
type SchedulerConfig struct {
	Enabled      bool
	TickInterval time.Duration
	Leader       bool
	LockKey      string
	LockTTL      time.Duration
}

// SummaryConfig governs caching for the on-demand risk summary endpoint.
type SummaryConfig struct {
	CacheTTL time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	chunkSize := v.GetInt("ENGINE_QUERY_CHUNK_SIZE")
	if chunkSize <= 0 {
		chunkSize = 10
	}
	cfg.Engine = EngineConfig{
		InactivityThreshold: parseDuration(v.GetString("ENGINE_INACTIVITY_THRESHOLD"), 7*24*time.Hour),
		MinNotifyInterval:   parseDuration(v.GetString("ENGINE_MIN_NOTIFY_INTERVAL"), 24*time.Hour),
		QueryChunkSize:      chunkSize,
	}

	cfg.SMTP = SMTPConfig{
		Host:     v.GetString("SMTP_HOST"),
		Port:     v.GetInt("SMTP_PORT"),
		Username: v.GetString("SMTP_USERNAME"),
		Password: v.GetString("SMTP_PASSWORD"),
		From:     v.GetString("SMTP_FROM"),
	}
	if cfg.SMTP.From == "" {
		cfg.SMTP.From = cfg.SMTP.Username
	}

	cfg.Scheduler = SchedulerConfig{
		Enabled:      v.GetBool("SCHEDULER_ENABLED"),
		TickInterval: parseDuration(v.GetString("SCHEDULER_TICK_INTERVAL"), time.Minute),
		Leader:       v.GetBool("SCHEDULER_LEADER"),
		LockKey:      v.GetString("SCHEDULER_LOCK_KEY"),
		LockTTL:      parseDuration(v.GetString("SCHEDULER_LOCK_TTL"), 90*time.Second),
	}

	cfg.Summary = SummaryConfig{
		CacheTTL: parseDuration(v.GetString("SUMMARY_CACHE_TTL"), 5*time.Minute),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "prep_compliance")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENGINE_INACTIVITY_THRESHOLD", "168h")
	v.SetDefault("ENGINE_MIN_NOTIFY_INTERVAL", "24h")
	v.SetDefault("ENGINE_QUERY_CHUNK_SIZE", 10)

	v.SetDefault("SMTP_HOST", "smtp.gmail.com")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_FROM", "")

	v.SetDefault("SCHEDULER_ENABLED", true)
	v.SetDefault("SCHEDULER_TICK_INTERVAL", "60s")
	v.SetDefault("SCHEDULER_LEADER", true)
	v.SetDefault("SCHEDULER_LOCK_KEY", "compliance:scheduler:leader")
	v.SetDefault("SCHEDULER_LOCK_TTL", "90s")

	v.SetDefault("SUMMARY_CACHE_TTL", "5m")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

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

	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	CORS         CORSConfig
	Log          LogConfig
	Funding      FundingConfig
	Assessments  AssessmentConfig
	Restrictions RestrictionsConfig
	Eligibility  EligibilityConfig
	Appeals      AppealsConfig
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
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// FundingConfig governs the e-Cert candidate selection window and batch exports.
type FundingConfig struct {
	AnticipationDays int
	ExportEnabled    bool
}

// AssessmentConfig tunes the assessment work queue and the stale-item retry sweep.
type AssessmentConfig struct {
	RetryThreshold    time.Duration
	SweepInterval     time.Duration
	WorkerConcurrency int
	QueueBufferSize   int
}

// RestrictionsConfig gates the federal snapshot import cycle.
type RestrictionsConfig struct {
	ImportEnabled bool
}

// EligibilityConfig tunes cached eligibility summaries.
type EligibilityConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// AppealsConfig gates appeal decision processing.
type AppealsConfig struct {
	Enabled bool
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
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	anticipation := v.GetInt("FUNDING_ANTICIPATION_DAYS")
	if anticipation <= 0 {
		anticipation = 5
	}
	cfg.Funding = FundingConfig{
		AnticipationDays: anticipation,
		ExportEnabled:    v.GetBool("FUNDING_EXPORT_ENABLED"),
	}

	workers := v.GetInt("ASSESSMENT_WORKER_CONCURRENCY")
	if workers <= 0 {
		workers = 2
	}
	cfg.Assessments = AssessmentConfig{
		RetryThreshold:    parseDuration(v.GetString("ASSESSMENT_RETRY_THRESHOLD"), 4*time.Hour),
		SweepInterval:     parseDuration(v.GetString("ASSESSMENT_SWEEP_INTERVAL"), 30*time.Minute),
		WorkerConcurrency: workers,
		QueueBufferSize:   v.GetInt("ASSESSMENT_QUEUE_BUFFER"),
	}

	cfg.Restrictions = RestrictionsConfig{
		ImportEnabled: v.GetBool("RESTRICTIONS_IMPORT_ENABLED"),
	}

	cfg.Eligibility = EligibilityConfig{
		CacheEnabled: v.GetBool("ELIGIBILITY_CACHE_ENABLED"),
		CacheTTL:     parseDuration(v.GetString("ELIGIBILITY_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Appeals = AppealsConfig{
		Enabled: v.GetBool("ENABLE_APPEALS"),
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
	v.SetDefault("DB_NAME", "fas_core")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("FUNDING_ANTICIPATION_DAYS", 5)
	v.SetDefault("FUNDING_EXPORT_ENABLED", true)

	v.SetDefault("ASSESSMENT_RETRY_THRESHOLD", "4h")
	v.SetDefault("ASSESSMENT_SWEEP_INTERVAL", "30m")
	v.SetDefault("ASSESSMENT_WORKER_CONCURRENCY", 2)
	v.SetDefault("ASSESSMENT_QUEUE_BUFFER", 64)

	v.SetDefault("RESTRICTIONS_IMPORT_ENABLED", true)

	v.SetDefault("ELIGIBILITY_CACHE_ENABLED", true)
	v.SetDefault("ELIGIBILITY_CACHE_TTL", "10m")

	v.SetDefault("ENABLE_APPEALS", true)
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

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string         `mapstructure:"environment"`
	LogLevel    string         `mapstructure:"log_level"`
	Server      ServerConfig   `mapstructure:"server"`
	Database    DatabaseConfig `mapstructure:"database"`
	Redis       RedisConfig    `mapstructure:"redis"`
	Telegram    TelegramConfig `mapstructure:"telegram"`
	Engine      EngineConfig   `mapstructure:"engine"`
	Security    SecurityConfig `mapstructure:"security"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

// EngineConfig carries the decision engine's tunables. Defaults mirror the
// documented contract: 1M high-liquidity threshold, 50% APY ceiling, 30-day
// history retention, 7-point feature window.
type EngineConfig struct {
	HighLiquidityThreshold float64  `mapstructure:"high_liquidity_threshold"`
	APYCeiling             float64  `mapstructure:"apy_ceiling"`
	KnownProtocols         []string `mapstructure:"known_protocols"`
	RetentionDays          int      `mapstructure:"retention_days"`
	WindowSize             int      `mapstructure:"window_size"`
	MinAPY                 float64  `mapstructure:"min_apy"`
	PrincipalUSD           float64  `mapstructure:"principal_usd"`
	PredictionCacheTTL     string   `mapstructure:"prediction_cache_ttl"`
	AgentName              string   `mapstructure:"agent_name"`
	AgentVersion           string   `mapstructure:"agent_version"`
}

type SecurityConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" json:"-" yaml:"-"`
	JWTExpiry string `mapstructure:"jwt_expiry"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.BindEnv("security.jwt_secret", "JWT_SECRET"); err != nil {
		return nil, fmt.Errorf("failed to bind JWT_SECRET environment variable: %w", err)
	}
	if err := viper.BindEnv("telegram.bot_token", "TELEGRAM_BOT_TOKEN"); err != nil {
		return nil, fmt.Errorf("failed to bind TELEGRAM_BOT_TOKEN environment variable: %w", err)
	}

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	environment := strings.ToLower(config.Environment)

	if environment != "development" && config.Security.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable is required in non-development environments")
	}

	if config.Security.JWTExpiry != "" {
		if _, err := time.ParseDuration(config.Security.JWTExpiry); err != nil {
			return nil, fmt.Errorf("invalid JWT expiry duration: %w", err)
		}
	}

	if config.Engine.PredictionCacheTTL != "" {
		if _, err := time.ParseDuration(config.Engine.PredictionCacheTTL); err != nil {
			return nil, fmt.Errorf("invalid prediction cache TTL: %w", err)
		}
	}

	if config.Engine.WindowSize < 2 {
		return nil, fmt.Errorf("engine window_size must be at least 2, got %d", config.Engine.WindowSize)
	}

	config.Environment = environment

	return &config, nil
}

func setDefaults() {
	// Environment
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Database
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "poolscout")
	viper.SetDefault("database.sslmode", "disable")

	// Redis
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Telegram
	viper.SetDefault("telegram.bot_token", "")
	viper.SetDefault("telegram.chat_id", "")

	// Engine
	viper.SetDefault("engine.high_liquidity_threshold", 1000000.0)
	viper.SetDefault("engine.apy_ceiling", 50.0)
	viper.SetDefault("engine.known_protocols", []string{"pancakeswap", "venus", "alpaca", "uniswap", "aave"})
	viper.SetDefault("engine.retention_days", 30)
	viper.SetDefault("engine.window_size", 7)
	viper.SetDefault("engine.min_apy", 5.0)
	viper.SetDefault("engine.principal_usd", 1000.0)
	viper.SetDefault("engine.prediction_cache_ttl", "5m")
	viper.SetDefault("engine.agent_name", "poolscout")
	viper.SetDefault("engine.agent_version", "1.0.0")

	// Security
	viper.SetDefault("security.jwt_secret", "")
	viper.SetDefault("security.jwt_expiry", "24h")
}

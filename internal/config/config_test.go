package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_WithDefaults(t *testing.T) {
	config, err := Load()
	require.NoError(t, err)
	require.NotNil(t, config)

	assert.Equal(t, "development", config.Environment)
	assert.Equal(t, "info", config.LogLevel)
	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, config.Server.AllowedOrigins)
	assert.Equal(t, "localhost", config.Database.Host)
	assert.Equal(t, 5432, config.Database.Port)
	assert.Equal(t, "postgres", config.Database.User)
	assert.Equal(t, "poolscout", config.Database.DBName)
	assert.Equal(t, "disable", config.Database.SSLMode)
	assert.Equal(t, "localhost", config.Redis.Host)
	assert.Equal(t, 6379, config.Redis.Port)
	assert.Equal(t, 0, config.Redis.DB)
	assert.Equal(t, "", config.Telegram.BotToken)
	assert.Equal(t, "", config.Telegram.ChatID)

	assert.Equal(t, 1000000.0, config.Engine.HighLiquidityThreshold)
	assert.Equal(t, 50.0, config.Engine.APYCeiling)
	assert.Equal(t, []string{"pancakeswap", "venus", "alpaca", "uniswap", "aave"}, config.Engine.KnownProtocols)
	assert.Equal(t, 30, config.Engine.RetentionDays)
	assert.Equal(t, 7, config.Engine.WindowSize)
	assert.Equal(t, 5.0, config.Engine.MinAPY)
	assert.Equal(t, 1000.0, config.Engine.PrincipalUSD)
	assert.Equal(t, "5m", config.Engine.PredictionCacheTTL)
	assert.Equal(t, "poolscout", config.Engine.AgentName)
	assert.Equal(t, "24h", config.Security.JWTExpiry)
}

func TestLoad_WithEnvironmentVariables(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("DATABASE_HOST", "prod-db.example.com")
	t.Setenv("DATABASE_DBNAME", "prod_db")
	t.Setenv("REDIS_HOST", "prod-redis.example.com")
	t.Setenv("REDIS_DB", "1")
	t.Setenv("ENGINE_MIN_APY", "7.5")
	t.Setenv("ENGINE_WINDOW_SIZE", "5")
	t.Setenv("TELEGRAM_BOT_TOKEN", "prod_bot_token")

	config, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "error", config.LogLevel)
	assert.Equal(t, 9000, config.Server.Port)
	assert.Equal(t, "prod-db.example.com", config.Database.Host)
	assert.Equal(t, "prod_db", config.Database.DBName)
	assert.Equal(t, "prod-redis.example.com", config.Redis.Host)
	assert.Equal(t, 1, config.Redis.DB)
	assert.Equal(t, 7.5, config.Engine.MinAPY)
	assert.Equal(t, 5, config.Engine.WindowSize)
	assert.Equal(t, "prod_bot_token", config.Telegram.BotToken)
}

func TestLoad_RequiresJWTSecretOutsideDevelopment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	t.Setenv("JWT_SECRET", "super-secret")

	config, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "production", config.Environment)
	assert.Equal(t, "super-secret", config.Security.JWTSecret)
}

func TestLoad_NormalizesEnvironmentCase(t *testing.T) {
	t.Setenv("ENVIRONMENT", "Production")
	t.Setenv("JWT_SECRET", "super-secret")

	config, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "production", config.Environment)
}

func TestLoad_RejectsInvalidCacheTTL(t *testing.T) {
	t.Setenv("ENGINE_PREDICTION_CACHE_TTL", "five minutes")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prediction cache TTL")
}

func TestLoad_RejectsTooSmallWindow(t *testing.T) {
	t.Setenv("ENGINE_WINDOW_SIZE", "1")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "window_size")
}

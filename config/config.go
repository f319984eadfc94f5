package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"sevenms-trading-bot/internal/api"
	"sevenms-trading-bot/internal/auth"
	"sevenms-trading-bot/internal/database"
	"sevenms-trading-bot/internal/logging"
	"sevenms-trading-bot/internal/pipeline"
	"sevenms-trading-bot/internal/scheduler"
	"sevenms-trading-bot/internal/vault"
)

type Config struct {
	BridgeConfig    BridgeConfig     `json:"bridge"`
	PipelineConfig  pipeline.Config  `json:"pipeline"`
	ServerConfig    api.ServerConfig `json:"server"`
	AuthConfig      auth.Config      `json:"auth"`
	DatabaseConfig  database.Config  `json:"database"`
	RedisConfig     RedisConfig      `json:"redis"`
	VaultConfig     vault.Config     `json:"vault"`
	SchedulerConfig scheduler.Config `json:"scheduler"`
	LoggingConfig   logging.Config   `json:"logging"`
}

// BridgeConfig holds MT5 bridge connection settings. MockMode swaps the
// bridge for simulated candles and a paper execution client.
type BridgeConfig struct {
	BaseURL   string `json:"base_url"`
	AuthToken string `json:"auth_token"`
	MockMode  bool   `json:"mock_mode"`
	VaultEnv  string `json:"vault_env"` // vault environment name, e.g. "live" or "demo"
}

// RedisConfig holds Redis settings for the approval request store
type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
}

func Load() (*Config, error) {
	// Base config from file, environment variables take precedence
	cfg, err := loadFromFile("config.json")
	if err != nil {
		cfg = &Config{}
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	// Bridge config
	cfg.BridgeConfig.BaseURL = getEnvOrDefault("BRIDGE_BASE_URL", cfg.BridgeConfig.BaseURL)
	if cfg.BridgeConfig.BaseURL == "" {
		cfg.BridgeConfig.BaseURL = "http://localhost:5001"
	}
	cfg.BridgeConfig.AuthToken = getEnvOrDefault("BRIDGE_AUTH_TOKEN", cfg.BridgeConfig.AuthToken)
	cfg.BridgeConfig.MockMode = getEnvOrDefault("MOCK_MODE", boolString(cfg.BridgeConfig.MockMode)) == "true"
	cfg.BridgeConfig.VaultEnv = getEnvOrDefault("BRIDGE_VAULT_ENV", orDefault(cfg.BridgeConfig.VaultEnv, "live"))

	// Pipeline config
	cfg.PipelineConfig.Symbol = getEnvOrDefault("PIPELINE_SYMBOL", cfg.PipelineConfig.Symbol)
	cfg.PipelineConfig.Volume = getEnvFloatOrDefault("PIPELINE_VOLUME", cfg.PipelineConfig.Volume)
	cfg.PipelineConfig.BufferPips = getEnvFloatOrDefault("PIPELINE_BUFFER_PIPS", cfg.PipelineConfig.BufferPips)
	cfg.PipelineConfig.Comment = getEnvOrDefault("PIPELINE_COMMENT", cfg.PipelineConfig.Comment)

	// Server config
	cfg.ServerConfig.Host = getEnvOrDefault("WEB_HOST", orDefault(cfg.ServerConfig.Host, "0.0.0.0"))
	cfg.ServerConfig.Port = getEnvIntOrDefault("WEB_PORT", intOrDefault(cfg.ServerConfig.Port, 8090))
	cfg.ServerConfig.ProductionMode = getEnvOrDefault("PRODUCTION_MODE", boolString(cfg.ServerConfig.ProductionMode)) == "true"

	// Auth config
	cfg.AuthConfig.Enabled = getEnvOrDefault("AUTH_ENABLED", boolString(cfg.AuthConfig.Enabled)) == "true"
	cfg.AuthConfig.JWTSecret = getEnvOrDefault("AUTH_JWT_SECRET", cfg.AuthConfig.JWTSecret)
	cfg.AuthConfig.OperatorUsername = getEnvOrDefault("AUTH_OPERATOR_USERNAME", cfg.AuthConfig.OperatorUsername)
	cfg.AuthConfig.OperatorPasswordH = getEnvOrDefault("AUTH_OPERATOR_PASSWORD_HASH", cfg.AuthConfig.OperatorPasswordH)
	cfg.AuthConfig.AccessTokenMinutes = getEnvIntOrDefault("AUTH_ACCESS_TOKEN_MINUTES", intOrDefault(cfg.AuthConfig.AccessTokenMinutes, 60))
	cfg.AuthConfig.RefreshTokenHours = getEnvIntOrDefault("AUTH_REFRESH_TOKEN_HOURS", intOrDefault(cfg.AuthConfig.RefreshTokenHours, 168))

	// Database config
	cfg.DatabaseConfig.Enabled = getEnvOrDefault("DB_ENABLED", boolString(cfg.DatabaseConfig.Enabled)) == "true"
	cfg.DatabaseConfig.Host = getEnvOrDefault("DB_HOST", orDefault(cfg.DatabaseConfig.Host, "localhost"))
	cfg.DatabaseConfig.Port = getEnvIntOrDefault("DB_PORT", intOrDefault(cfg.DatabaseConfig.Port, 5432))
	cfg.DatabaseConfig.User = getEnvOrDefault("DB_USER", orDefault(cfg.DatabaseConfig.User, "postgres"))
	cfg.DatabaseConfig.Password = getEnvOrDefault("DB_PASSWORD", cfg.DatabaseConfig.Password)
	cfg.DatabaseConfig.Database = getEnvOrDefault("DB_NAME", orDefault(cfg.DatabaseConfig.Database, "sevenms"))
	cfg.DatabaseConfig.SSLMode = getEnvOrDefault("DB_SSLMODE", orDefault(cfg.DatabaseConfig.SSLMode, "disable"))

	// Redis config
	cfg.RedisConfig.Enabled = getEnvOrDefault("REDIS_ENABLED", boolString(cfg.RedisConfig.Enabled)) == "true"
	cfg.RedisConfig.Address = getEnvOrDefault("REDIS_ADDRESS", orDefault(cfg.RedisConfig.Address, "localhost:6379"))
	cfg.RedisConfig.Password = getEnvOrDefault("REDIS_PASSWORD", cfg.RedisConfig.Password)
	cfg.RedisConfig.DB = getEnvIntOrDefault("REDIS_DB", cfg.RedisConfig.DB)
	cfg.RedisConfig.PoolSize = getEnvIntOrDefault("REDIS_POOL_SIZE", intOrDefault(cfg.RedisConfig.PoolSize, 10))

	// Vault config
	cfg.VaultConfig.Enabled = getEnvOrDefault("VAULT_ENABLED", boolString(cfg.VaultConfig.Enabled)) == "true"
	cfg.VaultConfig.Address = getEnvOrDefault("VAULT_ADDR", orDefault(cfg.VaultConfig.Address, "http://localhost:8200"))
	cfg.VaultConfig.Token = getEnvOrDefault("VAULT_TOKEN", cfg.VaultConfig.Token)
	cfg.VaultConfig.MountPath = getEnvOrDefault("VAULT_MOUNT_PATH", orDefault(cfg.VaultConfig.MountPath, "secret"))
	cfg.VaultConfig.TLSEnabled = getEnvOrDefault("VAULT_TLS_ENABLED", boolString(cfg.VaultConfig.TLSEnabled)) == "true"
	cfg.VaultConfig.CACert = getEnvOrDefault("VAULT_CACERT", cfg.VaultConfig.CACert)

	// Scheduler config
	cfg.SchedulerConfig.Enabled = getEnvOrDefault("SCHEDULER_ENABLED", boolString(cfg.SchedulerConfig.Enabled)) == "true"
	cfg.SchedulerConfig.Spec = getEnvOrDefault("SCHEDULER_SPEC", cfg.SchedulerConfig.Spec)
	if symbols := os.Getenv("SCHEDULER_SYMBOLS"); symbols != "" {
		cfg.SchedulerConfig.Symbols = splitSymbols(symbols)
	}

	// Logging config
	cfg.LoggingConfig.Level = getEnvOrDefault("LOG_LEVEL", orDefault(cfg.LoggingConfig.Level, "INFO"))
	cfg.LoggingConfig.Output = getEnvOrDefault("LOG_OUTPUT", orDefault(cfg.LoggingConfig.Output, "stdout"))
	cfg.LoggingConfig.JSONFormat = getEnvOrDefault("LOG_JSON", boolString(cfg.LoggingConfig.JSONFormat)) == "true"
}

// Validate rejects configs that cannot produce a working process
func (c *Config) Validate() error {
	if c.AuthConfig.Enabled {
		if c.AuthConfig.JWTSecret == "" {
			return fmt.Errorf("auth is enabled but AUTH_JWT_SECRET is not set")
		}
		if c.AuthConfig.OperatorUsername == "" || c.AuthConfig.OperatorPasswordH == "" {
			return fmt.Errorf("auth is enabled but operator credentials are not set")
		}
	}
	if !c.BridgeConfig.MockMode && !c.VaultConfig.Enabled && c.BridgeConfig.BaseURL == "" {
		return fmt.Errorf("bridge base URL is required outside mock mode")
	}
	return nil
}

func loadFromFile(filename string) (*Config, error) {
	file, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return &config, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func orDefault(value, defaultValue string) string {
	if value != "" {
		return value
	}
	return defaultValue
}

func intOrDefault(value, defaultValue int) int {
	if value != 0 {
		return value
	}
	return defaultValue
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func splitSymbols(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// GenerateSampleConfig creates a sample configuration file
func GenerateSampleConfig(filename string) error {
	config := Config{
		BridgeConfig: BridgeConfig{
			BaseURL:  "http://localhost:5001",
			MockMode: true,
			VaultEnv: "demo",
		},
		PipelineConfig: pipeline.DefaultConfig(),
		ServerConfig: api.ServerConfig{
			Host: "0.0.0.0",
			Port: 8090,
		},
		DatabaseConfig: database.Config{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Database: "sevenms",
			SSLMode:  "disable",
		},
		RedisConfig: RedisConfig{
			Address:  "localhost:6379",
			PoolSize: 10,
		},
		SchedulerConfig: scheduler.Config{
			Spec:    "0 */5 * * * *",
			Symbols: []string{"XAUUSD"},
		},
		LoggingConfig: logging.Config{
			Level:      "INFO",
			Output:     "stdout",
			JSONFormat: true,
		},
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filename, data, 0644)
}

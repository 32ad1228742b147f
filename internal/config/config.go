package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
// If FOO_FILE is set, reads the file content and sets FOO.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	fileKey := envKey + "_FILE"
	filePath := os.Getenv(fileKey)
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	val := strings.TrimSpace(string(data))
	os.Setenv(envKey, val)
}

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	Database  DatabaseConfig
	LLM       LLMConfig
	Serper    SerperConfig
	Analysis  AnalysisConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type DatabaseConfig struct {
	URL string
}

type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type SerperConfig struct {
	APIKey string
}

type AnalysisConfig struct {
	DataDir           string
	OutputsDir        string
	MaxUploadMB       int
	MaxRetries        int
	RetryDelaySeconds int
	Concurrency       int
}

type RateLimitConfig struct {
	AnalyzePerHour int
}

func Load() (*Config, error) {
	// Optional .env for local development
	_ = godotenv.Load()

	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret("REDIS_PASSWORD")
	readSecret("POSTGRES_PASSWORD")
	readSecret("OPENAI_API_KEY")
	readSecret("SERPER_API_KEY")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variables
	viper.AutomaticEnv()

	// Bind environment variables with underscores to nested config keys
	_ = viper.BindEnv("server.port", "SERVER_PORT")
	_ = viper.BindEnv("server.env", "SERVER_ENV")
	_ = viper.BindEnv("server.log_level", "LOG_LEVEL")
	_ = viper.BindEnv("redis.addr", "REDIS_ADDR")
	_ = viper.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = viper.BindEnv("redis.db", "REDIS_DB")
	_ = viper.BindEnv("database.url", "DATABASE_URL")
	_ = viper.BindEnv("database.user", "POSTGRES_USER")
	_ = viper.BindEnv("database.password", "POSTGRES_PASSWORD")
	_ = viper.BindEnv("database.host", "POSTGRES_HOST")
	_ = viper.BindEnv("database.port", "POSTGRES_PORT")
	_ = viper.BindEnv("database.name", "POSTGRES_DB")
	_ = viper.BindEnv("llm.api_key", "OPENAI_API_KEY")
	_ = viper.BindEnv("llm.base_url", "OPENAI_BASE_URL")
	_ = viper.BindEnv("llm.model", "OPENAI_MODEL")
	_ = viper.BindEnv("serper.api_key", "SERPER_API_KEY")
	_ = viper.BindEnv("analysis.data_dir", "DATA_DIR")
	_ = viper.BindEnv("analysis.outputs_dir", "OUTPUTS_DIR")
	_ = viper.BindEnv("analysis.max_upload_mb", "MAX_UPLOAD_SIZE_MB")
	_ = viper.BindEnv("analysis.max_retries", "ANALYSIS_MAX_RETRIES")
	_ = viper.BindEnv("analysis.retry_delay_seconds", "ANALYSIS_RETRY_DELAY")
	_ = viper.BindEnv("analysis.concurrency", "WORKER_CONCURRENCY")
	_ = viper.BindEnv("ratelimit.analyze_per_hour", "RATELIMIT_ANALYZE_PER_HOUR")

	// Defaults
	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("server.log_level", "info")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("database.user", "finuser")
	viper.SetDefault("database.password", "finpass")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", "5432")
	viper.SetDefault("database.name", "financial_analyzer")

	// LLM defaults (any OpenAI-compatible endpoint works)
	viper.SetDefault("llm.base_url", "https://api.openai.com/v1")
	viper.SetDefault("llm.model", "gpt-4o-mini")

	// Analysis defaults
	viper.SetDefault("analysis.data_dir", "data")
	viper.SetDefault("analysis.outputs_dir", "outputs")
	viper.SetDefault("analysis.max_upload_mb", 50)
	viper.SetDefault("analysis.max_retries", 2)
	viper.SetDefault("analysis.retry_delay_seconds", 30)
	viper.SetDefault("analysis.concurrency", 10)

	// Rate limit defaults
	viper.SetDefault("ratelimit.analyze_per_hour", 20)

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	dbURL := viper.GetString("database.url")
	if dbURL == "" {
		dbURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
			viper.GetString("database.user"),
			viper.GetString("database.password"),
			viper.GetString("database.host"),
			viper.GetString("database.port"),
			viper.GetString("database.name"),
		)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:     viper.GetString("server.port"),
			Env:      viper.GetString("server.env"),
			LogLevel: viper.GetString("server.log_level"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		Database: DatabaseConfig{
			URL: dbURL,
		},
		LLM: LLMConfig{
			APIKey:  viper.GetString("llm.api_key"),
			BaseURL: viper.GetString("llm.base_url"),
			Model:   viper.GetString("llm.model"),
		},
		Serper: SerperConfig{
			APIKey: viper.GetString("serper.api_key"),
		},
		Analysis: AnalysisConfig{
			DataDir:           viper.GetString("analysis.data_dir"),
			OutputsDir:        viper.GetString("analysis.outputs_dir"),
			MaxUploadMB:       viper.GetInt("analysis.max_upload_mb"),
			MaxRetries:        viper.GetInt("analysis.max_retries"),
			RetryDelaySeconds: viper.GetInt("analysis.retry_delay_seconds"),
			Concurrency:       viper.GetInt("analysis.concurrency"),
		},
		RateLimit: RateLimitConfig{
			AnalyzePerHour: viper.GetInt("ratelimit.analyze_per_hour"),
		},
	}

	return cfg, nil
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all process-level configuration
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
// 시나리오/시뮬레이션 설정은 YAML (internal/simconfig), 여기는 프로세스 환경만
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Simulation inputs
	SimConfigPath string // SIM_CONFIG
	History       HistoryOverride

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Outbound HTTP (HTML history source)
	HTTP HTTPConfig

	// API limits
	API APIConfig

	// Background jobs (api 명령에서만)
	Scheduler SchedulerConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
	MetricsPort    string
}

// HistoryOverride YAML history 설정을 환경변수로 덮어쓰기 (빈 값 = 유지)
type HistoryOverride struct {
	Source string
	Path   string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool

	ModelTTL time.Duration // 국면 모델 캐시 TTL
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	URL      string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// HTTPConfig holds outbound HTTP client configuration
type HTTPConfig struct {
	Timeout    time.Duration
	RateLimit  float64 // requests per second
	RetryCount int
}

// APIConfig holds API server limits
type APIConfig struct {
	SimulationRate  float64 // POST /api/simulations 초당 허용 횟수
	SimulationBurst int
	MaxIterations   int // 요청 1건당 최대 반복 수
	MaxYears        int
}

// SchedulerConfig holds background job schedules (cron 표현식)
type SchedulerConfig struct {
	Enabled      bool
	HistoryCheck string // 시계열 변경 감지
	ModelRefresh string // 국면 모델 캐시 재저장 (Redis 사용 시)
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		// Simulation inputs
		SimConfigPath: getEnv("SIM_CONFIG", "configs/simulation.yaml"),
		History: HistoryOverride{
			Source: getEnv("HISTORY_SOURCE", ""),
			Path:   getEnv("HISTORY_PATH", ""),
		},

		// Database
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			Name:            getEnv("DB_NAME", "ninthball"),
			User:            getEnv("DB_USER", "ninthball"),
			Password:        getEnv("DB_PASSWORD", ""),
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			ModelTTL: getEnvAsDuration("REDIS_MODEL_TTL", "24h"),
		},

		// Outbound HTTP
		HTTP: HTTPConfig{
			Timeout:    getEnvAsDuration("HTTP_TIMEOUT", "30s"),
			RateLimit:  getEnvAsFloat("HTTP_RATE_LIMIT", 2),
			RetryCount: getEnvAsInt("HTTP_RETRY_COUNT", 3),
		},

		// API limits
		API: APIConfig{
			SimulationRate:  getEnvAsFloat("API_SIMULATION_RATE", 1),
			SimulationBurst: getEnvAsInt("API_SIMULATION_BURST", 3),
			MaxIterations:   getEnvAsInt("API_MAX_ITERATIONS", 100000),
			MaxYears:        getEnvAsInt("API_MAX_YEARS", 100),
		},

		// Background jobs
		Scheduler: SchedulerConfig{
			Enabled:      getEnvAsBool("SCHEDULER_ENABLED", true),
			HistoryCheck: getEnv("HISTORY_CHECK_SCHEDULE", "@every 1h"),
			ModelRefresh: getEnv("MODEL_REFRESH_SCHEDULE", "@every 6h"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		MetricsPort:    getEnv("METRICS_PORT", "9090"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	// Database URL is required only when history comes from postgres
	if c.History.Source == "postgres" && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required when HISTORY_SOURCE=postgres")
	}

	switch c.History.Source {
	case "", "csv", "html", "postgres":
	default:
		return fmt.Errorf("HISTORY_SOURCE must be one of: csv, html, postgres")
	}

	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.API.SimulationRate <= 0 || c.API.SimulationBurst < 1 {
		return fmt.Errorf("API_SIMULATION_RATE must be > 0 and API_SIMULATION_BURST >= 1")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env", // Current directory
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

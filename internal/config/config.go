package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for all four services. Each binary
// loads the same structure and uses the sections it needs; nothing here is a
// process-wide global, the loaded value is passed to constructors explicitly.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	JWT      JWTConfig
	Auth     AuthConfig
	Gateway  GatewayConfig
	Frontend FrontendConfig
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

// JWTConfig defines token parameters shared by issuer and verifiers. The
// private key is only ever loaded by the auth service; the raw value takes
// precedence over the path so orchestrators can inject secrets directly.
type JWTConfig struct {
	PrivateKey       string
	PrivateKeyPath   string
	PublicKey        string
	PublicKeyPath    string
	ExpiryHours      int
	ClockSkewSeconds int
}

// AuthConfig defines credential handling parameters for the auth service.
type AuthConfig struct {
	BcryptCost int
}

// GatewayConfig holds downstream base URLs and the proxy timeout.
type GatewayConfig struct {
	AuthServiceURL      string
	TaskServiceURL      string
	FrontendServiceURL  string
	ProxyTimeoutSeconds int
}

// FrontendConfig holds the frontend BFF settings.
type FrontendConfig struct {
	AuthServiceURL    string
	TaskServiceURL    string
	SessionTTLHours   int
	SessionHashKey    string
	CallTimeoutSecond int
}

// Load reads configuration from environment variables, applying defaults
// where possible.
func Load(serviceName string) (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", serviceName),
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
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		JWT: JWTConfig{
			PrivateKey:       os.Getenv("JWT_PRIVATE_KEY"),
			PrivateKeyPath:   os.Getenv("JWT_PRIVATE_KEY_PATH"),
			PublicKey:        os.Getenv("JWT_PUBLIC_KEY"),
			PublicKeyPath:    os.Getenv("JWT_PUBLIC_KEY_PATH"),
			ExpiryHours:      getEnvAsInt("JWT_EXPIRY_HOURS", 24),
			ClockSkewSeconds: getEnvAsInt("JWT_CLOCK_SKEW_SECONDS", 30),
		},
		Auth: AuthConfig{
			BcryptCost: getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Gateway: GatewayConfig{
			AuthServiceURL:      getEnv("AUTH_SERVICE_URL", "http://localhost:8081"),
			TaskServiceURL:      getEnv("TASK_SERVICE_URL", "http://localhost:8082"),
			FrontendServiceURL:  getEnv("FRONTEND_SERVICE_URL", "http://localhost:8083"),
			ProxyTimeoutSeconds: getEnvAsInt("PROXY_TIMEOUT_SECONDS", 10),
		},
		Frontend: FrontendConfig{
			AuthServiceURL:    getEnv("AUTH_SERVICE_URL", "http://localhost:8081"),
			TaskServiceURL:    getEnv("TASK_SERVICE_URL", "http://localhost:8082"),
			SessionTTLHours:   getEnvAsInt("SESSION_TTL_HOURS", 24),
			SessionHashKey:    getEnv("SESSION_HASH_KEY", ""),
			CallTimeoutSecond: getEnvAsInt("DOWNSTREAM_TIMEOUT_SECONDS", 10),
		},
	}

	return cfg, nil
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

// Expiry returns the token lifetime.
func (j JWTConfig) Expiry() time.Duration {
	if j.ExpiryHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(j.ExpiryHours) * time.Hour
}

// ClockSkew returns the expiry leeway tolerated between issuer and verifier.
func (j JWTConfig) ClockSkew() time.Duration {
	if j.ClockSkewSeconds < 0 {
		return 0
	}
	return time.Duration(j.ClockSkewSeconds) * time.Second
}

// HasPrivateKeySource reports whether any private key source is configured.
func (j JWTConfig) HasPrivateKeySource() bool {
	return j.PrivateKey != "" || j.PrivateKeyPath != ""
}

// HasPublicKeySource reports whether any public key source is configured.
func (j JWTConfig) HasPublicKeySource() bool {
	return j.PublicKey != "" || j.PublicKeyPath != ""
}

// ProxyTimeout returns the gateway's per-request downstream timeout.
func (g GatewayConfig) ProxyTimeout() time.Duration {
	if g.ProxyTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(g.ProxyTimeoutSeconds) * time.Second
}

// Validate checks that the gateway can resolve all downstream targets.
func (g GatewayConfig) Validate() error {
	if g.AuthServiceURL == "" || g.TaskServiceURL == "" || g.FrontendServiceURL == "" {
		return fmt.Errorf("gateway requires AUTH_SERVICE_URL, TASK_SERVICE_URL, and FRONTEND_SERVICE_URL")
	}
	return nil
}

// SessionTTL returns the frontend session lifetime.
func (f FrontendConfig) SessionTTL() time.Duration {
	if f.SessionTTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(f.SessionTTLHours) * time.Hour
}

// CallTimeout returns the timeout applied to frontend downstream calls.
func (f FrontendConfig) CallTimeout() time.Duration {
	if f.CallTimeoutSecond <= 0 {
		return 10 * time.Second
	}
	return time.Duration(f.CallTimeoutSecond) * time.Second
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

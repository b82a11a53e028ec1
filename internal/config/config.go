package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvPrefix     = "PLANTDECK"
	devJWTSecret  = "dev-secret-change-in-production-min-32-chars"
	defaultAdmin  = "admin"
	adminPassword = "PLANTDECK_ADMIN_PASSWORD"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Seed      SeedConfig      `mapstructure:"seed"`
	Query     QueryConfig     `mapstructure:"query"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	History   HistoryConfig   `mapstructure:"history"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Mail      MailConfig      `mapstructure:"mail"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type ServerConfig struct {
	GRPCPort        int           `mapstructure:"grpc_port"`
	HTTPPort        int           `mapstructure:"http_port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type AuthConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	JWTSecretEnv   string        `mapstructure:"jwt_secret_env"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
	Users          []UserConfig  `mapstructure:"users"`
}

// UserConfig is one dashboard account; PasswordHash is an argon2id string.
type UserConfig struct {
	Username     string `mapstructure:"username"`
	PasswordHash string `mapstructure:"password_hash"`
	DisplayName  string `mapstructure:"display_name"`
	Email        string `mapstructure:"email"`
}

type SeedConfig struct {
	Plants       int    `mapstructure:"plants"`
	RTUs         int    `mapstructure:"rtus"`
	RandomSeed   uint64 `mapstructure:"random_seed"`
	FixturesPath string `mapstructure:"fixtures_path"`
}

type QueryConfig struct {
	PlantPageSize int `mapstructure:"plant_page_size"`
	RTUPageSize   int `mapstructure:"rtu_page_size"`
	MaxPageSize   int `mapstructure:"max_page_size"`
}

type TelemetryConfig struct {
	Enabled       bool           `mapstructure:"enabled"`
	Devices       []string       `mapstructure:"devices"`
	MinInterval   time.Duration  `mapstructure:"min_interval"`
	MaxInterval   time.Duration  `mapstructure:"max_interval"`
	RandomSeed    uint64         `mapstructure:"random_seed"`
	StatusWeights map[string]int `mapstructure:"status_weights"`
	Redis         RedisConfig    `mapstructure:"redis"`
	MQTT          MQTTConfig     `mapstructure:"mqtt"`
}

type RedisConfig struct {
	Addr          string        `mapstructure:"addr"`
	Password      string        `mapstructure:"password"`
	DB            int           `mapstructure:"db"`
	ChannelPrefix string        `mapstructure:"channel_prefix"`
	LatestTTL     time.Duration `mapstructure:"latest_ttl"`
}

type MQTTConfig struct {
	Broker      string `mapstructure:"broker"`
	ClientID    string `mapstructure:"client_id"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	TopicPrefix string `mapstructure:"topic_prefix"`
}

type HistoryConfig struct {
	Backend     string `mapstructure:"backend"`
	Dir         string `mapstructure:"dir"`
	RecentLimit int    `mapstructure:"recent_limit"`
}

type DatabaseConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	SSLMode        string `mapstructure:"sslmode"`
	MaxConnections int    `mapstructure:"max_connections"`
}

type MailConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	Username    string `mapstructure:"username"`
	PasswordEnv string `mapstructure:"password_env"`
	TLS         bool   `mapstructure:"tls"`
	FromName    string `mapstructure:"from_name"`
	FromAddress string `mapstructure:"from_address"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads path (when non-empty) on top of the built-in defaults, then
// applies PLANTDECK_* environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.grpc_port", 50051)
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.jwt_secret_env", "JWT_SECRET")
	v.SetDefault("auth.access_token_ttl", "12h")

	v.SetDefault("seed.plants", 30)
	v.SetDefault("seed.rtus", 100)
	v.SetDefault("seed.random_seed", 0)
	v.SetDefault("seed.fixtures_path", "")

	v.SetDefault("query.plant_page_size", 10)
	v.SetDefault("query.rtu_page_size", 20)
	v.SetDefault("query.max_page_size", 500)

	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("telemetry.devices", []string{"0001", "0002", "0003", "0004", "0005"})
	v.SetDefault("telemetry.min_interval", "3s")
	v.SetDefault("telemetry.max_interval", "8s")
	v.SetDefault("telemetry.random_seed", 0)
	v.SetDefault("telemetry.status_weights", map[string]int{"online": 70, "warning": 15, "error": 5, "offline": 10})
	v.SetDefault("telemetry.redis.addr", "")
	v.SetDefault("telemetry.redis.password", "")
	v.SetDefault("telemetry.redis.db", 0)
	v.SetDefault("telemetry.redis.channel_prefix", "plantdeck:telemetry")
	v.SetDefault("telemetry.redis.latest_ttl", "0s")
	v.SetDefault("telemetry.mqtt.broker", "")
	v.SetDefault("telemetry.mqtt.client_id", "plantdeck")
	v.SetDefault("telemetry.mqtt.username", "")
	v.SetDefault("telemetry.mqtt.password", "")
	v.SetDefault("telemetry.mqtt.topic_prefix", "plantdeck/telemetry")

	v.SetDefault("history.backend", "file")
	v.SetDefault("history.dir", "data/history")
	v.SetDefault("history.recent_limit", 50)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "plantdeck")
	v.SetDefault("database.user", "plantdeck")
	v.SetDefault("database.password", "")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_connections", 10)

	v.SetDefault("mail.host", "")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password_env", "PLANTDECK_SMTP_PASSWORD")
	v.SetDefault("mail.tls", true)
	v.SetDefault("mail.from_name", "PlantDeck")
	v.SetDefault("mail.from_address", "noreply@plantdeck.local")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port out of range: %d", c.Server.HTTPPort)
	}
	if c.Query.PlantPageSize <= 0 || c.Query.RTUPageSize <= 0 {
		return fmt.Errorf("query page sizes must be positive")
	}
	if c.Query.MaxPageSize < c.Query.PlantPageSize || c.Query.MaxPageSize < c.Query.RTUPageSize {
		return fmt.Errorf("query.max_page_size must not be below the default page sizes")
	}
	if c.Seed.Plants < 0 || c.Seed.RTUs < 0 {
		return fmt.Errorf("seed counts must not be negative")
	}
	if c.Telemetry.MinInterval <= 0 || c.Telemetry.MaxInterval < c.Telemetry.MinInterval {
		return fmt.Errorf("telemetry intervals invalid: min %s, max %s", c.Telemetry.MinInterval, c.Telemetry.MaxInterval)
	}
	switch c.History.Backend {
	case "file", "postgres":
	default:
		return fmt.Errorf("history.backend must be file or postgres, got %q", c.History.Backend)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, sslMode)
}

// GetJWTSecret reads the signing secret from the configured environment
// variable, falling back to a development secret.
func (a *AuthConfig) GetJWTSecret() string {
	envVar := a.JWTSecretEnv
	if envVar == "" {
		envVar = "JWT_SECRET"
	}

	secret := os.Getenv(envVar)
	if secret == "" {
		return devJWTSecret
	}
	return secret
}

// MatchOrigin checks origin against cors_origins entries. "*" allows any
// origin and "*.example.com" allows subdomains. wildcard is set when only a
// bare "*" entry matched.
func MatchOrigin(allowed []string, origin string) (ok, wildcard bool) {
	for _, a := range allowed {
		switch {
		case a == "*":
			wildcard = true
		case a == origin:
			return true, false
		case strings.HasPrefix(a, "*.") && strings.HasSuffix(origin, a[1:]):
			return true, false
		}
	}
	return wildcard, wildcard
}

func (a *AuthConfig) IsProductionReady() bool {
	secret := a.GetJWTSecret()
	return secret != devJWTSecret && len(secret) >= 32
}

// DevAdminPassword is used when no users are configured.
func (a *AuthConfig) DevAdminPassword() (username, password string) {
	password = os.Getenv(adminPassword)
	if password == "" {
		password = defaultAdmin
	}
	return defaultAdmin, password
}

func (m *MailConfig) Password() string {
	if m.PasswordEnv == "" {
		return ""
	}
	return os.Getenv(m.PasswordEnv)
}

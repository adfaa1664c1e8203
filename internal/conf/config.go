package conf

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/lk2023060901/school-assistant-backend/internal/pkg/database"
	"github.com/lk2023060901/school-assistant-backend/internal/pkg/logger"
	"github.com/lk2023060901/school-assistant-backend/internal/pkg/minio"
	"github.com/lk2023060901/school-assistant-backend/internal/pkg/redis"
)

// EnvPrefix prefixes every environment override, e.g. SCHOOLBOT_AUTH_JWT_SECRET.
const EnvPrefix = "SCHOOLBOT"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	MinIO     MinIOConfig     `mapstructure:"minio"`
	Log       logger.Config   `mapstructure:"log"`
	Chat      ChatConfig      `mapstructure:"chat"`
	NLU       NLUConfig       `mapstructure:"nlu"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Knowledge KnowledgeConfig `mapstructure:"knowledge"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // debug, release, test
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns host:port.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig enables Postgres. When disabled, knowledge and
// conversations live in process memory.
type DatabaseConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	database.Config `mapstructure:",squash"`
}

type RedisConfig struct {
	Enabled      bool `mapstructure:"enabled"`
	redis.Config `mapstructure:",squash"`
}

type MinIOConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
}

// ClientConfig converts to the minio client configuration.
func (c MinIOConfig) ClientConfig() *minio.Config {
	cfg := minio.DefaultConfig()
	cfg.Endpoint = c.Endpoint
	cfg.AccessKeyID = c.AccessKey
	cfg.SecretAccessKey = c.SecretKey
	cfg.UseSSL = c.UseSSL
	cfg.Region = c.Region
	return cfg
}

// History backends.
const (
	HistoryPostgres = "postgres"
	HistoryRedis    = "redis"
)

type ChatConfig struct {
	HistoryBackend   string        `mapstructure:"history_backend"`
	MaxTurns         int           `mapstructure:"max_turns"`
	HistoryTTL       time.Duration `mapstructure:"history_ttl"`
	TurnTimeout      time.Duration `mapstructure:"turn_timeout"`
	SerializePerUser bool          `mapstructure:"serialize_per_user"`
	LockTTL          time.Duration `mapstructure:"lock_ttl"`
	LockRetries      int           `mapstructure:"lock_retries"`
	LockRetryDelay   time.Duration `mapstructure:"lock_retry_delay"`
}

type NLUConfig struct {
	Provider            string           `mapstructure:"provider"` // none, dialogflow, openai
	Timeout             time.Duration    `mapstructure:"timeout"`
	ConfidenceThreshold float64          `mapstructure:"confidence_threshold"`
	Dialogflow          DialogflowConfig `mapstructure:"dialogflow"`
	OpenAI              OpenAIConfig     `mapstructure:"openai"`
}

type DialogflowConfig struct {
	ProjectID       string `mapstructure:"project_id"`
	LanguageCode    string `mapstructure:"language_code"`
	Endpoint        string `mapstructure:"endpoint"`
	CredentialsJSON string `mapstructure:"credentials_json"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

type OpenAIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	JWTIssuer string `mapstructure:"jwt_issuer"`
}

// Rate limiter backends.
const (
	RateLimitRedis  = "redis"
	RateLimitMemory = "memory"
)

type RateLimitConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Backend     string        `mapstructure:"backend"`
	MaxRequests int           `mapstructure:"max_requests"`
	Window      time.Duration `mapstructure:"window"`
	MaxKeys     int           `mapstructure:"max_keys"`
}

// Seed sources.
const (
	SeedSourceFile  = "file"
	SeedSourceMinIO = "minio"
)

type KnowledgeConfig struct {
	SeedPath      string        `mapstructure:"seed_path"`
	SeedSource    string        `mapstructure:"seed_source"`
	SeedObjectKey string        `mapstructure:"seed_object_key"`
	ImportOnStart bool          `mapstructure:"import_on_start"`
	Watch         bool          `mapstructure:"watch"`
	WatchDebounce time.Duration `mapstructure:"watch_debounce"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	db := database.DefaultConfig()
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", db.Host)
	v.SetDefault("database.port", db.Port)
	v.SetDefault("database.user", db.User)
	v.SetDefault("database.password", db.Password)
	v.SetDefault("database.dbname", "schoolbot")
	v.SetDefault("database.sslmode", db.SSLMode)
	v.SetDefault("database.maxidleconns", db.MaxIdleConns)
	v.SetDefault("database.maxopenconns", db.MaxOpenConns)
	v.SetDefault("database.connmaxlifetime", db.ConnMaxLifetime)
	v.SetDefault("database.connmaxidletime", db.ConnMaxIdleTime)
	v.SetDefault("database.loglevel", db.LogLevel)
	v.SetDefault("database.slowthreshold", db.SlowThreshold)
	v.SetDefault("database.preparestmt", db.PrepareStmt)
	v.SetDefault("database.timezone", "UTC")
	v.SetDefault("database.automigrate", true)

	rd := redis.DefaultConfig()
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.mode", string(rd.Mode))
	v.SetDefault("redis.master_addr", rd.MasterAddr)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", rd.DB)
	v.SetDefault("redis.pool_size", rd.PoolSize)
	v.SetDefault("redis.min_idle_conns", rd.MinIdleConns)
	v.SetDefault("redis.dial_timeout", rd.DialTimeout)
	v.SetDefault("redis.read_timeout", rd.ReadTimeout)
	v.SetDefault("redis.write_timeout", rd.WriteTimeout)
	v.SetDefault("redis.pool_timeout", rd.PoolTimeout)
	v.SetDefault("redis.max_retries", rd.MaxRetries)
	v.SetDefault("redis.min_retry_backoff", rd.MinRetryBackoff)
	v.SetDefault("redis.max_retry_backoff", rd.MaxRetryBackoff)
	v.SetDefault("redis.conn_max_idle_time", rd.ConnMaxIdleTime)

	v.SetDefault("minio.enabled", false)
	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.access_key", "")
	v.SetDefault("minio.secret_key", "")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.region", "")
	v.SetDefault("minio.bucket", "schoolbot")

	lg := logger.DefaultConfig()
	v.SetDefault("log.level", lg.Level)
	v.SetDefault("log.format", lg.Format)
	v.SetDefault("log.output", lg.Output)
	v.SetDefault("log.enablecaller", lg.EnableCaller)
	v.SetDefault("log.enablestacktrace", lg.EnableStacktrace)
	v.SetDefault("log.file.filename", "logs/schoolbot.log")
	v.SetDefault("log.file.maxsize", lg.File.MaxSize)
	v.SetDefault("log.file.maxage", lg.File.MaxAge)
	v.SetDefault("log.file.maxbackups", lg.File.MaxBackups)
	v.SetDefault("log.file.compress", lg.File.Compress)

	v.SetDefault("chat.history_backend", HistoryPostgres)
	v.SetDefault("chat.max_turns", 50)
	v.SetDefault("chat.history_ttl", 0)
	v.SetDefault("chat.turn_timeout", 15*time.Second)
	v.SetDefault("chat.serialize_per_user", false)
	v.SetDefault("chat.lock_ttl", 30*time.Second)
	v.SetDefault("chat.lock_retries", 0)
	v.SetDefault("chat.lock_retry_delay", 100*time.Millisecond)

	v.SetDefault("nlu.provider", "none")
	v.SetDefault("nlu.timeout", 5*time.Second)
	v.SetDefault("nlu.confidence_threshold", 0.45)
	v.SetDefault("nlu.dialogflow.project_id", "")
	v.SetDefault("nlu.dialogflow.language_code", "en")
	v.SetDefault("nlu.dialogflow.endpoint", "")
	v.SetDefault("nlu.dialogflow.credentials_json", "")
	v.SetDefault("nlu.dialogflow.credentials_file", "")
	v.SetDefault("nlu.openai.base_url", "")
	v.SetDefault("nlu.openai.api_key", "")
	v.SetDefault("nlu.openai.model", "gpt-4o-mini")

	// keys without a default are invisible to AutomaticEnv during Unmarshal
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_issuer", "school-assistant")

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.backend", RateLimitMemory)
	v.SetDefault("ratelimit.max_requests", 30)
	v.SetDefault("ratelimit.window", time.Minute)
	v.SetDefault("ratelimit.max_keys", 10000)

	v.SetDefault("knowledge.seed_path", "configs/knowledge_seed.yaml")
	v.SetDefault("knowledge.seed_source", SeedSourceFile)
	v.SetDefault("knowledge.seed_object_key", "knowledge/seed.yaml")
	v.SetDefault("knowledge.import_on_start", true)
	v.SetDefault("knowledge.watch", false)
	v.SetDefault("knowledge.watch_debounce", 500*time.Millisecond)
}

// LoadConfig reads path (optional) and applies SCHOOLBOT_* environment
// overrides. A .env file in the working directory is loaded first.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
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
		return nil, err
	}
	return &config, nil
}

// Validate checks cross-section settings.
func (c *Config) Validate() error {
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}

	switch c.Chat.HistoryBackend {
	case HistoryPostgres:
	case HistoryRedis:
		if !c.Redis.Enabled {
			return errors.New("chat.history_backend redis requires redis.enabled")
		}
	default:
		return fmt.Errorf("unknown chat.history_backend %q", c.Chat.HistoryBackend)
	}
	if c.Chat.MaxTurns <= 0 {
		return errors.New("chat.max_turns must be positive")
	}

	switch c.RateLimit.Backend {
	case RateLimitMemory, RateLimitRedis:
	default:
		return fmt.Errorf("unknown ratelimit.backend %q", c.RateLimit.Backend)
	}

	switch c.Knowledge.SeedSource {
	case SeedSourceFile:
	case SeedSourceMinIO:
		if !c.MinIO.Enabled {
			return errors.New("knowledge.seed_source minio requires minio.enabled")
		}
	default:
		return fmt.Errorf("unknown knowledge.seed_source %q", c.Knowledge.SeedSource)
	}

	if c.NLU.ConfidenceThreshold < 0 || c.NLU.ConfidenceThreshold > 1 {
		return errors.New("nlu.confidence_threshold must be within [0, 1]")
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	strutil "examboard/pkg/platform/strings"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	OperatorToken   string
	ShutdownTimeout time.Duration
	DraftTTL        time.Duration
}

// PostgresConfig points at the examination board database. An empty DSN
// runs the console against in-memory collaborators.
type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig configures the ledger snapshot cache. An empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	LedgerTTL    time.Duration
	KeyPrefix    string
}

// UploadConfig configures the binary-object store used for registrant photos.
// An empty Endpoint keeps photos in memory.
type UploadConfig struct {
	Endpoint      string
	PublicBaseURL string
	Timeout       time.Duration
	MaxPhotoBytes int64
}

// KafkaConfig configures ledger-change notifications. No brokers disables them.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Config is the full process configuration.
type Config struct {
	Env      string
	LogLevel string
	Server   Server
	Postgres PostgresConfig
	Redis    RedisConfig
	Upload   UploadConfig
	Kafka    KafkaConfig
}

const envPrefix = "EXAMBOARD"

// Load reads defaults, an optional config/.env.<env> file, then EXAMBOARD_*
// environment overrides.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)

	env := strings.ToLower(os.Getenv(envPrefix + "_ENV"))
	if env == "" {
		env = "dev"
	}

	dotEnvPath := filepath.Join("config", ".env."+env)
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("stat %s: %w", dotEnvPath, err)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return fromViper(v, env), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.operator_token", "dev-operator-token-change-in-production")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.draft_ttl", 2*time.Hour)
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.max_open_conns", 10)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)
	v.SetDefault("redis.ledger_ttl", 30*time.Second)
	v.SetDefault("redis.key_prefix", "examboard")
	v.SetDefault("upload.endpoint", "")
	v.SetDefault("upload.public_base_url", "")
	v.SetDefault("upload.timeout", 15*time.Second)
	v.SetDefault("upload.max_photo_bytes", int64(1<<20))
	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.topic", "registration.ledger")
}

func fromViper(v *viper.Viper, env string) Config {
	return Config{
		Env:      env,
		LogLevel: v.GetString("log.level"),
		Server: Server{
			Addr:            v.GetString("server.addr"),
			OperatorToken:   v.GetString("server.operator_token"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
			DraftTTL:        v.GetDuration("server.draft_ttl"),
		},
		Postgres: PostgresConfig{
			DSN:             v.GetString("postgres.dsn"),
			MaxOpenConns:    v.GetInt("postgres.max_open_conns"),
			MaxIdleConns:    v.GetInt("postgres.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("postgres.conn_max_lifetime"),
		},
		Redis: RedisConfig{
			URL:          v.GetString("redis.url"),
			PoolSize:     v.GetInt("redis.pool_size"),
			MinIdleConns: v.GetInt("redis.min_idle_conns"),
			DialTimeout:  v.GetDuration("redis.dial_timeout"),
			ReadTimeout:  v.GetDuration("redis.read_timeout"),
			WriteTimeout: v.GetDuration("redis.write_timeout"),
			LedgerTTL:    v.GetDuration("redis.ledger_ttl"),
			KeyPrefix:    v.GetString("redis.key_prefix"),
		},
		Upload: UploadConfig{
			Endpoint:      v.GetString("upload.endpoint"),
			PublicBaseURL: v.GetString("upload.public_base_url"),
			Timeout:       v.GetDuration("upload.timeout"),
			MaxPhotoBytes: v.GetInt64("upload.max_photo_bytes"),
		},
		Kafka: KafkaConfig{
			Brokers: strutil.SplitList(v.GetString("kafka.brokers")),
			Topic:   v.GetString("kafka.topic"),
		},
	}
}

// IsDev reports whether the process runs in the local development environment.
func (c Config) IsDev() bool {
	return c.Env == "dev"
}

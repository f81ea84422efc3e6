// Package config loads application settings from defaults, an optional
// YAML file, a .env file and GAMESHELF_* environment variables, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/mcoot/gameshelf/internal/dependencies/identity"
	"github.com/mcoot/gameshelf/internal/logging"
)

// EnvPrefix prefixes every environment variable the loader reads
const EnvPrefix = "GAMESHELF"

// Storage backends
const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageRedis  = "redis"
	StorageSQL    = "sql"
)

// Server holds HTTP listener settings
type Server struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Redis holds settings for the redis backend
type Redis struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// SQL holds settings for the gorm backend
type SQL struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level"`
}

// Storage selects and configures the record store backend
type Storage struct {
	Type    string `mapstructure:"type"`
	DataDir string `mapstructure:"data_dir"`
	Redis   Redis  `mapstructure:"redis"`
	SQL     SQL    `mapstructure:"sql"`
}

// Aggregates controls the recalculation engine
type Aggregates struct {
	RecomputeOnStart bool `mapstructure:"recompute_on_start"`
	Parallelism      int  `mapstructure:"parallelism"`
}

// Config is the full application configuration
type Config struct {
	Server     Server         `mapstructure:"server"`
	Storage    Storage        `mapstructure:"storage"`
	IDScheme   string         `mapstructure:"id_scheme"`
	Seed       bool           `mapstructure:"seed"`
	Aggregates Aggregates     `mapstructure:"aggregates"`
	Log        logging.Config `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("storage.type", StorageMemory)
	v.SetDefault("storage.data_dir", "./data")
	v.SetDefault("storage.redis.url", "redis://localhost:6379")
	v.SetDefault("storage.redis.pool_size", 10)
	v.SetDefault("storage.redis.min_idle_conns", 2)
	v.SetDefault("storage.redis.dial_timeout", 5*time.Second)
	v.SetDefault("storage.redis.key_prefix", "gameshelf")
	v.SetDefault("storage.sql.driver", "sqlite")
	v.SetDefault("storage.sql.dsn", "gameshelf.db")
	v.SetDefault("storage.sql.max_open_conns", 1)
	v.SetDefault("storage.sql.max_idle_conns", 1)
	v.SetDefault("storage.sql.conn_max_lifetime", time.Hour)
	v.SetDefault("storage.sql.log_level", "silent")

	v.SetDefault("id_scheme", string(identity.SchemeRandom))
	v.SetDefault("seed", true)
	v.SetDefault("aggregates.recompute_on_start", false)
	v.SetDefault("aggregates.parallelism", 4)

	logDefaults := logging.DefaultConfig()
	v.SetDefault("log.level", logDefaults.Level)
	v.SetDefault("log.format", logDefaults.Format)
	v.SetDefault("log.file.path", logDefaults.File.Path)
	v.SetDefault("log.file.max_size_mb", logDefaults.File.MaxSizeMB)
	v.SetDefault("log.file.max_backups", logDefaults.File.MaxBackups)
	v.SetDefault("log.file.max_age_days", logDefaults.File.MaxAgeDays)
	v.SetDefault("log.file.compress", logDefaults.File.Compress)
}

// Options controls where Load looks for settings
type Options struct {
	// ConfigFile is a YAML file to read. Empty means GAMESHELF_CONFIG, and
	// no file at all when that is unset too.
	ConfigFile string
	// EnvFile is a dotenv file merged into the environment. A missing file
	// is ignored. Empty means ".env".
	EnvFile string
}

// Load reads the configuration. Variables already set in the environment
// win over the dotenv file.
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", envFile, err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := opts.ConfigFile
	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that cannot be defaulted sensibly
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case StorageMemory, StorageFile, StorageRedis, StorageSQL:
	default:
		return fmt.Errorf("invalid storage.type %q: must be memory, file, redis or sql", c.Storage.Type)
	}
	switch identity.Scheme(c.IDScheme) {
	case identity.SchemeRandom, identity.SchemeSortable:
	default:
		return fmt.Errorf("invalid id_scheme %q: must be random or sortable", c.IDScheme)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Game      GameConfig      `mapstructure:"game"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	LogLevel  string          `mapstructure:"log_level"`
}

type ServerConfig struct {
	HTTPAddress    string `mapstructure:"http_address"`
	RPCAddress     string `mapstructure:"rpc_address"`
	MetricsAddress string `mapstructure:"metrics_address"`
}

// DatabaseConfig selects the session store. Driver is one of
// "memory", "postgres" (database/sql + lib/pq), "gorm" or "sqlite".
type DatabaseConfig struct {
	Driver   string         `mapstructure:"driver"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type GameConfig struct {
	// Seed for the per-request random sources. 0 picks a random seed at startup.
	Seed          int64         `mapstructure:"seed"`
	SessionIdle   time.Duration `mapstructure:"session_idle"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	// WorldFile overrides the embedded world definition when set.
	WorldFile string `mapstructure:"world_file"`
}

type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("server.http_address", ":8080")
	v.SetDefault("server.rpc_address", ":8081")
	v.SetDefault("server.metrics_address", "")
	v.SetDefault("database.driver", "memory")
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "postgres")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.dbname", "survival")
	v.SetDefault("database.sqlite.path", "survival.db")
	v.SetDefault("game.seed", 0)
	v.SetDefault("game.session_idle", 30*time.Minute)
	v.SetDefault("game.sweep_interval", time.Minute)
	v.SetDefault("game.world_file", "")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "survivalserver")
}

// LoadConfig reads config.yaml from path, overlaid with SURVIVAL_* environment
// variables. A missing file is not an error; defaults apply.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("survival")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

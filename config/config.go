package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Sim      SimConfig      `mapstructure:"sim"`
	Security SecurityConfig `mapstructure:"security"`
}

type ServerConfig struct {
	Port     int    `mapstructure:"port"`
	Debug    bool   `mapstructure:"debug"`
	AdminKey string `mapstructure:"admin_key"`
	// AdminIPs restricts the admin routes; empty allows any address.
	AdminIPs []string `mapstructure:"admin_ips"`
}

type DatabaseConfig struct {
	Mode         string        `mapstructure:"mode"` // sqlite | mysql
	SQLitePath   string        `mapstructure:"sqlite_path"`
	MySQLDSN     string        `mapstructure:"mysql_dsn"`
	MySQLMaxOpen int           `mapstructure:"mysql_max_open"`
	MySQLMaxIdle int           `mapstructure:"mysql_max_idle"`
	MySQLMaxLife time.Duration `mapstructure:"mysql_max_life"`
}

type CacheConfig struct {
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	LocalGCInterval time.Duration `mapstructure:"local_gc_interval"`
	LocalPubSubBuf  int           `mapstructure:"local_pubsub_buf"`
}

type SimConfig struct {
	TickMs int `mapstructure:"tick_ms"`
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
	// Layout overrides Width/Height with rows of '.', '#' and elevation digits.
	Layout            []string `mapstructure:"layout"`
	Seed              int64    `mapstructure:"seed"`
	BestiaryPath      string   `mapstructure:"bestiary_path"`
	WatchBestiary     bool     `mapstructure:"watch_bestiary"`
	SnapshotIntervalS int      `mapstructure:"snapshot_interval_s"`
	// MaxSlope is the steepest climb, in degrees, creatures path over.
	MaxSlope float64 `mapstructure:"max_slope"`
}

// TickInterval returns the fixed simulation step.
func (s SimConfig) TickInterval() time.Duration {
	return time.Duration(s.TickMs) * time.Millisecond
}

type SecurityConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	JWTTTLH        time.Duration `mapstructure:"jwt_ttl_h"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.debug", false)
	v.SetDefault("database.mode", "sqlite")
	v.SetDefault("database.sqlite_path", "./data/npcbrain.db")
	v.SetDefault("database.mysql_max_open", 50)
	v.SetDefault("database.mysql_max_idle", 10)
	v.SetDefault("database.mysql_max_life", "1h")
	v.SetDefault("cache.local_gc_interval", "30s")
	v.SetDefault("cache.local_pubsub_buf", 256)
	v.SetDefault("sim.tick_ms", 50)
	v.SetDefault("sim.width", 48)
	v.SetDefault("sim.height", 48)
	v.SetDefault("sim.seed", 1)
	v.SetDefault("sim.bestiary_path", "./bestiary.yaml")
	v.SetDefault("sim.watch_bestiary", false)
	v.SetDefault("sim.snapshot_interval_s", 5)
	v.SetDefault("sim.max_slope", 45)
	v.SetDefault("security.jwt_ttl_h", "72h")
	v.SetDefault("security.rate_limit_rps", 100)
	v.SetDefault("security.rate_limit_burst", 200)
}

// Load reads config from the given YAML file path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	// NPCBRAIN_SERVER_ADMIN_KEY overrides server.admin_key, and so on.
	v.SetEnvPrefix("NPCBRAIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if cfg.Sim.TickMs <= 0 {
		return nil, fmt.Errorf("config: sim.tick_ms must be positive, got %d", cfg.Sim.TickMs)
	}
	return cfg, nil
}

package config

import (
	"time"
)

// Config is the root application configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Lock     LockConfig     `yaml:"lock"`
	Audit    AuditConfig    `yaml:"audit"`
	Plans    PlansConfig    `yaml:"plans"`
	Log      LogConfig      `yaml:"log"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// RedisConfig holds the connection settings for the edit-lock store.
// Lock state lives in Redis rather than in process memory so that every
// server instance observes the same lease.
type RedisConfig struct {
	URL         string        `yaml:"url"          env:"REDIS_URL"          env-default:"redis://localhost:6379/0"`
	DialTimeout time.Duration `yaml:"dial_timeout" env:"REDIS_DIAL_TIMEOUT" env-default:"5s"`
}

// LockConfig holds the soft-lock lease timeouts. A lease whose holder went
// quiet for HeartbeatTimeout, or whose total age exceeds AbsoluteTimeout,
// is considered abandoned and may be reclaimed on the next acquire.
type LockConfig struct {
	HeartbeatTimeout time.Duration `yaml:"heartbeat_timeout" env:"LOCK_HEARTBEAT_TIMEOUT" env-default:"10m"`
	AbsoluteTimeout  time.Duration `yaml:"absolute_timeout"  env:"LOCK_ABSOLUTE_TIMEOUT"  env-default:"30m"`
}

// AuditConfig bounds the best-effort mutation history.
type AuditConfig struct {
	HistoryPerEntity int           `yaml:"history_per_entity" env:"AUDIT_HISTORY_PER_ENTITY" env-default:"200"`
	WriteTimeout     time.Duration `yaml:"write_timeout"      env:"AUDIT_WRITE_TIMEOUT"      env-default:"5s"`
}

// PlansConfig caps per-plan list lengths, consumed by the selection
// service. A cap of 0 means unlimited.
type PlansConfig struct {
	FreeMaxTags          int `yaml:"free_max_tags"          env:"PLANS_FREE_MAX_TAGS"          env-default:"10"`
	FreeMaxSources       int `yaml:"free_max_sources"       env:"PLANS_FREE_MAX_SOURCES"       env-default:"5"`
	ProMaxTags           int `yaml:"pro_max_tags"           env:"PLANS_PRO_MAX_TAGS"           env-default:"100"`
	ProMaxSources        int `yaml:"pro_max_sources"        env:"PLANS_PRO_MAX_SOURCES"        env-default:"50"`
	EnterpriseMaxTags    int `yaml:"enterprise_max_tags"    env:"PLANS_ENTERPRISE_MAX_TAGS"    env-default:"0"`
	EnterpriseMaxSources int `yaml:"enterprise_max_sources" env:"PLANS_ENTERPRISE_MAX_SOURCES" env-default:"0"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

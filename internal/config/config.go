package config

import (
	"strconv"
	"strings"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Store    StoreConfig    `yaml:"store"`
	Redis    RedisConfig    `yaml:"redis"`
	Session  SessionConfig  `yaml:"session"`
	Auth     AuthConfig     `yaml:"auth"`
	Seed     SeedConfig     `yaml:"seed"`
	Job      JobConfig      `yaml:"job"`
	Backup   BackupConfig   `yaml:"backup"`
	Log      LogConfig      `yaml:"log"`
	CORS     CORSConfig     `yaml:"cors"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Authorization,Content-Type"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"false"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"   env:"SERVER_MAX_BODY_BYTES"   env-default:"10485760"`
}

// DatabaseConfig holds PostgreSQL connection settings. Only used when the
// store driver is postgres.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"`
	ApplicationName string        `yaml:"application_name"   env:"DATABASE_APPLICATION_NAME"   env-default:"stock-ledger"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"10"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"2"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// StoreConfig selects the document store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver"        env:"STORE_DRIVER"        env-default:"postgres"`
	MaxBatchOps int    `yaml:"max_batch_ops" env:"STORE_MAX_BATCH_OPS" env-default:"500"`
}

// RedisConfig holds the session store connection. An empty Addr keeps
// sessions in process memory.
type RedisConfig struct {
	Addr     string `yaml:"addr"     env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db"       env:"REDIS_DB"       env-default:"0"`
}

// SessionConfig controls persisted login sessions.
type SessionConfig struct {
	KeyPrefix string        `yaml:"key_prefix" env:"SESSION_KEY_PREFIX" env-default:"inventory_user_session"`
	TTL       time.Duration `yaml:"ttl"        env:"SESSION_TTL"        env-default:"720h"`
}

// AuthConfig holds token signing and password hashing settings.
type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"  env:"AUTH_JWT_SECRET"  env-required:"true"`
	JWTIssuer  string        `yaml:"jwt_issuer"  env:"AUTH_JWT_ISSUER"  env-default:"stock-ledger"`
	TokenTTL   time.Duration `yaml:"token_ttl"   env:"AUTH_TOKEN_TTL"   env-default:"720h"`
	BcryptCost int           `yaml:"bcrypt_cost" env:"AUTH_BCRYPT_COST" env-default:"10"`
	// LoginPerMinute caps login attempts per client address. 0 disables it.
	LoginPerMinute int `yaml:"login_per_minute" env:"AUTH_LOGIN_PER_MINUTE" env-default:"10"`
}

// SeedConfig holds first-run data. Users are only created when the users
// collection is empty; products when the products collection is empty.
type SeedConfig struct {
	AdminPassword   string `yaml:"admin_password"   env:"SEED_ADMIN_PASSWORD"`
	ManagerPassword string `yaml:"manager_password" env:"SEED_MANAGER_PASSWORD"`
	ProductsFile    string `yaml:"products_file"    env:"SEED_PRODUCTS_FILE"`
}

// JobConfig controls usage sessions.
type JobConfig struct {
	SessionTTL    time.Duration `yaml:"session_ttl"    env:"JOB_SESSION_TTL"    env-default:"2h"`
	SweepSchedule string        `yaml:"sweep_schedule" env:"JOB_SWEEP_SCHEDULE" env-default:"@every 10m"`
}

// BackupConfig controls snapshot restore and scheduled backups. An empty
// Schedule disables scheduled backups.
type BackupConfig struct {
	BatchSize int    `yaml:"batch_size" env:"BACKUP_BATCH_SIZE" env-default:"400"`
	Dir       string `yaml:"dir"        env:"BACKUP_DIR"        env-default:"./backups"`
	Schedule  string `yaml:"schedule"   env:"BACKUP_SCHEDULE"`
	Keep      int    `yaml:"keep"       env:"BACKUP_KEEP"       env-default:"14"`
}

// LogConfig holds logging settings. When File is set, logs are also written
// to a size-rotated file.
type LogConfig struct {
	Level      string `yaml:"level"        env:"LOG_LEVEL"        env-default:"info"`
	Format     string `yaml:"format"       env:"LOG_FORMAT"       env-default:"json"`
	File       string `yaml:"file"         env:"LOG_FILE"`
	MaxSizeMB  int    `yaml:"max_size_mb"  env:"LOG_MAX_SIZE_MB"  env-default:"100"`
	MaxBackups int    `yaml:"max_backups"  env:"LOG_MAX_BACKUPS"  env-default:"5"`
	MaxAgeDays int    `yaml:"max_age_days" env:"LOG_MAX_AGE_DAYS" env-default:"30"`
	Compress   bool   `yaml:"compress"     env:"LOG_COMPRESS"     env-default:"true"`
}

// Origins splits AllowedOrigins into a list.
func (c CORSConfig) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Addr returns host:port for the HTTP listener.
func (c ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

package config

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/caarlos0/env"
)

const (
	DefaultServerAddr    = ":8080"
	DefaultBaseURL       = "http://localhost:8080"
	DefaultFilePath      = "storage.json"
	DefaultUserFilePath  = "users.json"
	DefaultAuditFilePath = "audit_storage.json"
	DefaultPprofAddr     = "localhost:6060"
	DefaultJWTIssuer     = "shortly"
	DefaultJWTAudience   = "shortly-api"
	DefaultTokenTTL      = 3 * time.Hour
)

// Config содержит конфигурацию приложения
type Config struct {
	ServerAddr   string        `json:"server_address" env:"SERVER_ADDRESS"`
	BaseURL      string        `json:"base_url" env:"BASE_URL"`
	FilePath     string        `json:"file_storage_path" env:"FILE_STORAGE_PATH"`
	UserFilePath string        `json:"user_storage_path" env:"USER_STORAGE_PATH"`
	DBurl        string        `json:"database_dsn" env:"DATABASE_DSN"`
	RedisAddr    string        `json:"redis_address" env:"REDIS_ADDRESS"`
	JWTSecret    string        `json:"jwt_secret" env:"JWT_SECRET"`
	JWTIssuer    string        `json:"jwt_issuer" env:"JWT_ISSUER"`
	JWTAudience  string        `json:"jwt_audience" env:"JWT_AUDIENCE"`
	TokenTTL     time.Duration `json:"token_ttl" env:"TOKEN_TTL"`
	AuditFile    string        `env:"AUDIT_FILE"`
	AuditURL     string        `env:"AUDIT_URL"`
	SyncVisits   bool          `json:"sync_visits" env:"SYNC_VISITS"`
	PprofAddr    string        `env:"PPROF_ADDRESS"`
}

func NewConfig() *Config {
	c := &Config{
		ServerAddr:   DefaultServerAddr,
		BaseURL:      DefaultBaseURL,
		FilePath:     DefaultFilePath,
		UserFilePath: DefaultUserFilePath,
		AuditFile:    DefaultAuditFilePath,
		PprofAddr:    DefaultPprofAddr,
		JWTIssuer:    DefaultJWTIssuer,
		JWTAudience:  DefaultJWTAudience,
		TokenTTL:     DefaultTokenTTL,
	}

	configFile := getConfigPath()
	c.loadFromFile(configFile)
	c.getArgsFromEnv()
	c.getArgsFromCli()

	return c
}

func getConfigPath() string {
	for i, arg := range os.Args {
		if (arg == "-c" || arg == "-config") && i+1 < len(os.Args) {
			return os.Args[i+1]
		}
	}
	return os.Getenv("CONFIG")
}

func (c *Config) loadFromFile(filename string) {
	if filename == "" {
		return
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return
	}
	json.Unmarshal(data, c)
}

func (c *Config) getArgsFromCli() {
	flag.StringVar(&c.ServerAddr, "a", c.ServerAddr, "server host")
	flag.StringVar(&c.BaseURL, "b", c.BaseURL, "base url for short links")
	flag.StringVar(&c.FilePath, "f", c.FilePath, "file storage path")
	flag.StringVar(&c.UserFilePath, "u", c.UserFilePath, "user storage path")
	flag.StringVar(&c.DBurl, "d", c.DBurl, "database DSN")
	flag.StringVar(&c.RedisAddr, "r", c.RedisAddr, "redis address")
	flag.StringVar(&c.JWTSecret, "k", c.JWTSecret, "JWT signing secret")
	flag.DurationVar(&c.TokenTTL, "token-ttl", c.TokenTTL, "token lifetime")
	flag.StringVar(&c.AuditFile, "audit-file", c.AuditFile, "audit file path")
	flag.StringVar(&c.AuditURL, "audit-url", c.AuditURL, "audit server URL")
	flag.BoolVar(&c.SyncVisits, "sync-visits", c.SyncVisits, "record visits before responding to redirects")
	flag.StringVar(&c.PprofAddr, "pprof", c.PprofAddr, "pprof server address")
	flag.String("c", "", "config file path")
	flag.String("config", "", "config file path")
	flag.Parse()
}

func (c *Config) getArgsFromEnv() {
	if err := env.Parse(c); err != nil {
		log.Fatal(err)
	}
}

func (c Config) GetAddress() string {
	return c.ServerAddr
}

func (c Config) GetBaseURL() string {
	return c.BaseURL
}

func (c Config) GetAuditFile() string {
	return c.AuditFile
}

func (c Config) GetAuditURL() string {
	return c.AuditURL
}

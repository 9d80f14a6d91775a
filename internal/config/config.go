// Package config resolves the process configuration once at start-up.
//
// Values come from, in order of precedence: explicit flags bound by the CLI,
// CODELAB_* environment variables (a .env file is loaded first when present),
// an optional config file, and the defaults below. Nothing downstream reads
// the environment; it receives the resolved *Config.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "CODELAB"

type Config struct {
	Log     LogConfig
	HTTP    HTTPConfig
	DB      DBConfig
	Auth    AuthConfig
	Sandbox SandboxConfig
	Grading GradingConfig
	Catalog CatalogConfig
	Runner  RunnerConfig
}

type LogConfig struct {
	Level  string
	Format string // "text" or "json"
}

type HTTPConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
}

type DBConfig struct {
	Path string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// SandboxConfig configures both execution backends. The compile/run limits
// are sent to the managed backend in every job; RequestTimeout bounds each
// HTTP call from this side.
type SandboxConfig struct {
	ManagedURL         string
	CustomURL          string
	RequestTimeout     time.Duration
	Language           string
	Version            string
	FileName           string
	CompileTimeoutMS   int
	RunTimeoutMS       int
	CompileMemoryLimit int
	RunMemoryLimit     int
}

type GradingConfig struct {
	Concurrency int
	// EmptySuiteCorrect marks submissions to exercises without test cases as
	// correct. Off unless explicitly enabled.
	EmptySuiteCorrect bool
}

type CatalogConfig struct {
	File string
}

type RunnerConfig struct {
	Port          int
	Image         string
	MemoryLimitMB int
	CPULimit      float64
	Timeout       time.Duration
	PoolSize      int
}

// SetDefaults registers every recognised key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 60*time.Second)
	v.SetDefault("http.cors_origins", []string{})

	v.SetDefault("db.path", "data/codelab.db")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)

	v.SetDefault("sandbox.managed_url", "http://localhost:2000/api/v2/execute")
	v.SetDefault("sandbox.custom_url", "http://localhost:2001/execute")
	v.SetDefault("sandbox.request_timeout", 30*time.Second)
	v.SetDefault("sandbox.language", "python")
	v.SetDefault("sandbox.version", "3.10.0")
	v.SetDefault("sandbox.file_name", "main.py")
	v.SetDefault("sandbox.compile_timeout_ms", 10000)
	v.SetDefault("sandbox.run_timeout_ms", 3000)
	v.SetDefault("sandbox.compile_memory_limit", -1)
	v.SetDefault("sandbox.run_memory_limit", -1)

	v.SetDefault("grading.concurrency", 1)
	v.SetDefault("grading.empty_suite_correct", false)

	v.SetDefault("catalog.file", "")

	v.SetDefault("runner.port", 2001)
	v.SetDefault("runner.image", "python:3.12-alpine")
	v.SetDefault("runner.memory_limit_mb", 128)
	v.SetDefault("runner.cpu_limit", 0.5)
	v.SetDefault("runner.timeout", 5*time.Second)
	v.SetDefault("runner.pool_size", 3)
}

// New returns a viper instance with defaults and environment binding set up.
// Keys map to env vars as CODELAB_SANDBOX_MANAGED_URL etc.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadDotEnv loads path into the process environment if the file exists.
// Existing variables win over the file.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: checking %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: loading %s: %w", path, err)
	}
	return nil
}

// Load reads an optional config file into v and resolves the final Config.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", file, err)
		}
	}

	cfg := &Config{
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		HTTP: HTTPConfig{
			Port:         v.GetInt("http.port"),
			ReadTimeout:  v.GetDuration("http.read_timeout"),
			WriteTimeout: v.GetDuration("http.write_timeout"),
			CORSOrigins:  v.GetStringSlice("http.cors_origins"),
		},
		DB: DBConfig{
			Path: v.GetString("db.path"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("auth.jwt_secret"),
			TokenTTL:  v.GetDuration("auth.token_ttl"),
		},
		Sandbox: SandboxConfig{
			ManagedURL:         v.GetString("sandbox.managed_url"),
			CustomURL:          v.GetString("sandbox.custom_url"),
			RequestTimeout:     v.GetDuration("sandbox.request_timeout"),
			Language:           v.GetString("sandbox.language"),
			Version:            v.GetString("sandbox.version"),
			FileName:           v.GetString("sandbox.file_name"),
			CompileTimeoutMS:   v.GetInt("sandbox.compile_timeout_ms"),
			RunTimeoutMS:       v.GetInt("sandbox.run_timeout_ms"),
			CompileMemoryLimit: v.GetInt("sandbox.compile_memory_limit"),
			RunMemoryLimit:     v.GetInt("sandbox.run_memory_limit"),
		},
		Grading: GradingConfig{
			Concurrency:       v.GetInt("grading.concurrency"),
			EmptySuiteCorrect: v.GetBool("grading.empty_suite_correct"),
		},
		Catalog: CatalogConfig{
			File: v.GetString("catalog.file"),
		},
		Runner: RunnerConfig{
			Port:          v.GetInt("runner.port"),
			Image:         v.GetString("runner.image"),
			MemoryLimitMB: v.GetInt("runner.memory_limit_mb"),
			CPULimit:      v.GetFloat64("runner.cpu_limit"),
			Timeout:       v.GetDuration("runner.timeout"),
			PoolSize:      v.GetInt("runner.pool_size"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values that would make the service misbehave at runtime.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("config: http.port %d out of range", c.HTTP.Port)
	}
	if c.Sandbox.ManagedURL == "" {
		return errors.New("config: sandbox.managed_url is required")
	}
	if c.Sandbox.RequestTimeout <= 0 {
		return errors.New("config: sandbox.request_timeout must be positive")
	}
	if c.Grading.Concurrency < 1 {
		return fmt.Errorf("config: grading.concurrency must be at least 1, got %d", c.Grading.Concurrency)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

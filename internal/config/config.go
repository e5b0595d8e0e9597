// Package config provides functionality for managing configuration options
// for the application using defaults, an optional YAML config file,
// environment variables and command-line flags, in increasing priority.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Options holds the configuration values for the application.
type Options struct {
	// Addr defines the server's listening address (ip:port).
	Addr string `koanf:"addr"`

	// DatabaseDSN holds the Postgres connection string.
	DatabaseDSN string `koanf:"database_dsn"`

	// ImageStoreDir is where uploaded images and their derivatives are written.
	ImageStoreDir string `koanf:"image_store_dir"`

	// AllowedOrigins is the CORS allow-list.
	AllowedOrigins []string `koanf:"allowed_origins"`

	// JWTSecret signs access tokens.
	JWTSecret     string `koanf:"jwt_secret"`
	JWTSecretFile string `koanf:"jwt_secret_file"`

	// SessionSecret signs refresh tokens.
	SessionSecret     string `koanf:"session_secret"`
	SessionSecretFile string `koanf:"session_secret_file"`

	// RegistrationCode, when set, must accompany every registration.
	RegistrationCode     string `koanf:"registration_code"`
	RegistrationCodeFile string `koanf:"registration_code_file"`

	// SentryDSN enables error telemetry when non-empty.
	SentryDSN   string `koanf:"sentry_dsn"`
	Environment string `koanf:"environment"`

	AccessTokenTTL    time.Duration `koanf:"access_token_ttl"`
	RefreshTokenTTL   time.Duration `koanf:"refresh_token_ttl"`
	LoginFailureDelay time.Duration `koanf:"login_failure_delay"`

	MaxUploadBytes int64  `koanf:"max_upload_bytes"`
	LogLevel       string `koanf:"log_level"`

	TLSCertFile string `koanf:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file"`

	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`

	// MetricsEnabled exposes Prometheus metrics at /metrics.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// Config is the path to the config file.
	Config string `koanf:"-"`
}

// envKeys maps environment variable names to config keys.
var envKeys = map[string]string{
	"SERVER_ADDRESS":         "addr",
	"DATABASE_DSN":           "database_dsn",
	"IMAGE_STORE_DIR":        "image_store_dir",
	"ALLOWED_ORIGINS":        "allowed_origins",
	"JWT_SECRET":             "jwt_secret",
	"JWT_SECRET_FILE":        "jwt_secret_file",
	"SESSION_SECRET":         "session_secret",
	"SESSION_SECRET_FILE":    "session_secret_file",
	"REGISTRATION_CODE":      "registration_code",
	"REGISTRATION_CODE_FILE": "registration_code_file",
	"SENTRY_DSN":             "sentry_dsn",
	"ENV":                    "environment",
	"ACCESS_TOKEN_TTL":       "access_token_ttl",
	"REFRESH_TOKEN_TTL":      "refresh_token_ttl",
	"LOGIN_FAILURE_DELAY":    "login_failure_delay",
	"MAX_UPLOAD_BYTES":       "max_upload_bytes",
	"LOG_LEVEL":              "log_level",
	"TLS_CERT_FILE":          "tls_cert_file",
	"TLS_KEY_FILE":           "tls_key_file",
	"RATE_LIMIT_REQUESTS":    "rate_limit_requests",
	"RATE_LIMIT_WINDOW":      "rate_limit_window",
	"METRICS_ENABLED":        "metrics_enabled",
}

// Defaults returns the built-in configuration.
func Defaults() *Options {
	return &Options{
		Addr:              "localhost:8080",
		ImageStoreDir:     "images",
		AllowedOrigins:    []string{"*"},
		Environment:       "dev",
		AccessTokenTTL:    3 * time.Hour,
		RefreshTokenTTL:   30 * 24 * time.Hour,
		LoginFailureDelay: 500 * time.Millisecond,
		MaxUploadBytes:    32 << 20,
		LogLevel:          "info",
		RateLimitRequests: 20,
		RateLimitWindow:   time.Minute,
	}
}

// Parse parses the command-line flags and environment variables and exits
// the process on error.
func Parse() *Options {
	options, err := Load(os.Args[1:])
	if err != nil {
		log.Fatalf("error while loading config: %v", err)
	}
	return options
}

// Load builds Options from defaults, the config file named by -c/-config or
// the CONFIG environment variable, the environment and finally args.
func Load(args []string) (*Options, error) {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	addr := fs.String("a", "", "run on ip:port server")
	dsn := fs.String("d", "", "db address")
	var configPath string
	fs.StringVar(&configPath, "config", "", "path to config file")
	fs.StringVar(&configPath, "c", "", "path to config file (shorthand)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if configPath == "" {
		configPath = os.Getenv("CONFIG")
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	// Comma-separated lists from the environment.
	if v, ok := k.Get("allowed_origins").(string); ok {
		if err := k.Set("allowed_origins", splitList(v)); err != nil {
			return nil, fmt.Errorf("set allowed origins: %w", err)
		}
	}

	options := &Options{}
	if err := k.Unmarshal("", options); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	options.Config = configPath

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "a":
			options.Addr = *addr
		case "d":
			options.DatabaseDSN = *dsn
		}
	})

	if err := options.resolveSecrets(); err != nil {
		return nil, err
	}
	if err := options.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return options, nil
}

// envTransform maps known environment variables to config keys and drops
// everything else.
func envTransform(key string) string {
	return envKeys[key]
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// resolveSecrets fills empty secrets from their *_FILE counterparts, as
// mounted by Docker secrets.
func (o *Options) resolveSecrets() error {
	for _, s := range []struct {
		value *string
		path  string
	}{
		{&o.JWTSecret, o.JWTSecretFile},
		{&o.SessionSecret, o.SessionSecretFile},
		{&o.RegistrationCode, o.RegistrationCodeFile},
	} {
		if *s.value != "" || s.path == "" {
			continue
		}
		data, err := os.ReadFile(s.path)
		if err != nil {
			return fmt.Errorf("read secret file: %w", err)
		}
		*s.value = strings.TrimSpace(string(data))
	}
	return nil
}

// Validate reports missing or inconsistent settings.
func (o *Options) Validate() error {
	var errs []error
	if o.DatabaseDSN == "" {
		errs = append(errs, errors.New("database DSN is required"))
	}
	if o.JWTSecret == "" {
		errs = append(errs, errors.New("JWT secret is required"))
	}
	if o.SessionSecret == "" {
		errs = append(errs, errors.New("session secret is required"))
	}
	if o.ImageStoreDir == "" {
		errs = append(errs, errors.New("image store directory is required"))
	}
	if o.AccessTokenTTL <= 0 || o.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("token lifetimes must be positive"))
	}
	if o.LoginFailureDelay < 0 {
		errs = append(errs, errors.New("login failure delay must not be negative"))
	}
	if o.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("max upload size must be positive"))
	}
	if (o.TLSCertFile == "") != (o.TLSKeyFile == "") {
		errs = append(errs, errors.New("TLS cert and key must be set together"))
	}
	return errors.Join(errs...)
}

// TelemetryEnabled reports whether errors should be forwarded to Sentry.
func (o *Options) TelemetryEnabled() bool {
	return o.SentryDSN != ""
}

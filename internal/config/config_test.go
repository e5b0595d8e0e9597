package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_DSN", "postgres://localhost/gallery")
	t.Setenv("JWT_SECRET", "jwt")
	t.Setenv("SESSION_SECRET", "session")
}

func TestLoad_DefaultsAndEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("ACCESS_TOKEN_TTL", "90m")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")
	t.Setenv("METRICS_ENABLED", "true")

	o, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "localhost:8080", o.Addr)
	assert.Equal(t, "postgres://localhost/gallery", o.DatabaseDSN)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, o.AllowedOrigins)
	assert.Equal(t, 90*time.Minute, o.AccessTokenTTL)
	assert.Equal(t, 30*24*time.Hour, o.RefreshTokenTTL)
	assert.Equal(t, 500*time.Millisecond, o.LoginFailureDelay)
	assert.Equal(t, int64(1024), o.MaxUploadBytes)
	assert.True(t, o.MetricsEnabled)
	assert.False(t, o.TelemetryEnabled())
}

func TestLoad_FileThenEnvThenFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: "0.0.0.0:9000"
database_dsn: "postgres://file/db"
image_store_dir: "/srv/images"
jwt_secret: "file-jwt"
session_secret: "file-session"
sentry_dsn: "https://key@sentry.example/1"
environment: "prod"
`), 0o600))

	t.Setenv("JWT_SECRET", "env-jwt")

	o, err := Load([]string{"-c", path, "-a", ":7000"})
	require.NoError(t, err)

	assert.Equal(t, ":7000", o.Addr)
	assert.Equal(t, "postgres://file/db", o.DatabaseDSN)
	assert.Equal(t, "/srv/images", o.ImageStoreDir)
	assert.Equal(t, "env-jwt", o.JWTSecret)
	assert.Equal(t, "file-session", o.SessionSecret)
	assert.Equal(t, "prod", o.Environment)
	assert.True(t, o.TelemetryEnabled())
	assert.Equal(t, path, o.Config)
}

func TestLoad_SecretFiles(t *testing.T) {
	dir := t.TempDir()
	jwtFile := filepath.Join(dir, "jwt-secret-key")
	codeFile := filepath.Join(dir, "registration-code")
	require.NoError(t, os.WriteFile(jwtFile, []byte("from-file\n"), 0o600))
	require.NoError(t, os.WriteFile(codeFile, []byte("open-sesame"), 0o600))

	t.Setenv("DATABASE_DSN", "postgres://localhost/gallery")
	t.Setenv("SESSION_SECRET", "session")
	t.Setenv("JWT_SECRET_FILE", jwtFile)
	t.Setenv("REGISTRATION_CODE_FILE", codeFile)

	o, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "from-file", o.JWTSecret)
	assert.Equal(t, "open-sesame", o.RegistrationCode)
}

func TestLoad_MissingSecretFile(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("SESSION_SECRET_FILE", filepath.Join(t.TempDir(), "missing"))

	_, err := Load(nil)
	assert.ErrorContains(t, err, "read secret file")
}

func TestLoad_ValidationFails(t *testing.T) {
	t.Setenv("DATABASE_DSN", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("SESSION_SECRET", "")

	_, err := Load(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database DSN is required")
	assert.Contains(t, err.Error(), "JWT secret is required")
	assert.Contains(t, err.Error(), "session secret is required")
}

func TestValidate(t *testing.T) {
	valid := func() *Options {
		o := Defaults()
		o.DatabaseDSN = "dsn"
		o.JWTSecret = "j"
		o.SessionSecret = "s"
		return o
	}

	require.NoError(t, valid().Validate())

	tests := map[string]func(*Options){
		"zero access ttl":      func(o *Options) { o.AccessTokenTTL = 0 },
		"negative delay":       func(o *Options) { o.LoginFailureDelay = -time.Second },
		"tls cert without key": func(o *Options) { o.TLSCertFile = "cert.pem" },
		"empty image dir":      func(o *Options) { o.ImageStoreDir = "" },
		"zero upload size":     func(o *Options) { o.MaxUploadBytes = 0 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			o := valid()
			mutate(o)
			assert.Error(t, o.Validate())
		})
	}
}

func TestLoad_BadFlag(t *testing.T) {
	setRequiredEnv(t)
	_, err := Load([]string{"-unknown"})
	assert.Error(t, err)
}

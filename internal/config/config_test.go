package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
server:
  public_verify_base_url: https://www.verify.example.com/c/
  trusted_proxies: ["10.0.0.0/8"]
database:
  driver: sqlite3
  dsn: /var/lib/lotcert/lotcert.db
storage:
  endpoint: https://account.r2.cloudflarestorage.com
  bucket: certificates
  access_key_id: key
  secret_access_key: secret
privacy:
  pepper: 0123456789abcdef0123456789abcdef
`

func writeConfig(t *testing.T, body string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
	assert.Equal(t, []string{"10.0.0.0/8"}, cfg.Server.TrustedProxies)
	assert.Equal(t, DefaultRegion, cfg.Storage.Region)
	assert.Equal(t, DefaultKeyPrefix, cfg.Storage.KeyPrefix)
	assert.Equal(t, 120*time.Second, cfg.GetDownloadTTL())
	assert.Equal(t, DefaultLaboratory, cfg.Certificate.Laboratory)
	assert.Equal(t, DefaultBrand, cfg.Certificate.Brand)
	assert.Equal(t, "verify.example.com", cfg.Certificate.VerifyHostLabel)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("LOTCERT_STORAGE_R2_BUCKET", "from-env")
	t.Setenv("IP_HASH_PEPPER", "fedcba9876543210fedcba9876543210")
	t.Setenv("LOTCERT_LOGGING_LOG_LEVEL", "debug")
	t.Setenv("PORT", "9090")

	cfg, err := LoadWithEnv(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Storage.Bucket)
	assert.Equal(t, "fedcba9876543210fedcba9876543210", cfg.Privacy.Pepper)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, ":9090", cfg.Server.ListenAddr)
}

func TestLoadWithEnvWithoutFile(t *testing.T) {
	t.Setenv("PUBLIC_VERIFY_BASE_URL", "https://verify.example.com/c")
	t.Setenv("DB_DSN", ":memory:")
	t.Setenv("R2_BUCKET", "certs")
	t.Setenv("R2_ACCESS_KEY_ID", "key")
	t.Setenv("R2_SECRET_ACCESS_KEY", "secret")
	t.Setenv("IP_HASH_PEPPER", "0123456789abcdef0123456789abcdef")

	cfg, err := LoadWithEnv(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "certs", cfg.Storage.Bucket)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load(writeConfig(t, sampleConfig))
		require.NoError(t, err)
		return cfg
	}

	cases := map[string]func(*Config){
		"relative verify url": func(c *Config) { c.Server.PublicVerifyBaseURL = "/c" },
		"unknown driver":      func(c *Config) { c.Database.Driver = "mysql" },
		"missing dsn":         func(c *Config) { c.Database.DSN = "" },
		"missing bucket":      func(c *Config) { c.Storage.Bucket = "" },
		"missing secret":      func(c *Config) { c.Storage.SecretAccessKey = "" },
		"bad ttl":             func(c *Config) { c.Storage.DownloadTTL = "soon" },
		"ttl too long":        func(c *Config) { c.Storage.DownloadTTL = "8d" },
		"short pepper":        func(c *Config) { c.Privacy.Pepper = "short" },
		"bad log level":       func(c *Config) { c.Logging.Level = "trace" },
		"bad log format":      func(c *Config) { c.Logging.Format = "xml" },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, valid().Validate())
}

func TestParseDuration(t *testing.T) {
	d, err := ParseDuration("2d")
	require.NoError(t, err)
	assert.Equal(t, 48*time.Hour, d)

	d, err = ParseDuration("90s")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, d)

	_, err = ParseDuration("xd")
	assert.Error(t, err)
}

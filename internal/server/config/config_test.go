package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) (string, bool) { return "", false }

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":3000", c.Addr)
	assert.Equal(t, "development", c.Environment)
	assert.Equal(t, DefaultSessionSecret, c.SessionSecret)
	assert.Equal(t, 10, c.BcryptCost)
	assert.Equal(t, StoreAirtable, c.RecordStore)
	assert.Equal(t, "Usuarios", c.AirtableUsersTable)
	assert.Equal(t, "Centralización de Información", c.AirtableLedgerTable)
	assert.Equal(t, 10*time.Second, c.AirtableTimeout)
	assert.Equal(t, "us-east-1", c.S3Region)
	assert.EqualValues(t, 50<<20, c.MaxUploadSize)
	assert.False(t, c.IsProduction())
	assert.True(t, c.UsesFallbackSecret())
}

func TestLoad_Precedence(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"addr":           ":4000",
		"session_secret": "from-json",
		"s3_bucket":      "json-bucket",
	})
	env := map[string]string{
		"SESSION_SECRET": "from-env",
		"AWS_S3_BUCKET":  "env-bucket",
	}
	lookup := func(k string) (string, bool) { v, ok := env[k]; return v, ok }

	c := load([]string{"-c", path, "-b", "flag-bucket"}, lookup)
	require.NotNil(t, c)

	assert.Equal(t, ":4000", c.Addr)
	assert.Equal(t, "from-env", c.SessionSecret)
	assert.Equal(t, "flag-bucket", c.S3Bucket)
	assert.Equal(t, "Usuarios", c.AirtableUsersTable)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		c := &Config{}
		c.LoadDefaults()
		c.RecordStore = StoreMemory
		return c
	}

	t.Run("development with fallback secret is allowed", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("production with fallback secret is refused", func(t *testing.T) {
		c := base()
		c.Environment = EnvProduction
		assert.Error(t, c.Validate())

		c.SessionSecret = "real-secret"
		assert.NoError(t, c.Validate())
	})

	t.Run("airtable needs credentials", func(t *testing.T) {
		c := base()
		c.RecordStore = StoreAirtable
		assert.Error(t, c.Validate())

		c.AirtableAPIKey, c.AirtableBaseID = "key", "app123"
		assert.NoError(t, c.Validate())
	})

	t.Run("unknown store", func(t *testing.T) {
		c := base()
		c.RecordStore = "excel"
		assert.Error(t, c.Validate())
	})

	t.Run("bcrypt cost bounds", func(t *testing.T) {
		c := base()
		c.BcryptCost = 3
		assert.Error(t, c.Validate())
	})
}

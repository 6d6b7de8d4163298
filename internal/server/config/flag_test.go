package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{
				"-a", "127.0.0.1:9090", "-m", "production", "-l", "debug", "-s", "secret",
				"-r", "postgres", "-k", "key", "-i", "base", "-d", "db",
				"-u", "user", "-p", "password", "-b", "bucket", "-g", "us-west-1", "-e", "http://endpoint",
			},
			expected: &Config{
				Addr:              "127.0.0.1:9090",
				Environment:       "production",
				LogLevel:          "debug",
				SessionSecret:     "secret",
				RecordStore:       "postgres",
				AirtableAPIKey:    "key",
				AirtableBaseID:    "base",
				DatabaseDSN:       "db",
				S3AccessKeyID:     "user",
				S3SecretAccessKey: "password",
				S3Bucket:          "bucket",
				S3Region:          "us-west-1",
				S3BaseEndpoint:    "http://endpoint",
			},
		},
		{
			name:     "unrelated flags are ignored",
			args:     []string{"-c", "cfg.json", "-z", "1", "-a", ":1"},
			expected: &Config{Addr: ":1"},
		},
		{
			name:        "flag without value panics",
			args:        []string{"-a"},
			expectPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{}

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config, tt.args) })
				return
			}

			require.NotPanics(t, func() { parseFlags(config, tt.args) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}

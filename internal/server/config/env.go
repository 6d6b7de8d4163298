package config

import (
	"strconv"
	"time"
)

// parseEnv overlays values from environment variables. The variable names
// are the ones the portal has always been deployed with.
func parseEnv(config *Config, lookup func(string) (string, bool)) {
	str := func(dst *string, key string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str(&config.Addr, "ADDR")
	str(&config.Environment, "APP_ENV")
	str(&config.LogLevel, "LOG_LEVEL")
	str(&config.SessionSecret, "SESSION_SECRET")
	str(&config.RecordStore, "RECORD_STORE")
	str(&config.AirtableAPIKey, "AIRTABLE_API_KEY")
	str(&config.AirtableBaseID, "AIRTABLE_BASE_ID")
	str(&config.AirtableUsersTable, "AIRTABLE_USUARIOS_TABLE")
	str(&config.AirtableLedgerTable, "AIRTABLE_CENTRALIZACION_TABLE")
	str(&config.AirtableEndpoint, "AIRTABLE_ENDPOINT")
	str(&config.DatabaseDSN, "DATABASE_DSN")
	str(&config.S3AccessKeyID, "AWS_ACCESS_KEY_ID")
	str(&config.S3SecretAccessKey, "AWS_SECRET_ACCESS_KEY")
	str(&config.S3Bucket, "AWS_S3_BUCKET")
	str(&config.S3Region, "AWS_REGION")
	str(&config.S3BaseEndpoint, "AWS_S3_ENDPOINT")

	if v, ok := lookup("BCRYPT_COST"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			config.BcryptCost = n
		}
	}
	if v, ok := lookup("AIRTABLE_TIMEOUT"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			config.AirtableTimeout = d
		}
	}
	if v, ok := lookup("MAX_UPLOAD_SIZE"); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.MaxUploadSize = n
		}
	}
}

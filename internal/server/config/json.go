package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/ecoportal/internal/flagx"
	"github.com/dmitrijs2005/ecoportal/internal/timex"
)

// JsonConfig is the on-disk shape of the optional configuration file.
// Durations accept "10s"-style strings or integer nanoseconds.
// Only non-empty values override what is already set.
type JsonConfig struct {
	Addr                string         `json:"addr"`
	Environment         string         `json:"environment"`
	LogLevel            string         `json:"log_level"`
	SessionSecret       string         `json:"session_secret"`
	BcryptCost          int            `json:"bcrypt_cost"`
	RecordStore         string         `json:"record_store"`
	AirtableAPIKey      string         `json:"airtable_api_key"`
	AirtableBaseID      string         `json:"airtable_base_id"`
	AirtableUsersTable  string         `json:"airtable_users_table"`
	AirtableLedgerTable string         `json:"airtable_ledger_table"`
	AirtableEndpoint    string         `json:"airtable_endpoint"`
	AirtableTimeout     timex.Duration `json:"airtable_timeout"`
	DatabaseDSN         string         `json:"database_dsn"`
	S3AccessKeyID       string         `json:"s3_access_key_id"`
	S3SecretAccessKey   string         `json:"s3_secret_access_key"`
	S3Bucket            string         `json:"s3_bucket"`
	S3Region            string         `json:"s3_region"`
	S3BaseEndpoint      string         `json:"s3_base_endpoint"`
	MaxUploadSize       int64          `json:"max_upload_size"`
}

// parseJson overlays values from the file named by -c / -config.
// Nothing happens without the flag; an unreadable or invalid file panics,
// since the server must not start on a half-read configuration.
func parseJson(config *Config, args []string) {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.Addr, c.Addr)
	setString(&config.Environment, c.Environment)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.SessionSecret, c.SessionSecret)
	setString(&config.RecordStore, c.RecordStore)
	setString(&config.AirtableAPIKey, c.AirtableAPIKey)
	setString(&config.AirtableBaseID, c.AirtableBaseID)
	setString(&config.AirtableUsersTable, c.AirtableUsersTable)
	setString(&config.AirtableLedgerTable, c.AirtableLedgerTable)
	setString(&config.AirtableEndpoint, c.AirtableEndpoint)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.S3AccessKeyID, c.S3AccessKeyID)
	setString(&config.S3SecretAccessKey, c.S3SecretAccessKey)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	if c.BcryptCost > 0 {
		config.BcryptCost = c.BcryptCost
	}
	if c.AirtableTimeout.Duration > 0 {
		config.AirtableTimeout = c.AirtableTimeout.Duration
	}
	if c.MaxUploadSize > 0 {
		config.MaxUploadSize = c.MaxUploadSize
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

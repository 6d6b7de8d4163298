package config

import (
	"flag"

	"github.com/dmitrijs2005/ecoportal/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":3000")
//	-m string   environment ("development" / "production")
//	-l string   log level
//	-s string   session HMAC secret
//	-r string   record store backend (airtable, postgres, memory)
//	-k string   Airtable API key
//	-i string   Airtable base id
//	-d string   PostgreSQL DSN
//	-u string   S3 access key id
//	-p string   S3 secret access key
//	-b string   S3 bucket
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000")
//
// Arguments are filtered with flagx.FilterArgs first so that -c/-config and
// unrelated flags do not trip the parser.
func parseFlags(config *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-a", "-m", "-l", "-s", "-r", "-k", "-i", "-d", "-u", "-p", "-b", "-g", "-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.Addr, "a", config.Addr, "address and port to run server")
	fs.StringVar(&config.Environment, "m", config.Environment, "environment")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.SessionSecret, "s", config.SessionSecret, "session secret")
	fs.StringVar(&config.RecordStore, "r", config.RecordStore, "record store backend")
	fs.StringVar(&config.AirtableAPIKey, "k", config.AirtableAPIKey, "Airtable API key")
	fs.StringVar(&config.AirtableBaseID, "i", config.AirtableBaseID, "Airtable base id")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.S3AccessKeyID, "u", config.S3AccessKeyID, "S3 access key id")
	fs.StringVar(&config.S3SecretAccessKey, "p", config.S3SecretAccessKey, "S3 secret access key")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}

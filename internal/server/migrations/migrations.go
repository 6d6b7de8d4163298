// Package migrations embeds the SQL schema of the Postgres record store.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS

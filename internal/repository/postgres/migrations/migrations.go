// Package migrations embeds the SQL schema applied by goose at startup.
// Table names carry ${TABLE_PREFIX}, substituted from the environment.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

// Package migrations embeds the SQL schema so binaries can migrate
// without the source tree.
package migrations

import "embed"

// FS holds every up and down migration.
//
//go:embed *.sql
var FS embed.FS

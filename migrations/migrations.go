// Package migrations embeds the goose SQL migrations for the task store.
// They are applied at process startup via pg.Migrate.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

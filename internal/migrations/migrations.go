// Package migrations embeds the goose SQL migrations so the binary carries its own schema.
package migrations

import "embed"

// FS содержит все *.sql миграции, порядок задаётся префиксом версии
//
//go:embed *.sql
var FS embed.FS

// Package bookverse exposes repository-level embedded assets, such as SQL
// migrations consumed by the migrate subcommand.
package bookverse

import "embed"

// Migrations holds the goose SQL migrations applied by `bookverse migrate`.
//
//go:embed migrations/*.sql
var Migrations embed.FS

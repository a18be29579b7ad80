// Package mmrag holds module-level embedded assets shared by the CLI.
package mmrag

import "embed"

// Migrations contains the goose SQL migrations applied by the migrate
// subcommand. River manages its own queue tables separately.
//
//go:embed migrations/*.sql
var Migrations embed.FS

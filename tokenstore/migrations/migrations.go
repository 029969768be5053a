package migrations

import "embed"

// Migrations holds the sqlite schema for the durable token store.
//
//go:embed *.sql
var Migrations embed.FS

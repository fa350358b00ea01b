// Package migrations embeds the goose SQL migrations for the credential and
// session store.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS

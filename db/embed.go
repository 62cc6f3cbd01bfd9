// Package db provides the embedded database schema.
package db

import _ "embed"

// Schema contains the DDL statements for all connector tables.
//
//go:embed migrations/001_init.up.sql
var Schema string

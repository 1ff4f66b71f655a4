// Package db provides the embedded database schema and seed data.
package db

import _ "embed"

// Schema contains the DDL statements for all application tables. Every
// statement is idempotent, so it is applied on each start.
//
//go:embed migrations/001_schema.sql
var Schema string

// SeedProducts is the default catalog as a JSON array.
//
//go:embed seed/products.json
var SeedProducts []byte

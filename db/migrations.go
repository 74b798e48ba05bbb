package db

import "embed"

// Migrations holds the goose SQL migrations for the postgres driver.
//
//go:embed migrations/*.sql
var Migrations embed.FS

const MigrationsDir = "migrations"

// Package database manages the local SQLite archive connection.
//
// It wraps database/sql with lifecycle management (directory creation, WAL
// pragmas, permissions), embedded-filesystem migrations, and health checks.
// Migrations are registered by the top-level migrations package via
// MigrationsFS and applied at startup.
package database

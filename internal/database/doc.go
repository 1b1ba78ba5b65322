// Package database provides the PostgreSQL persistence layer: connection
// pool setup, schema migrations, and the repositories backing the domain
// interfaces. All repositories speak raw SQL through pgx.
package database

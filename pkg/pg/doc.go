// Package pg connects to PostgreSQL with pgx, applies the embedded goose
// migrations and provides a session.Store over a single key-value table.
package pg

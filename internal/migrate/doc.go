// Package migrate applies embedded SQL schema migrations in version
// order, recording each run in the schema_migrations table so a
// migration never executes twice.
package migrate

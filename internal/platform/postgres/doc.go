// Package postgres provides PostgreSQL implementations of the store
// interfaces defined in internal/store.
//
// Stage moves run inside store.RunInTransaction so that an item is never
// observable in zero or two stage tables. Fuzzy duplicate lookups rely on
// the pg_trgm extension, enabled by the initial migration.
package postgres

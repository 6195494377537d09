// Package store defines the persistence ports of the promotion pipeline
// and shared database plumbing (the DBTX abstraction, transaction helper,
// and sentinel errors).
//
// Production implementations live in internal/platform/postgres; tests use
// in-memory fakes. Stage moves are multi-table operations and must run
// through RunInTransaction.
package store

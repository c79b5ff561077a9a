// Package ledger persists which source files quietcut has already handled so
// repeated scans of the same folder submit each file at most once.
//
// The ledger is a single SQLite database guarded by an advisory file lock;
// only one quietcut process may hold it open at a time. Rows left in the
// processing state by an interrupted run are deferred when the ledger is next
// opened, which makes them eligible for another attempt.
package ledger

// Package database provides SQLite-based storage for sitegraph.
//
// This package implements the crawl history database, which stores:
//   - Crawl runs with the complete result serialized as JSON
//   - Per-page fetch records for direct querying across runs
//   - Link graph edges for structural queries
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
package database

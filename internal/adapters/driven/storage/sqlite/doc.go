// Package sqlite stores hazard records in a SQLite database using
// modernc.org/sqlite, a pure Go driver that needs no CGO.
//
// One database connection serves two stores:
//
//   - KnownDataStore: approved hazard assessment records (known_data)
//   - HazardStore: hazards awaiting review (pending_hazards)
//
// # Schema
//
// The schema is managed through numbered migrations in the migrations/
// directory, each a pair of .up.sql and .down.sql files. Applied versions
// are recorded in schema_migrations.
//
// # Data Location
//
// By default the database is stored at ~/.riskmatch/data/riskmatch.db.
package sqlite

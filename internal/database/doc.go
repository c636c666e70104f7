// Package database provides the PostgreSQL connection pool used by the
// durable tick sink. TimescaleDB works unchanged; the ticks table is a
// natural hypertable candidate.
package database

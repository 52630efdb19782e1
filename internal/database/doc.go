// Package database stores analysis and score results in SQLite.
//
// Results are stored as JSON next to a few indexed columns (domain,
// timestamp, visibility, total score) so that history and the public
// listing can be queried without decoding every row. The driver is
// modernc.org/sqlite, which needs no cgo.
package database

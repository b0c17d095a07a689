// Package history persists peripheral readings to SQLite and answers
// time-ranged aggregation queries over them.
//
// Each peripheral kind writes to its own table with a kind-specific
// value column. Readings land at minute resolution; queries pick an
// aggregation level from the width of the requested range.
package history

// Package models contains domain types for the instrument log collator.
package models

import "time"

// Sample is one raw measurement cell taken from a cached log file:
// a value for one raw column at one timestamp. Raw files have arbitrary
// column sets, so samples carry their column name instead of a fixed schema.
type Sample struct {
	Timestamp time.Time
	Column    string // raw column name as it appears in the log header
	Value     string // raw cell text; coerced to float64 during collation
}

// Row is one line of the final long-format output.
type Row struct {
	Timestamp time.Time
	Measurand string // human-readable label from the field map
	Value     float64
}

// TimestampLayout is the fixed output format for row timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

// Package collate merges raw samples from many log files into the final
// long-format table. It is pure: no I/O, deterministic for a fixed input
// order.
package collate

import (
	"sort"
	"strconv"
	"time"

	"github.com/cozi-lab/logsync/internal/fieldmap"
	"github.com/cozi-lab/logsync/internal/models"
)

// rowKey identifies one output cell. Timestamps are second resolution, so
// unix seconds are a complete key.
type rowKey struct {
	unix      int64
	measurand string
}

// Collate filters samples through the field map, merges duplicates and
// returns rows sorted ascending by (timestamp, measurand).
//
// Duplicate (timestamp, measurand) pairs across source files are resolved
// last-write-wins: the sample appearing later in the input slice replaces
// earlier ones. Callers feed samples in file-processing order, so "later"
// means the more recently processed source file. Averaging was deliberately
// rejected; duplicate timestamps mean a re-logged interval, not two
// independent readings.
//
// Samples whose value does not coerce to a float are dropped; the count of
// dropped samples is returned alongside the rows.
func Collate(samples []models.Sample, fm fieldmap.Map) ([]models.Row, int) {
	merged := make(map[rowKey]models.Row)
	dropped := 0

	for _, s := range samples {
		label, ok := fm.Label(s.Column)
		if !ok {
			continue
		}

		value, err := strconv.ParseFloat(s.Value, 64)
		if err != nil {
			dropped++
			continue
		}

		ts := s.Timestamp.Truncate(time.Second)
		merged[rowKey{unix: ts.Unix(), measurand: label}] = models.Row{
			Timestamp: ts,
			Measurand: label,
			Value:     value,
		}
	}

	rows := make([]models.Row, 0, len(merged))
	for _, row := range merged {
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Timestamp.Equal(rows[j].Timestamp) {
			return rows[i].Timestamp.Before(rows[j].Timestamp)
		}
		return rows[i].Measurand < rows[j].Measurand
	})

	return rows, dropped
}

// Package output serializes collated rows to the final CSV artifact.
package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cozi-lab/logsync/internal/models"
)

// WriteCSV writes rows to path with the fixed three-column header. Rows are
// written in the order given; the collator has already sorted them.
func WriteCSV(path string, rows []models.Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("output: create %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write([]string{"timestamp", "measurand", "value"}); err != nil {
		f.Close()
		return fmt.Errorf("output: write header: %w", err)
	}

	for _, row := range rows {
		record := []string{
			row.Timestamp.Format(models.TimestampLayout),
			row.Measurand,
			FormatValue(row.Value),
		}
		if err := w.Write(record); err != nil {
			f.Close()
			return fmt.Errorf("output: write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("output: flush: %w", err)
	}
	return f.Close()
}

// FormatValue prints a measurement with the fewest digits that round-trip,
// keeping a trailing ".0" on whole numbers so values always read as
// decimals (5 → "5.0", 23.456 → "23.456").
func FormatValue(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

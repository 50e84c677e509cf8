// Package parser reads cached raw instrument log files into timestamped
// samples. Raw files are header-row CSV with one timestamp column and one
// column per measurand channel; column sets vary file to file.
package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cozi-lab/logsync/internal/models"
)

// ParseError indicates a file with no usable structure (no timestamp
// column). The file is skipped entirely; the run continues.
type ParseError struct {
	Path   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %s", e.Path, e.Reason)
}

// RowError records one skipped cell or row. Cell-level problems never fail
// the file: one malformed sensor channel must not discard an otherwise-good
// time sample.
type RowError struct {
	Line   int
	Column string
	Reason string
}

func (e *RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("line %d, column %s: %s", e.Line, e.Column, e.Reason)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// timestampColumn is the header name loggers use for the time axis.
const timestampColumn = "timestamp"

// ParseFile reads one raw log file into samples. Rows with unparsable
// timestamps and cells with non-numeric values are skipped individually and
// reported in the returned RowError slice. An empty file parses to zero
// samples. A file without a timestamp column fails with *ParseError.
func ParseFile(path string) ([]models.Sample, []*RowError, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, &ParseError{Path: path, Reason: fmt.Sprintf("unreadable header: %v", err)}
	}

	// Strip a UTF-8 BOM some loggers prepend.
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	tsIdx := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), timestampColumn) {
			tsIdx = i
			break
		}
	}
	if tsIdx == -1 {
		return nil, nil, &ParseError{Path: path, Reason: "no timestamp column"}
	}

	var samples []models.Sample
	var rowErrs []*RowError
	line := 1

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			rowErrs = append(rowErrs, &RowError{Line: line, Reason: fmt.Sprintf("malformed row: %v", err)})
			continue
		}
		if tsIdx >= len(record) {
			rowErrs = append(rowErrs, &RowError{Line: line, Reason: "row has no timestamp cell"})
			continue
		}

		ts, err := ParseTimestamp(record[tsIdx])
		if err != nil {
			rowErrs = append(rowErrs, &RowError{Line: line, Column: timestampColumn, Reason: err.Error()})
			continue
		}

		for i, cell := range record {
			if i == tsIdx || i >= len(header) {
				continue
			}
			column := strings.TrimSpace(header[i])
			if column == "" {
				continue
			}
			value := strings.TrimSpace(cell)
			if value == "" {
				continue
			}
			if _, err := strconv.ParseFloat(value, 64); err != nil {
				rowErrs = append(rowErrs, &RowError{Line: line, Column: column, Reason: "non-numeric value"})
				continue
			}
			samples = append(samples, models.Sample{
				Timestamp: ts,
				Column:    column,
				Value:     value,
			})
		}
	}

	return samples, rowErrs, nil
}

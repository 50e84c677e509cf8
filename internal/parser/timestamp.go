package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// excelEpoch is day zero of the Excel serial date system. The loggers write
// timestamps as fractional days since this date.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// Serial values outside this window (years ~1930..2070) are treated as
// garbage rather than dates.
const (
	minSerialDays = 11000
	maxSerialDays = 62000
)

// ParseTimestamp converts a raw timestamp cell to a time.Time. Two forms are
// accepted: an Excel serial day count (the historical logger format, rounded
// to the nearest second to absorb float conversion noise) and a literal
// "YYYY-mm-dd HH:MM:SS" wall-clock string written by newer loggers.
func ParseTimestamp(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if serial < minSerialDays || serial > maxSerialDays {
			return time.Time{}, fmt.Errorf("serial date %g out of range", serial)
		}
		seconds := math.Round(serial * 86400)
		return excelEpoch.Add(time.Duration(seconds) * time.Second), nil
	}

	return parseWallClock(s)
}

// parseWallClock parses "2006-01-02 15:04:05" manually. This runs once per
// log row, and the fixed layout makes it several times faster than
// time.Parse.
func parseWallClock(s string) (time.Time, error) {
	if len(s) < 19 {
		return time.Time{}, fmt.Errorf("timestamp too short: %q", s)
	}

	year := parseInt4(s[0:4])
	month := parseInt2(s[5:7])
	day := parseInt2(s[8:10])
	hour := parseInt2(s[11:13])
	min := parseInt2(s[14:16])
	sec := parseInt2(s[17:19])

	if year < 0 || month < 1 || month > 12 || day < 1 || day > 31 ||
		hour < 0 || hour > 23 || min < 0 || min > 59 || sec < 0 || sec > 59 {
		// Fall back to time.Parse for anything unusual.
		t, err := time.Parse("2006-01-02 15:04:05", s)
		if err != nil {
			return time.Time{}, fmt.Errorf("bad timestamp %q", s)
		}
		return t, nil
	}

	return time.Date(year, time.Month(month), day, hour, min, sec, 0, time.UTC), nil
}

// parseInt2 parses a 2-digit decimal string. Returns -1 on error.
func parseInt2(s string) int {
	if len(s) != 2 {
		return -1
	}
	d1, d2 := s[0]-'0', s[1]-'0'
	if d1 > 9 || d2 > 9 {
		return -1
	}
	return int(d1)*10 + int(d2)
}

// parseInt4 parses a 4-digit decimal string. Returns -1 on error.
func parseInt4(s string) int {
	if len(s) != 4 {
		return -1
	}
	d1, d2, d3, d4 := s[0]-'0', s[1]-'0', s[2]-'0', s[3]-'0'
	if d1 > 9 || d2 > 9 || d3 > 9 || d4 > 9 {
		return -1
	}
	return int(d1)*1000 + int(d2)*100 + int(d3)*10 + int(d4)
}

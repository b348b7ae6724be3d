package dataprep

import (
	"fmt"
	"strconv"
	"strings"

	"plpredict/pkg/match"
)

// nullMarkers are textual placeholders treated as a missing attendance.
var nullMarkers = map[string]struct{}{
	"Nan": {},
	"NaN": {},
	"nan": {},
}

// AttendanceError reports an attendance value that survived the null
// filter but is not a non-negative integer.
type AttendanceError struct {
	Line  int
	Value string
	Err   error
}

func (e *AttendanceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dataprep: line %d: attendance %q: %v", e.Line, e.Value, e.Err)
	}
	return fmt.Sprintf("dataprep: line %d: attendance %q is negative", e.Line, e.Value)
}

func (e *AttendanceError) Unwrap() error { return e.Err }

// FieldError reports a numeric match field that could not be read on a row
// that would otherwise have been kept.
type FieldError struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("dataprep: line %d: %s %q: %v", e.Line, e.Column, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// Summary describes a cleaning run.
type Summary struct {
	Read         int
	Kept         int
	Dropped      int
	Distribution map[match.Outcome]int
}

// IsMissing reports whether v is empty or one of the null markers.
func IsMissing(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return true
	}
	_, ok := nullMarkers[v]
	return ok
}

// ParseAttendance strips thousands separators and parses the remainder as
// an integer.
func ParseAttendance(v string) (int, error) {
	n, err := strconv.Atoi(strings.ReplaceAll(strings.TrimSpace(v), ",", ""))
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Clean turns raw match records into labelled feature rows.
//
// Rows missing a stadium or attendance are dropped. Any other bad value on
// a surviving row fails the whole run so no partial table is produced.
// Surviving rows keep their input order.
func Clean(records []match.Record) ([]match.FeatureRow, Summary, error) {
	sum := Summary{Read: len(records)}
	rows := make([]match.FeatureRow, 0, len(records))

	for _, rec := range records {
		if IsMissing(rec.Stadium) || IsMissing(rec.Attendance) {
			sum.Dropped++
			continue
		}

		attendance, err := ParseAttendance(rec.Attendance)
		if err != nil {
			return nil, Summary{}, &AttendanceError{Line: rec.Line, Value: rec.Attendance, Err: err}
		}
		if attendance < 0 {
			return nil, Summary{}, &AttendanceError{Line: rec.Line, Value: rec.Attendance}
		}

		row, err := deriveFeatures(rec)
		if err != nil {
			return nil, Summary{}, err
		}
		row.Attendance = attendance
		rows = append(rows, row)
	}

	sum.Kept = len(rows)
	sum.Distribution = match.Distribution(rows)
	return rows, sum, nil
}

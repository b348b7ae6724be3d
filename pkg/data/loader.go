package data

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"plpredict/pkg/match"
)

// ErrMissingColumns is returned when a table lacks a required column.
var ErrMissingColumns = errors.New("data: missing required columns")

// ErrNotFinite and ErrNegativeAttendance reject feature rows that could not
// have come out of cleaning.
var (
	ErrNotFinite          = errors.New("value is not a finite number")
	ErrNegativeAttendance = errors.New("attendance cannot be negative")
)

// header maps column names to their index.
type header map[string]int

func readHeader(reader *csv.Reader, required []string) (header, error) {
	rec, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", ErrMissingColumns)
	}
	if err != nil {
		return nil, fmt.Errorf("data: read header: %w", err)
	}
	h := make(header, len(rec))
	for i, name := range rec {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		h[strings.TrimSpace(name)] = i
	}
	var missing []string
	for _, col := range required {
		if _, ok := h[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return h, nil
}

func (h header) get(rec []string, col string) string {
	return rec[h[col]]
}

// ReadRecords reads raw match rows. Columns are located by header name so
// extra columns and any column order are accepted.
func ReadRecords(r io.Reader) ([]match.Record, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	h, err := readHeader(reader, match.RawColumns)
	if err != nil {
		return nil, err
	}

	var out []match.Record
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("data: read record: %w", err)
		}
		line, _ := reader.FieldPos(0)
		out = append(out, match.Record{
			Line:           line,
			Stadium:        h.get(rec, match.ColStadium),
			Attendance:     h.get(rec, match.ColAttendance),
			HomeGoals:      h.get(rec, match.ColHomeGoals),
			AwayGoals:      h.get(rec, match.ColAwayGoals),
			HomePossession: h.get(rec, match.ColHomePossession),
			AwayPossession: h.get(rec, match.ColAwayPossession),
			HomeShots:      h.get(rec, match.ColHomeShots),
			AwayShots:      h.get(rec, match.ColAwayShots),
		})
	}
	return out, nil
}

// ReadRecordsFile opens path and reads raw match rows from it.
func ReadRecordsFile(path string) ([]match.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadRecords(f)
}

// ReadFeatureRows reads a cleaned table. All four columns are required.
func ReadFeatureRows(r io.Reader) ([]match.FeatureRow, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	required := append(append([]string(nil), match.FeatureColumns...), match.LabelColumn)
	h, err := readHeader(reader, required)
	if err != nil {
		return nil, err
	}

	var out []match.FeatureRow
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("data: read record: %w", err)
		}
		line, _ := reader.FieldPos(0)

		var row match.FeatureRow
		if row.PossessionDifference, err = parseFinite(h.get(rec, match.ColPossessionDifference)); err != nil {
			return nil, fmt.Errorf("data: line %d: %s: %w", line, match.ColPossessionDifference, err)
		}
		if row.ShotDifference, err = parseFinite(h.get(rec, match.ColShotDifference)); err != nil {
			return nil, fmt.Errorf("data: line %d: %s: %w", line, match.ColShotDifference, err)
		}
		if row.Attendance, err = strconv.Atoi(strings.TrimSpace(h.get(rec, match.ColAttendance))); err != nil {
			return nil, fmt.Errorf("data: line %d: %s: %w", line, match.ColAttendance, err)
		}
		if row.Attendance < 0 {
			return nil, fmt.Errorf("data: line %d: %s: %w", line, match.ColAttendance, ErrNegativeAttendance)
		}
		if row.Outcome, err = match.ParseOutcome(h.get(rec, match.LabelColumn)); err != nil {
			return nil, fmt.Errorf("data: line %d: %w", line, err)
		}
		out = append(out, row)
	}
	return out, nil
}

func parseFinite(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrNotFinite
	}
	return v, nil
}

// ReadFeatureRowsFile opens path and reads a cleaned table from it.
func ReadFeatureRowsFile(path string) ([]match.FeatureRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadFeatureRows(f)
}

// WriteFeatureRows writes the cleaned table with its header.
func WriteFeatureRows(w io.Writer, rows []match.FeatureRow) error {
	writer := csv.NewWriter(w)
	headers := append(append([]string(nil), match.FeatureColumns...), match.LabelColumn)
	if err := writer.Write(headers); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			strconv.FormatFloat(r.PossessionDifference, 'f', -1, 64),
			strconv.FormatFloat(r.ShotDifference, 'f', -1, 64),
			strconv.Itoa(r.Attendance),
			r.Outcome.String(),
		}
		if err := writer.Write(rec); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteFeatureRowsFile writes the cleaned table to path. The file only
// appears once every row has been written.
func WriteFeatureRowsFile(path string, rows []match.FeatureRow) error {
	return WriteFileAtomic(path, func(w io.Writer) error {
		return WriteFeatureRows(w, rows)
	})
}

package dataprep

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"plpredict/pkg/match"
)

var errNotFinite = errors.New("value is not a finite number")

// parseStat reads one numeric match statistic.
func parseStat(rec match.Record, col, raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err == nil && (math.IsNaN(v) || math.IsInf(v, 0)) {
		err = errNotFinite
	}
	if err != nil {
		return 0, &FieldError{Line: rec.Line, Column: col, Value: raw, Err: err}
	}
	return v, nil
}

// deriveFeatures computes home-minus-away differences and the outcome.
// Attendance is filled in by the caller.
func deriveFeatures(rec match.Record) (match.FeatureRow, error) {
	cols := [...]struct{ name, raw string }{
		{match.ColHomeGoals, rec.HomeGoals},
		{match.ColAwayGoals, rec.AwayGoals},
		{match.ColHomePossession, rec.HomePossession},
		{match.ColAwayPossession, rec.AwayPossession},
		{match.ColHomeShots, rec.HomeShots},
		{match.ColAwayShots, rec.AwayShots},
	}
	var v [len(cols)]float64
	for i, c := range cols {
		x, err := parseStat(rec, c.name, c.raw)
		if err != nil {
			return match.FeatureRow{}, err
		}
		v[i] = x
	}
	return match.FeatureRow{
		PossessionDifference: v[2] - v[3],
		ShotDifference:       v[4] - v[5],
		Outcome:              match.DecideOutcome(v[0], v[1]),
	}, nil
}

package match

import (
	"fmt"
	"strings"
)

// Raw input columns.
const (
	ColStadium        = "stadium"
	ColAttendance     = "attendance"
	ColHomeGoals      = "Goals Home"
	ColAwayGoals      = "Away Goals"
	ColHomePossession = "home_possessions"
	ColAwayPossession = "away_possessions"
	ColHomeShots      = "home_shots"
	ColAwayShots      = "away_shots"
)

// Cleaned table columns.
const (
	ColPossessionDifference = "possession_difference"
	ColShotDifference       = "shot_difference"
	LabelColumn             = "outcome"
)

// RawColumns lists the columns a raw match file must carry.
var RawColumns = []string{
	ColStadium, ColAttendance,
	ColHomeGoals, ColAwayGoals,
	ColHomePossession, ColAwayPossession,
	ColHomeShots, ColAwayShots,
}

// FeatureColumns is the feature order used for training and inference.
var FeatureColumns = []string{ColPossessionDifference, ColShotDifference, ColAttendance}

// Outcome is the result of a match from the home side's point of view.
type Outcome int

const (
	HomeWin Outcome = iota
	Draw
	AwayWin
)

var outcomeLabels = [...]string{
	HomeWin: "Home Win",
	Draw:    "Draw",
	AwayWin: "Away Win",
}

// Outcomes returns every outcome in display order.
func Outcomes() []Outcome { return []Outcome{HomeWin, Draw, AwayWin} }

func (o Outcome) String() string {
	if !o.Valid() {
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
	return outcomeLabels[o]
}

// Valid reports whether o is one of the three known outcomes.
func (o Outcome) Valid() bool { return o >= HomeWin && o <= AwayWin }

// ParseOutcome accepts "Home Win", "Draw", "Away Win" in any case, with or
// without the space.
func ParseOutcome(s string) (Outcome, error) {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	for _, o := range Outcomes() {
		if key == strings.ToLower(strings.ReplaceAll(outcomeLabels[o], " ", "")) {
			return o, nil
		}
	}
	return 0, fmt.Errorf("match: unknown outcome %q", s)
}

// DecideOutcome derives the outcome from the final score.
func DecideOutcome(homeGoals, awayGoals float64) Outcome {
	switch {
	case homeGoals > awayGoals:
		return HomeWin
	case homeGoals < awayGoals:
		return AwayWin
	default:
		return Draw
	}
}

// Record is a raw match row as read from the source file. Values are kept
// as text until cleaning decides whether the row survives.
type Record struct {
	Line           int
	Stadium        string
	Attendance     string
	HomeGoals      string
	AwayGoals      string
	HomePossession string
	AwayPossession string
	HomeShots      string
	AwayShots      string
}

// FeatureRow is one cleaned, labelled training example.
type FeatureRow struct {
	PossessionDifference float64
	ShotDifference       float64
	Attendance           int
	Outcome              Outcome
}

// Features returns the row's feature vector in FeatureColumns order.
func (r FeatureRow) Features() []float64 {
	return []float64{r.PossessionDifference, r.ShotDifference, float64(r.Attendance)}
}

// Matrix splits rows into a feature matrix and integer labels.
func Matrix(rows []FeatureRow) ([][]float64, []int) {
	X := make([][]float64, len(rows))
	y := make([]int, len(rows))
	for i, r := range rows {
		X[i] = r.Features()
		y[i] = int(r.Outcome)
	}
	return X, y
}

// Distribution counts rows per outcome.
func Distribution(rows []FeatureRow) map[Outcome]int {
	out := make(map[Outcome]int, 3)
	for _, r := range rows {
		out[r.Outcome]++
	}
	return out
}

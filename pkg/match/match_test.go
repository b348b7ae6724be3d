package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecideOutcome(t *testing.T) {
	tests := []struct {
		home, away float64
		want       Outcome
	}{
		{2, 2, Draw},
		{0, 0, Draw},
		{3, 1, HomeWin},
		{1, 0, HomeWin},
		{0, 4, AwayWin},
		{1, 2, AwayWin},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DecideOutcome(tt.home, tt.away), "score %v-%v", tt.home, tt.away)
	}
}

func TestParseOutcome(t *testing.T) {
	for _, o := range Outcomes() {
		got, err := ParseOutcome(o.String())
		require.NoError(t, err)
		assert.Equal(t, o, got)
	}

	got, err := ParseOutcome("homewin")
	require.NoError(t, err)
	assert.Equal(t, HomeWin, got)

	_, err = ParseOutcome("Abandoned")
	assert.Error(t, err)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "Home Win", HomeWin.String())
	assert.Equal(t, "Away Win", AwayWin.String())
	assert.Equal(t, "Draw", Draw.String())
	assert.Equal(t, "Outcome(7)", Outcome(7).String())
}

func TestMatrixKeepsFeatureOrder(t *testing.T) {
	rows := []FeatureRow{
		{PossessionDifference: 15.5, ShotDifference: 8, Attendance: 45000, Outcome: HomeWin},
		{PossessionDifference: -3, ShotDifference: -1, Attendance: 20000, Outcome: Draw},
	}
	X, y := Matrix(rows)
	assert.Equal(t, [][]float64{{15.5, 8, 45000}, {-3, -1, 20000}}, X)
	assert.Equal(t, []int{int(HomeWin), int(Draw)}, y)
	assert.Equal(t, map[Outcome]int{HomeWin: 1, Draw: 1}, Distribution(rows))
}

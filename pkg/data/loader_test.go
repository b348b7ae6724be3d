package data

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plpredict/pkg/match"
)

const rawCSV = `date,stadium,attendance,Goals Home,Away Goals,home_possessions,away_possessions,home_shots,away_shots
2023-08-11,Turf Moor,"21,684",0,3,35.1,64.9,6,17
2023-08-12,Emirates Stadium,Nan,2,1,77.8,22.2,15,6
`

func TestReadRecords(t *testing.T) {
	recs, err := ReadRecords(strings.NewReader(rawCSV))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "Turf Moor", recs[0].Stadium)
	assert.Equal(t, "21,684", recs[0].Attendance)
	assert.Equal(t, "0", recs[0].HomeGoals)
	assert.Equal(t, "3", recs[0].AwayGoals)
	assert.Equal(t, "64.9", recs[0].AwayPossession)
	assert.Equal(t, 2, recs[0].Line)
	assert.Equal(t, "Nan", recs[1].Attendance)
}

func TestReadRecordsMissingColumns(t *testing.T) {
	_, err := ReadRecords(strings.NewReader("stadium,attendance\nAnfield,50000\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumns))
	assert.Contains(t, err.Error(), "Goals Home")
	assert.Contains(t, err.Error(), "away_shots")
}

func TestFeatureRowsRoundTrip(t *testing.T) {
	rows := []match.FeatureRow{
		{PossessionDifference: 15.5, ShotDifference: 8, Attendance: 45000, Outcome: match.HomeWin},
		{PossessionDifference: -29.8, ShotDifference: -11, Attendance: 21684, Outcome: match.AwayWin},
		{PossessionDifference: 0, ShotDifference: 0, Attendance: 0, Outcome: match.Draw},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteFeatureRows(&buf, rows))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "possession_difference,shot_difference,attendance,outcome", lines[0])
	assert.Equal(t, "15.5,8,45000,Home Win", lines[1])

	got, err := ReadFeatureRows(&buf)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestReadFeatureRowsMissingOutcome(t *testing.T) {
	_, err := ReadFeatureRows(strings.NewReader("possession_difference,shot_difference,attendance\n1,2,3\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumns))
	assert.Contains(t, err.Error(), "outcome")
}

func TestReadFeatureRowsBadValue(t *testing.T) {
	_, err := ReadFeatureRows(strings.NewReader("possession_difference,shot_difference,attendance,outcome\nx,2,3,Draw\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestReadFeatureRowsRejectsImpossibleValues(t *testing.T) {
	const head = "possession_difference,shot_difference,attendance,outcome\n"
	tests := []struct {
		name string
		row  string
		want error
	}{
		{"nan possession", "NaN,3,100,Draw\n", ErrNotFinite},
		{"infinite shots", "1,+Inf,100,Draw\n", ErrNotFinite},
		{"negative attendance", "1,3,-5,Draw\n", ErrNegativeAttendance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := ReadFeatureRows(strings.NewReader(head + "1,2,3,Home Win\n" + tt.row))
			require.Error(t, err)
			assert.Nil(t, rows)
			assert.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), "line 3")
		})
	}
}

func TestWriteFileAtomicLeavesNoFileOnError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	err := WriteFileAtomic(path, func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return errors.New("boom")
	})
	require.Error(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

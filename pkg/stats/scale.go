package stats

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

var (
	ErrNotFitted = errors.New("scaler: not fitted")
	ErrEmpty     = errors.New("scaler: empty X")
)

// StandardScaler standardizes each column to zero mean and unit variance
// using statistics learned by Fit.
type StandardScaler struct {
	Mean []float64
	Std  []float64
	fit  bool
}

func NewStandardScaler() *StandardScaler { return &StandardScaler{} }

// Fit learns per-column mean and population standard deviation. Columns
// with zero spread get a standard deviation of 1 so they map to 0.
func (s *StandardScaler) Fit(X [][]float64) error {
	if len(X) == 0 {
		return ErrEmpty
	}
	r, c := len(X), len(X[0])
	s.Mean = make([]float64, c)
	s.Std = make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		for i := 0; i < r; i++ {
			if len(X[i]) != c {
				return fmt.Errorf("scaler: row %d has %d columns, want %d", i, len(X[i]), c)
			}
			col[i] = X[i][j]
		}
		mean, variance := stat.PopMeanVariance(col, nil)
		s.Mean[j] = mean
		s.Std[j] = math.Sqrt(variance)
		if s.Std[j] == 0 {
			s.Std[j] = 1
		}
	}
	s.fit = true
	return nil
}

// Fitted reports whether Fit (or UnmarshalBinary) has populated the scaler.
func (s *StandardScaler) Fitted() bool { return s.fit }

// NFeatures is the column count the scaler was fitted on.
func (s *StandardScaler) NFeatures() int { return len(s.Mean) }

// Transform returns a standardized copy of X.
func (s *StandardScaler) Transform(X [][]float64) ([][]float64, error) {
	if !s.fit {
		return nil, ErrNotFitted
	}
	c := len(s.Mean)
	Y := make([][]float64, len(X))
	for i := range X {
		if len(X[i]) != c {
			return nil, fmt.Errorf("scaler: row %d has %d columns, want %d", i, len(X[i]), c)
		}
		row := make([]float64, c)
		for j := 0; j < c; j++ {
			row[j] = (X[i][j] - s.Mean[j]) / s.Std[j]
		}
		Y[i] = row
	}
	return Y, nil
}

func (s *StandardScaler) FitTransform(X [][]float64) ([][]float64, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// MarshalBinary implements encoding.BinaryMarshaler using gob.
func (s *StandardScaler) MarshalBinary() ([]byte, error) {
	if !s.fit {
		return nil, ErrNotFitted
	}
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(s.Mean); err != nil {
		return nil, err
	}
	if err := enc.Encode(s.Std); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler using gob.
func (s *StandardScaler) UnmarshalBinary(data []byte) error {
	dec := gob.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&s.Mean); err != nil {
		return err
	}
	if err := dec.Decode(&s.Std); err != nil {
		return err
	}
	if len(s.Mean) == 0 || len(s.Mean) != len(s.Std) {
		return fmt.Errorf("scaler: corrupt state: %d means, %d stds", len(s.Mean), len(s.Std))
	}
	for _, v := range s.Std {
		if v == 0 {
			return errors.New("scaler: corrupt state: zero std")
		}
	}
	s.fit = true
	return nil
}

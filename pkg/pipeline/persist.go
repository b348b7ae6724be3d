package pipeline

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"plpredict/pkg/data"
	"plpredict/pkg/model"
	"plpredict/pkg/stats"
)

// SaveScaler gob-encodes a fitted scaler to path. The file is replaced
// atomically.
func SaveScaler(path string, s *stats.StandardScaler) error {
	if s == nil || !s.Fitted() {
		return stats.ErrNotFitted
	}
	return save(path, s)
}

// SaveModel gob-encodes a fitted forest to path. The file is replaced
// atomically.
func SaveModel(path string, m *model.RandomForest) error {
	if m == nil || len(m.Trees) == 0 {
		return errors.New("pipeline: model not fitted")
	}
	return save(path, m)
}

func save(path string, v any) error {
	err := data.WriteFileAtomic(path, func(w io.Writer) error {
		return gob.NewEncoder(w).Encode(v)
	})
	if err != nil {
		return fmt.Errorf("pipeline: save %s: %w", path, err)
	}
	return nil
}

// LoadScaler reads a scaler written by SaveScaler. A missing file yields an
// error matching fs.ErrNotExist.
func LoadScaler(path string) (*stats.StandardScaler, error) {
	s := stats.NewStandardScaler()
	if err := load(path, s); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadModel reads a forest written by SaveModel. A missing file yields an
// error matching fs.ErrNotExist.
func LoadModel(path string) (*model.RandomForest, error) {
	m := &model.RandomForest{}
	if err := load(path, m); err != nil {
		return nil, err
	}
	return m, nil
}

func load(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("pipeline: load %s: %w", path, err)
	}
	defer f.Close()
	if err := gob.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("pipeline: decode %s: %w", path, err)
	}
	return nil
}

// Load reads both artifacts. A missing scaler is tolerated and leaves
// Scaler nil; a missing model is returned as an error matching
// fs.ErrNotExist.
func Load(modelPath, scalerPath string) (*Pipeline, error) {
	m, err := LoadModel(modelPath)
	if err != nil {
		return nil, err
	}
	p := New(nil, m)
	s, err := LoadScaler(scalerPath)
	switch {
	case err == nil:
		p.Scaler = s
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

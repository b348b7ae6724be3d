package pipeline

import (
	"errors"
	"fmt"

	"plpredict/pkg/model"
	"plpredict/pkg/stats"
)

var (
	_ model.Transformer = (*stats.StandardScaler)(nil)
	_ model.Classifier  = (*model.RandomForest)(nil)
)

// Pipeline is a fitted scaler followed by a classifier. The scaler is
// optional: a nil Scaler passes features through unchanged.
type Pipeline struct {
	Scaler *stats.StandardScaler
	Model  *model.RandomForest
	Schema Schema
}

// New returns a pipeline over the match feature schema.
func New(scaler *stats.StandardScaler, m *model.RandomForest) *Pipeline {
	return &Pipeline{Scaler: scaler, Model: m, Schema: MatchSchema()}
}

// Scaled reports whether inputs are standardized before prediction.
func (p *Pipeline) Scaled() bool { return p.Scaler != nil }

// Validate checks that both halves agree with the schema's width.
func (p *Pipeline) Validate() error {
	if p.Model == nil {
		return errors.New("pipeline: no model")
	}
	if err := p.Schema.Check("model", p.Model.NFeatures); err != nil {
		return err
	}
	if p.Scaler != nil {
		if err := p.Schema.Check("scaler", p.Scaler.NFeatures()); err != nil {
			return err
		}
	}
	return nil
}

// Transform applies the scaler when present and returns X otherwise.
func (p *Pipeline) Transform(X [][]float64) ([][]float64, error) {
	if p.Scaler == nil {
		return X, nil
	}
	return p.Scaler.Transform(X)
}

// PredictProba transforms X and returns class probabilities in
// Model.Classes() order.
func (p *Pipeline) PredictProba(X [][]float64) ([][]float64, error) {
	if p.Model == nil {
		return nil, errors.New("pipeline: no model")
	}
	Xt, err := p.Transform(X)
	if err != nil {
		return nil, fmt.Errorf("pipeline: transform: %w", err)
	}
	return p.Model.PredictProba(Xt)
}

// Predict transforms X and returns predicted labels.
func (p *Pipeline) Predict(X [][]float64) ([]int, error) {
	if p.Model == nil {
		return nil, errors.New("pipeline: no model")
	}
	Xt, err := p.Transform(X)
	if err != nil {
		return nil, fmt.Errorf("pipeline: transform: %w", err)
	}
	return p.Model.Predict(Xt)
}

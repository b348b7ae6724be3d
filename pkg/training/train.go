// Package training tunes, fits and evaluates the outcome model.
package training

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"go.uber.org/zap"

	"plpredict/pkg/data"
	"plpredict/pkg/loader"
	"plpredict/pkg/match"
	"plpredict/pkg/model"
	"plpredict/pkg/pipeline"
	"plpredict/pkg/stats"
)

// Config controls a training run.
type Config struct {
	Seed        int64
	TestRatio   float64
	Folds       int
	Jobs        int
	ClassWeight string
	Grid        model.ParamGrid
}

// DefaultConfig is an 80/20 split, 5-fold CV and balanced class weights
// over the default grid.
func DefaultConfig() Config {
	return Config{
		Seed:        42,
		TestRatio:   0.2,
		Folds:       5,
		ClassWeight: model.ClassWeightBalanced,
		Grid:        model.DefaultParamGrid(),
	}
}

// Importance is one feature's share of the forest's impurity decrease.
type Importance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// Result is everything a finished run produced. Nothing is written to disk
// by Train; see Save.
type Result struct {
	Pipeline     *pipeline.Pipeline  `json:"-"`
	Rows         int                 `json:"rows"`
	TrainSize    int                 `json:"train_size"`
	TestSize     int                 `json:"test_size"`
	Distribution map[string]int      `json:"distribution"`
	Features     []stats.Summary     `json:"features"`
	Search       *model.SearchResult `json:"search"`
	Evaluation   model.Report        `json:"evaluation"`
	Importances  []Importance        `json:"importances"`
	Duration     time.Duration       `json:"duration_ns"`
	Labels       map[int]string      `json:"labels"`
}

// Train splits rows, fits the scaler on the training split, grid-searches
// the forest with stratified k-fold CV, refits the best candidate on the
// whole training split and scores it once on the held-out split.
func Train(ctx context.Context, rows []match.FeatureRow, cfg Config, logger *zap.Logger) (*Result, error) {
	log := logger.Sugar()
	start := time.Now()
	if len(rows) == 0 {
		return nil, errors.New("training: no rows")
	}

	X, y := match.Matrix(rows)
	dist := match.Distribution(rows)
	log.Infow("dataset loaded", "rows", len(rows), "features", len(match.FeatureColumns),
		"home_win", dist[match.HomeWin], "draw", dist[match.Draw], "away_win", dist[match.AwayWin])

	trainIdx, testIdx, err := loader.StratifiedTrainTestSplit(y, cfg.TestRatio, cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("training: %w", err)
	}
	Xtrain, ytrain := loader.Take(X, trainIdx), loader.Take(y, trainIdx)
	Xtest, ytest := loader.Take(X, testIdx), loader.Take(y, testIdx)

	scaler := stats.NewStandardScaler()
	XtrainS, err := scaler.FitTransform(Xtrain)
	if err != nil {
		return nil, fmt.Errorf("training: scaler: %w", err)
	}

	log.Infow("grid search started", "train", len(trainIdx), "test", len(testIdx), "folds", cfg.Folds)
	gs := &model.GridSearch{
		Grid:        cfg.Grid,
		Folds:       cfg.Folds,
		Seed:        cfg.Seed,
		ClassWeight: cfg.ClassWeight,
		Jobs:        cfg.Jobs,
	}
	search, err := gs.Run(ctx, XtrainS, ytrain)
	if err != nil {
		return nil, fmt.Errorf("training: %w", err)
	}
	log.Infow("grid search finished", "best", search.Best.String(), "cv_accuracy", search.BestScore,
		"candidates", len(search.Results))

	rf := model.NewRandomForest(
		model.WithParams(search.Best),
		model.WithClassWeight(cfg.ClassWeight),
		model.WithSeed(cfg.Seed),
		model.WithJobs(cfg.Jobs),
	)
	if err := rf.FitContext(ctx, XtrainS, ytrain); err != nil {
		return nil, fmt.Errorf("training: refit: %w", err)
	}
	p := pipeline.New(scaler, rf)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	// The held-out rows go through the same path the predictor uses.
	pred, err := p.Predict(Xtest)
	if err != nil {
		return nil, fmt.Errorf("training: evaluate: %w", err)
	}

	labels := make([]int, 0, 3)
	names := make(map[int]string, 3)
	for _, o := range match.Outcomes() {
		labels = append(labels, int(o))
		names[int(o)] = o.String()
	}

	res := &Result{
		Pipeline:     p,
		Rows:         len(rows),
		TrainSize:    len(trainIdx),
		TestSize:     len(testIdx),
		Distribution: make(map[string]int, len(dist)),
		Features:     stats.Describe(X, match.FeatureColumns),
		Search:       search,
		Evaluation:   model.ClassificationReport(ytest, pred, labels),
		Importances:  rankImportances(rf.FeatureImportances()),
		Labels:       names,
	}
	for o, n := range dist {
		res.Distribution[o.String()] = n
	}
	res.Duration = time.Since(start)
	log.Infow("training finished", "test_accuracy", res.Evaluation.Accuracy, "elapsed", res.Duration)
	return res, nil
}

// rankImportances pairs importances with feature names, largest first.
func rankImportances(imp []float64) []Importance {
	out := make([]Importance, len(imp))
	for j, v := range imp {
		out[j] = Importance{Feature: match.FeatureColumns[j], Importance: v}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Importance > out[b].Importance })
	return out
}

// Save writes the scaler, then the model.
func (r *Result) Save(modelPath, scalerPath string) error {
	if err := pipeline.SaveScaler(scalerPath, r.Pipeline.Scaler); err != nil {
		return err
	}
	return pipeline.SaveModel(modelPath, r.Pipeline.Model)
}

// WriteJSON writes the run report as indented JSON.
func (r *Result) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteJSONFile writes the report to path atomically.
func (r *Result) WriteJSONFile(path string) error {
	return data.WriteFileAtomic(path, r.WriteJSON)
}

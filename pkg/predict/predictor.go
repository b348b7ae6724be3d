// Package predict turns a user's three match statistics into an outcome
// and a probability per outcome.
package predict

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"plpredict/pkg/match"
	"plpredict/pkg/pipeline"
)

// NoModelMessage is shown for every prediction attempt while no classifier
// is loaded.
const NoModelMessage = "No model loaded! Please run the train command first."

var (
	ErrNoModel   = errors.New(NoModelMessage)
	ErrInference = errors.New("prediction failed, see server logs")
)

// Scaler standardizes feature rows.
type Scaler interface {
	Transform(X [][]float64) ([][]float64, error)
}

// Classifier scores feature rows. PredictProba columns follow Classes().
type Classifier interface {
	PredictProba(X [][]float64) ([][]float64, error)
	Classes() []int
}

// Predictor holds the loaded artifact pair. It is read-only after New and
// safe for concurrent use.
type Predictor struct {
	scaler     Scaler
	classifier Classifier
	log        *zap.SugaredLogger
	now        func() time.Time
}

type Option func(*Predictor)

func WithScaler(s Scaler) Option         { return func(p *Predictor) { p.scaler = s } }
func WithClassifier(c Classifier) Option { return func(p *Predictor) { p.classifier = c } }
func WithLogger(l *zap.Logger) Option    { return func(p *Predictor) { p.log = l.Sugar() } }

// WithPipeline loads both halves of a trained pipeline. A pipeline without
// a scaler leaves inputs unscaled.
func WithPipeline(pl *pipeline.Pipeline) Option {
	return func(p *Predictor) {
		if pl == nil {
			return
		}
		if pl.Model != nil {
			p.classifier = pl.Model
		}
		if pl.Scaler != nil {
			p.scaler = pl.Scaler
		}
	}
}

// New builds a Predictor. With no classifier every Predict call returns
// ErrNoModel.
func New(opts ...Option) *Predictor {
	p := &Predictor{log: zap.NewNop().Sugar(), now: time.Now}
	for _, o := range opts {
		o(p)
	}
	switch {
	case p.classifier == nil:
		p.log.Warnw("no model loaded, predictions disabled")
	case p.scaler == nil:
		p.log.Warnw("scaler not loaded, using unscaled features", "classes", p.classifier.Classes())
	default:
		p.log.Infow("model and scaler loaded", "classes", p.classifier.Classes())
	}
	return p
}

// Ready reports whether a classifier is loaded.
func (p *Predictor) Ready() bool { return p.classifier != nil }

// Scaled reports whether inputs are standardized before classification.
func (p *Predictor) Scaled() bool { return p.scaler != nil }

// Probability is one outcome's share of the prediction.
type Probability struct {
	Outcome     match.Outcome `json:"-"`
	Label       string        `json:"outcome"`
	Probability float64       `json:"probability"`
}

// Result is a served prediction.
type Result struct {
	Input         Input
	Outcome       match.Outcome
	Probabilities map[match.Outcome]float64
	Scaled        bool
	Elapsed       time.Duration
}

// Ordered lists the probabilities in match.Outcomes() order.
func (r Result) Ordered() []Probability {
	out := make([]Probability, 0, len(r.Probabilities))
	for _, o := range match.Outcomes() {
		out = append(out, Probability{Outcome: o, Label: o.String(), Probability: r.Probabilities[o]})
	}
	return out
}

// Predict validates raw and classifies it. Errors are ErrNoModel, a
// *ValidationError, or ErrInference.
func (p *Predictor) Predict(raw RawInput) (Result, error) {
	if p.classifier == nil {
		return Result{}, ErrNoModel
	}
	in, err := ParseInput(raw)
	if err != nil {
		return Result{}, err
	}
	return p.infer(in)
}

func (p *Predictor) infer(in Input) (res Result, err error) {
	start := p.now()
	defer func() {
		if r := recover(); r != nil {
			p.log.Errorw("inference panicked", "panic", r, "input", in, zap.Stack("stack"))
			res, err = Result{}, ErrInference
		}
	}()

	X := [][]float64{in.Features()}
	if p.scaler != nil {
		if X, err = p.scaler.Transform(X); err != nil {
			return p.fail(in, fmt.Errorf("transform: %w", err))
		}
	}
	probas, err := p.classifier.PredictProba(X)
	if err != nil {
		return p.fail(in, err)
	}
	classes := p.classifier.Classes()
	if len(probas) != 1 || len(probas[0]) != len(classes) || len(classes) == 0 {
		return p.fail(in, fmt.Errorf("classifier returned %d rows for %d classes", len(probas), len(classes)))
	}

	res = Result{
		Input:         in,
		Probabilities: make(map[match.Outcome]float64, 3),
		Scaled:        p.scaler != nil,
	}
	for _, o := range match.Outcomes() {
		res.Probabilities[o] = 0
	}
	best := 0
	for c, label := range classes {
		o := match.Outcome(label)
		if !o.Valid() {
			return p.fail(in, fmt.Errorf("classifier knows unexpected class %d", label))
		}
		res.Probabilities[o] = probas[0][c]
		if probas[0][c] > probas[0][best] {
			best = c
		}
	}
	res.Outcome = match.Outcome(classes[best])
	res.Elapsed = p.now().Sub(start)
	return res, nil
}

func (p *Predictor) fail(in Input, err error) (Result, error) {
	p.log.Errorw("inference failed", "input", in, "error", err, zap.Stack("stack"))
	return Result{}, ErrInference
}

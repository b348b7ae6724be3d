package web

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"plpredict/pkg/predict"
)

// Metrics are the predictor's prometheus series.
type Metrics struct {
	gatherer           prometheus.Gatherer
	predictions        *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
	noModel            prometheus.Counter
	inferenceErrors    prometheus.Counter
	latency            prometheus.Histogram
}

// NewMetrics registers the predictor series on reg.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		gatherer: reg,
		predictions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "plpredict_predictions_total",
			Help: "Total number of served predictions by predicted outcome",
		}, []string{"outcome"}),
		validationFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "plpredict_validation_failures_total",
			Help: "Total number of rejected inputs by field",
		}, []string{"field"}),
		noModel: f.NewCounter(prometheus.CounterOpts{
			Name: "plpredict_no_model_rejections_total",
			Help: "Total number of predictions refused because no model is loaded",
		}),
		inferenceErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "plpredict_inference_errors_total",
			Help: "Total number of predictions that failed inside the model",
		}),
		latency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "plpredict_inference_duration_seconds",
			Help:    "Duration of successful inference calls",
			Buckets: []float64{.0001, .0005, .001, .0025, .005, .01, .025, .05, .1},
		}),
	}
}

// Handler exposes the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) observe(res predict.Result, err error) {
	var ve *predict.ValidationError
	switch {
	case err == nil:
		m.predictions.WithLabelValues(res.Outcome.String()).Inc()
		m.latency.Observe(res.Elapsed.Seconds())
	case errors.Is(err, predict.ErrNoModel):
		m.noModel.Inc()
	case errors.As(err, &ve):
		m.validationFailures.WithLabelValues(ve.Field).Inc()
	default:
		m.inferenceErrors.Inc()
	}
}

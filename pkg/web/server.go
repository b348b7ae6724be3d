// Package web serves the prediction form and the JSON API.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"plpredict/pkg/journal"
	"plpredict/pkg/predict"
)

// MaxBodySize limits the size of request bodies to 1MB
const MaxBodySize = 1048576

// Journal records served predictions.
type Journal interface {
	Record(ctx context.Context, e journal.Entry) (journal.Entry, error)
	Recent(ctx context.Context, limit int) ([]journal.Entry, error)
}

type Config struct {
	Predictor      *predict.Predictor
	Journal        Journal // optional
	Logger         *zap.Logger
	Registry       *prometheus.Registry // optional; a private registry is created when nil
	AllowedOrigins []string
}

type Server struct {
	predictor *predict.Predictor
	journal   Journal
	logger    *zap.SugaredLogger
	metrics   *Metrics
	page      *template.Template
	origins   []string
}

func New(cfg Config) (*Server, error) {
	if cfg.Predictor == nil {
		return nil, errors.New("web: nil predictor")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}
	page, err := template.ParseFS(templates, "templates/index.html")
	if err != nil {
		return nil, err
	}
	return &Server{
		predictor: cfg.Predictor,
		journal:   cfg.Journal,
		logger:    cfg.Logger.Sugar(),
		metrics:   NewMetrics(cfg.Registry),
		page:      page,
		origins:   cfg.AllowedOrigins,
	}, nil
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/", s.Index)
	r.Post("/predict", s.PredictForm)
	r.Post("/clear", s.Clear)
	r.Post("/sample", s.LoadSample)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/predict", s.PredictJSON)
		r.Get("/predictions", s.RecentPredictions)
	})

	r.Get("/healthz", s.Health)
	r.Get("/readyz", s.Ready)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Infow("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// predict runs one prediction, updates metrics and journals successes.
// It returns the journal ID when one was recorded.
func (s *Server) predict(r *http.Request, raw predict.RawInput) (predict.Result, string, error) {
	res, err := s.predictor.Predict(raw)
	s.metrics.observe(res, err)
	if err != nil {
		var ve *predict.ValidationError
		if errors.As(err, &ve) {
			s.logger.Infow("input rejected", "field", ve.Field, "reason", ve.Reason)
		}
		return res, "", err
	}
	if s.journal == nil {
		return res, "", nil
	}
	probs := make(map[string]float64, len(res.Probabilities))
	for o, p := range res.Probabilities {
		probs[o.String()] = p
	}
	e, jerr := s.journal.Record(r.Context(), journal.Entry{
		PossessionDifference: res.Input.PossessionDifference,
		ShotDifference:       res.Input.ShotDifference,
		Attendance:           res.Input.Attendance,
		Outcome:              res.Outcome.String(),
		Probabilities:        probs,
		Scaled:               res.Scaled,
		RequestID:            middleware.GetReqID(r.Context()),
	})
	if jerr != nil {
		s.logger.Errorw("failed to journal prediction", "error", jerr)
		return res, "", nil
	}
	return res, e.ID, nil
}

// Health check endpoint
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

// Ready reports 503 until a model is loaded.
func (s *Server) Ready(w http.ResponseWriter, r *http.Request) {
	checks := map[string]bool{
		"model":   s.predictor.Ready(),
		"scaler":  s.predictor.Scaled(),
		"journal": s.journal != nil,
	}
	status := http.StatusOK
	if !checks["model"] {
		status = http.StatusServiceUnavailable
	}
	s.jsonResponse(w, status, map[string]interface{}{
		"ready":  checks["model"],
		"checks": checks,
	})
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warnw("failed to write response", "error", err)
	}
}

func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"plpredict/pkg/predict"
)

const maxRecent = 500

// flexString accepts a JSON number or a JSON string and keeps its text.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	switch {
	case trimmed == "null":
		*f = ""
	case strings.HasPrefix(trimmed, `"`):
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("flex unmarshal: %s is neither a number nor a string", trimmed)
		}
		*f = flexString(n.String())
	}
	return nil
}

type predictRequest struct {
	PossessionDifference flexString `json:"possession_difference"`
	ShotDifference       flexString `json:"shot_difference"`
	Attendance           flexString `json:"attendance"`
}

func (req predictRequest) raw() predict.RawInput {
	return predict.RawInput{
		PossessionDifference: string(req.PossessionDifference),
		ShotDifference:       string(req.ShotDifference),
		Attendance:           string(req.Attendance),
	}
}

type predictResponse struct {
	ID            string                `json:"id,omitempty"`
	Outcome       string                `json:"outcome"`
	Probabilities []predict.Probability `json:"probabilities"`
	Scaled        bool                  `json:"scaled"`
	Input         predict.Input         `json:"input"`
}

// PredictJSON is the API form of PredictForm.
func (s *Server) PredictJSON(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	res, id, err := s.predict(r, req.raw())
	var ve *predict.ValidationError
	switch {
	case err == nil:
		s.jsonResponse(w, http.StatusOK, predictResponse{
			ID:            id,
			Outcome:       res.Outcome.String(),
			Probabilities: res.Ordered(),
			Scaled:        res.Scaled,
			Input:         res.Input,
		})
	case errors.Is(err, predict.ErrNoModel):
		s.errorResponse(w, http.StatusServiceUnavailable, predict.NoModelMessage)
	case errors.As(err, &ve):
		s.jsonResponse(w, http.StatusUnprocessableEntity, map[string]string{
			"error":  "validation failed",
			"field":  ve.Field,
			"reason": ve.Reason,
		})
	default:
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
	}
}

// RecentPredictions lists journaled predictions, newest first.
func (s *Server) RecentPredictions(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		s.errorResponse(w, http.StatusNotFound, "Prediction journal is disabled")
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.errorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxRecent)
	}
	entries, err := s.journal.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Errorw("failed to read prediction journal", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "Failed to read prediction journal")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"predictions": entries,
		"count":       len(entries),
	})
}

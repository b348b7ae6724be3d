package web

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"plpredict/pkg/match"
	"plpredict/pkg/predict"
)

//go:embed templates/index.html
var templates embed.FS

const (
	idleMessage = "Enter match statistics and click 'Predict Outcome'"
	maxBarWidth = 200
	errorColor  = "#c0392b"
)

var outcomeColors = map[match.Outcome]template.CSS{
	match.HomeWin: "#27ae60",
	match.AwayWin: "#e74c3c",
	match.Draw:    "#f39c12",
}

type pageView struct {
	Form     predict.RawInput
	Message  string
	Detail   string
	Color    template.CSS
	Result   *resultView
	Ready    bool
	Unscaled bool
}

type resultView struct {
	Label string
	Color template.CSS
	Bars  []barView
}

type barView struct {
	Label   string
	Percent string
	Width   int
	Color   template.CSS
}

// barWidth scales p to pixels, at least 1 and at most maxBarWidth.
func barWidth(p float64) int {
	return min(max(1, int(p*maxBarWidth)), maxBarWidth)
}

func newResultView(res predict.Result) *resultView {
	v := &resultView{Label: res.Outcome.String(), Color: outcomeColors[res.Outcome]}
	for _, p := range res.Ordered() {
		v.Bars = append(v.Bars, barView{
			Label:   p.Label,
			Percent: fmt.Sprintf("%.1f%%", p.Probability*100),
			Width:   barWidth(p.Probability),
			Color:   outcomeColors[p.Outcome],
		})
	}
	return v
}

func (s *Server) view(form predict.RawInput) pageView {
	return pageView{
		Form:     form,
		Message:  idleMessage,
		Ready:    s.predictor.Ready(),
		Unscaled: s.predictor.Ready() && !s.predictor.Scaled(),
	}
}

func (s *Server) render(w http.ResponseWriter, v pageView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.Execute(w, v); err != nil {
		s.logger.Errorw("failed to render page", "error", err)
	}
}

// Index shows an empty form.
func (s *Server) Index(w http.ResponseWriter, r *http.Request) {
	s.render(w, s.view(predict.RawInput{}))
}

// Clear empties the fields and resets the result area.
func (s *Server) Clear(w http.ResponseWriter, r *http.Request) {
	s.render(w, s.view(predict.RawInput{}))
}

// LoadSample fills the fields with the example match.
func (s *Server) LoadSample(w http.ResponseWriter, r *http.Request) {
	s.render(w, s.view(predict.SampleInput()))
}

// PredictForm classifies the submitted fields and renders the result next
// to the same values.
func (s *Server) PredictForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	form := predict.RawInput{
		PossessionDifference: r.PostForm.Get(match.ColPossessionDifference),
		ShotDifference:       r.PostForm.Get(match.ColShotDifference),
		Attendance:           r.PostForm.Get(match.ColAttendance),
	}
	v := s.view(form)

	res, _, err := s.predict(r, form)
	var ve *predict.ValidationError
	switch {
	case err == nil:
		v.Message = "Predicted Outcome: " + res.Outcome.String()
		v.Color = outcomeColors[res.Outcome]
		v.Result = newResultView(res)
	case errors.Is(err, predict.ErrNoModel):
		v.Message, v.Color = predict.NoModelMessage, errorColor
	case errors.As(err, &ve):
		v.Message, v.Color = "Please enter valid inputs", errorColor
		v.Detail = ve.Error()
	default:
		v.Message, v.Color = "Error: "+err.Error(), errorColor
	}
	s.render(w, v)
}

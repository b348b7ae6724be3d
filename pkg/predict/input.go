package predict

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"plpredict/pkg/match"
)

// RawInput is the three fields exactly as the user typed them.
type RawInput struct {
	PossessionDifference string `json:"possession_difference"`
	ShotDifference       string `json:"shot_difference"`
	Attendance           string `json:"attendance"`
}

// SampleInput is the example match offered by the front-end.
func SampleInput() RawInput {
	return RawInput{PossessionDifference: "15.5", ShotDifference: "8", Attendance: "45000"}
}

// Input is a parsed and validated feature vector.
type Input struct {
	PossessionDifference float64 `json:"possession_difference" validate:"gte=-100,lte=100"`
	ShotDifference       float64 `json:"shot_difference"`
	Attendance           int     `json:"attendance" validate:"gte=0"`
}

// Features returns the input in training column order.
func (in Input) Features() []float64 {
	return match.FeatureRow{
		PossessionDifference: in.PossessionDifference,
		ShotDifference:       in.ShotDifference,
		Attendance:           in.Attendance,
	}.Features()
}

// ValidationError reports a rejected input field with a user-facing reason.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ParseInput parses and range-checks raw. Any failure is a
// *ValidationError naming the first offending field.
func ParseInput(raw RawInput) (Input, error) {
	var in Input
	var err error
	if in.PossessionDifference, err = parseNumber(match.ColPossessionDifference, raw.PossessionDifference); err != nil {
		return Input{}, err
	}
	if in.ShotDifference, err = parseNumber(match.ColShotDifference, raw.ShotDifference); err != nil {
		return Input{}, err
	}
	if in.Attendance, err = parseCount(match.ColAttendance, raw.Attendance); err != nil {
		return Input{}, err
	}
	if err := validate.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return Input{}, rangeError(fieldErrs[0])
		}
		return Input{}, err
	}
	return in, nil
}

func parseNumber(field, s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, &ValidationError{Field: field, Reason: "is required"}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &ValidationError{Field: field, Reason: "must be a number"}
	}
	return v, nil
}

func parseCount(field, s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, &ValidationError{Field: field, Reason: "is required"}
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, &ValidationError{Field: field, Reason: "is out of range"}
		}
		if _, ferr := strconv.ParseFloat(s, 64); ferr == nil {
			return 0, &ValidationError{Field: field, Reason: "must be a whole number"}
		}
		return 0, &ValidationError{Field: field, Reason: "must be a number"}
	}
	return v, nil
}

func rangeError(fe validator.FieldError) *ValidationError {
	switch fe.Field() {
	case match.ColPossessionDifference:
		return &ValidationError{Field: fe.Field(), Reason: "must be between -100 and 100"}
	case match.ColAttendance:
		return &ValidationError{Field: fe.Field(), Reason: "cannot be negative"}
	}
	return &ValidationError{Field: fe.Field(), Reason: fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param())}
}

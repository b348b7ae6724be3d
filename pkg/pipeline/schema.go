package pipeline

import (
	"fmt"

	"plpredict/pkg/match"
)

// Schema describes the feature columns a pipeline was trained on.
type Schema struct {
	FeatureNames []string
	Types        []string // "float" or "int"
}

// MatchSchema is the three-column match feature layout.
func MatchSchema() Schema {
	return Schema{
		FeatureNames: append([]string(nil), match.FeatureColumns...),
		Types:        []string{"float", "float", "int"},
	}
}

// Check reports an error when a component expects a different width.
func (s Schema) Check(component string, nFeatures int) error {
	if len(s.FeatureNames) == 0 {
		return nil
	}
	if nFeatures != len(s.FeatureNames) {
		return fmt.Errorf("pipeline: %s expects %d features, schema has %d (%v)",
			component, nFeatures, len(s.FeatureNames), s.FeatureNames)
	}
	return nil
}

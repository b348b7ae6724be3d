package model

// Classifier is a fitted multi-class classifier over integer labels.
type Classifier interface {
	Fit(X [][]float64, y []int) error
	Predict(X [][]float64) ([]int, error)
	// PredictProba returns one row per sample with columns in Classes() order.
	PredictProba(X [][]float64) ([][]float64, error)
	Classes() []int
}

// Transformer is for preprocessing steps (fit on train, transform both).
type Transformer interface {
	Fit(X [][]float64) error
	Transform(X [][]float64) ([][]float64, error)
	FitTransform(X [][]float64) ([][]float64, error)
}

package deployable

import (
	"fmt"

	"github.com/mlopslite/mlopslite/pkg/frame"
)

type EstimatorType string

const (
	EstimatorClassifier EstimatorType = "classifier"
	EstimatorRegressor  EstimatorType = "regressor"
	EstimatorUnknown    EstimatorType = "unknown"
)

// Pipeline is a trained prediction pipeline. Predict receives a frame holding
// exactly the columns named by FeatureNames.
type Pipeline interface {
	Predict(data *frame.Frame) ([]any, error)
	FeatureNames() []string
}

// ProbabilityPredictor returns one probability vector per row, aligned with Classes.
type ProbabilityPredictor interface {
	PredictProba(data *frame.Frame) ([][]float64, error)
}

type ClassLabeler interface {
	Classes() []string
}

// Typed pipelines declare their estimator kind.
type Typed interface {
	EstimatorType() EstimatorType
}

// Stepped pipelines expose their final estimator, which names the estimator class.
type Stepped interface {
	FinalStep() any
}

// Codec turns pipelines into opaque bytes and back. Equal pipelines must
// marshal to equal bytes for deduplication to work.
type Codec interface {
	Marshal(pipeline Pipeline) ([]byte, error)
	Unmarshal(artifact []byte) (Pipeline, error)
}

// EstimatorTypeOf inspects the capabilities of a pipeline.
func EstimatorTypeOf(pipeline Pipeline) EstimatorType {
	typed, ok := pipeline.(Typed)
	if !ok {
		return EstimatorUnknown
	}

	switch kind := typed.EstimatorType(); kind {
	case EstimatorClassifier, EstimatorRegressor:
		return kind
	default:
		return EstimatorUnknown
	}
}

// EstimatorClassOf names the Go type of the pipeline's final estimator.
func EstimatorClassOf(pipeline Pipeline) string {
	if stepped, ok := pipeline.(Stepped); ok && stepped.FinalStep() != nil {
		return fmt.Sprintf("%T", stepped.FinalStep())
	}

	return fmt.Sprintf("%T", pipeline)
}

package estimator

import (
	"errors"
	"fmt"
	"math"

	"github.com/mlopslite/mlopslite/pkg/deployable"
)

const (
	KindStandardScaler     = "standard_scaler"
	KindLinearRegression   = "linear_regression"
	KindLogisticRegression = "logistic_regression"
)

var errDimension = errors.New("dimension mismatch")

// Step is one stage of a pipeline.
type Step interface {
	Kind() string
	Params() map[string]any
	validate(inputs int) error
}

// Transformer rewrites the feature matrix before the final estimator sees it.
type Transformer interface {
	Step
	Transform(x [][]float64) ([][]float64, error)
}

// Estimator is the final stage of a pipeline.
type Estimator interface {
	Step
	EstimatorType() deployable.EstimatorType
	PredictMatrix(x [][]float64) ([]any, error)
}

// Classifier estimators additionally return class probabilities.
type Classifier interface {
	Estimator
	Classes() []string
	ProbaMatrix(x [][]float64) ([][]float64, error)
}

type StandardScaler struct {
	Mean  []float64
	Scale []float64
}

func (s *StandardScaler) Kind() string {
	return KindStandardScaler
}

func (s *StandardScaler) Params() map[string]any {
	return map[string]any{
		"mean":  floatList(s.Mean),
		"scale": floatList(s.Scale),
	}
}

func (s *StandardScaler) validate(inputs int) error {
	if len(s.Mean) != inputs || len(s.Scale) != inputs {
		return fmt.Errorf("%s: expected %d means and scales: %w", s.Kind(), inputs, errDimension)
	}

	for i, scale := range s.Scale {
		if scale == 0 {
			return fmt.Errorf("%s: scale %d is zero", s.Kind(), i)
		}
	}

	return nil
}

func (s *StandardScaler) Transform(x [][]float64) ([][]float64, error) {
	out := make([][]float64, len(x))

	for i, row := range x {
		if len(row) != len(s.Mean) {
			return nil, errDimension
		}

		out[i] = make([]float64, len(row))
		for j, value := range row {
			out[i][j] = (value - s.Mean[j]) / s.Scale[j]
		}
	}

	return out, nil
}

type LinearRegression struct {
	Coef      []float64
	Intercept float64
}

func (l *LinearRegression) Kind() string {
	return KindLinearRegression
}

func (l *LinearRegression) Params() map[string]any {
	return map[string]any{
		"coef":      floatList(l.Coef),
		"intercept": l.Intercept,
	}
}

func (l *LinearRegression) validate(inputs int) error {
	if len(l.Coef) != inputs {
		return fmt.Errorf("%s: expected %d coefficients: %w", l.Kind(), inputs, errDimension)
	}

	return nil
}

func (l *LinearRegression) EstimatorType() deployable.EstimatorType {
	return deployable.EstimatorRegressor
}

func (l *LinearRegression) PredictMatrix(x [][]float64) ([]any, error) {
	out := make([]any, len(x))

	for i, row := range x {
		if len(row) != len(l.Coef) {
			return nil, errDimension
		}

		out[i] = dot(l.Coef, row) + l.Intercept
	}

	return out, nil
}

// LogisticRegression is binary when it has a single coefficient row and two
// labels, multinomial (softmax) when it has one row per label.
type LogisticRegression struct {
	Labels    []string
	Coef      [][]float64
	Intercept []float64
}

func (l *LogisticRegression) Kind() string {
	return KindLogisticRegression
}

func (l *LogisticRegression) Params() map[string]any {
	coef := make([]any, len(l.Coef))
	for i, row := range l.Coef {
		coef[i] = floatList(row)
	}

	labels := make([]any, len(l.Labels))
	for i, label := range l.Labels {
		labels[i] = label
	}

	return map[string]any{
		"classes":   labels,
		"coef":      coef,
		"intercept": floatList(l.Intercept),
	}
}

func (l *LogisticRegression) validate(inputs int) error {
	switch {
	case len(l.Labels) < 2:
		return fmt.Errorf("%s: at least two classes are required", l.Kind())
	case len(l.Labels) == 2 && len(l.Coef) == 1:
	case len(l.Coef) == len(l.Labels):
	default:
		return fmt.Errorf("%s: %d coefficient rows for %d classes: %w", l.Kind(), len(l.Coef), len(l.Labels), errDimension)
	}

	if len(l.Intercept) != len(l.Coef) {
		return fmt.Errorf("%s: expected %d intercepts: %w", l.Kind(), len(l.Coef), errDimension)
	}

	for _, row := range l.Coef {
		if len(row) != inputs {
			return fmt.Errorf("%s: expected %d coefficients per class: %w", l.Kind(), inputs, errDimension)
		}
	}

	return nil
}

func (l *LogisticRegression) EstimatorType() deployable.EstimatorType {
	return deployable.EstimatorClassifier
}

func (l *LogisticRegression) Classes() []string {
	return l.Labels
}

func (l *LogisticRegression) ProbaMatrix(x [][]float64) ([][]float64, error) {
	out := make([][]float64, len(x))

	for i, row := range x {
		if len(row) != len(l.Coef[0]) {
			return nil, errDimension
		}

		if len(l.Coef) == 1 {
			p := 1 / (1 + math.Exp(-(dot(l.Coef[0], row) + l.Intercept[0])))
			out[i] = []float64{1 - p, p}

			continue
		}

		scores := make([]float64, len(l.Coef))
		highest := math.Inf(-1)

		for k, coef := range l.Coef {
			scores[k] = dot(coef, row) + l.Intercept[k]
			highest = math.Max(highest, scores[k])
		}

		var total float64
		for k := range scores {
			scores[k] = math.Exp(scores[k] - highest)
			total += scores[k]
		}

		for k := range scores {
			scores[k] /= total
		}

		out[i] = scores
	}

	return out, nil
}

func (l *LogisticRegression) PredictMatrix(x [][]float64) ([]any, error) {
	proba, err := l.ProbaMatrix(x)
	if err != nil {
		return nil, err
	}

	out := make([]any, len(proba))

	for i, row := range proba {
		best := 0
		for k, p := range row {
			if p > row[best] {
				best = k
			}
		}

		out[i] = l.Labels[best]
	}

	return out, nil
}

func floatList(values []float64) []any {
	out := make([]any, len(values))
	for i, value := range values {
		out[i] = value
	}

	return out
}

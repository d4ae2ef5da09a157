package estimator

import (
	"fmt"

	"github.com/mlopslite/mlopslite/pkg/deployable"
	"github.com/mlopslite/mlopslite/pkg/frame"
)

// Pipeline chains transformers into a final estimator over named input columns.
type Pipeline struct {
	Features     []string
	Transformers []Transformer
	Final        Estimator
}

var _ deployable.Pipeline = (*Pipeline)(nil)

// NewPipeline checks that every step agrees on the number of inputs.
func NewPipeline(features []string, final Estimator, transformers ...Transformer) (*Pipeline, error) {
	if len(features) == 0 {
		return nil, fmt.Errorf("pipeline needs at least one input column")
	}

	seen := make(map[string]struct{}, len(features))
	for _, feature := range features {
		if _, ok := seen[feature]; ok {
			return nil, fmt.Errorf("duplicate input column %q", feature)
		}

		seen[feature] = struct{}{}
	}

	if final == nil {
		return nil, fmt.Errorf("pipeline needs a final estimator")
	}

	if len(transformers) == 0 {
		transformers = nil
	}

	for _, transformer := range transformers {
		if err := transformer.validate(len(features)); err != nil {
			return nil, err
		}
	}

	if err := final.validate(len(features)); err != nil {
		return nil, err
	}

	return &Pipeline{Features: features, Transformers: transformers, Final: final}, nil
}

func (p *Pipeline) FeatureNames() []string {
	return p.Features
}

func (p *Pipeline) EstimatorType() deployable.EstimatorType {
	return p.Final.EstimatorType()
}

func (p *Pipeline) FinalStep() any {
	return p.Final
}

// Classes is empty unless the final estimator is a classifier.
func (p *Pipeline) Classes() []string {
	if classifier, ok := p.Final.(Classifier); ok {
		return classifier.Classes()
	}

	return nil
}

func (p *Pipeline) Predict(data *frame.Frame) ([]any, error) {
	x, err := p.transform(data)
	if err != nil {
		return nil, err
	}

	return p.Final.PredictMatrix(x)
}

func (p *Pipeline) PredictProba(data *frame.Frame) ([][]float64, error) {
	classifier, ok := p.Final.(Classifier)
	if !ok {
		return nil, fmt.Errorf("%s does not predict probabilities", p.Final.Kind())
	}

	x, err := p.transform(data)
	if err != nil {
		return nil, err
	}

	return classifier.ProbaMatrix(x)
}

func (p *Pipeline) transform(data *frame.Frame) ([][]float64, error) {
	x, err := toMatrix(data, p.Features)
	if err != nil {
		return nil, err
	}

	for _, transformer := range p.Transformers {
		if x, err = transformer.Transform(x); err != nil {
			return nil, fmt.Errorf("%s: %w", transformer.Kind(), err)
		}
	}

	return x, nil
}

package estimator

import (
	"fmt"

	"github.com/mlopslite/mlopslite/pkg/frame"
)

// Spec renders the pipeline as plain maps and lists:
//
//	{"features": [...], "steps": [{"kind": "...", "params": {...}}, ...]}
//
// The final estimator is the last step.
func (p *Pipeline) Spec() map[string]any {
	features := make([]any, len(p.Features))
	for i, feature := range p.Features {
		features[i] = feature
	}

	steps := make([]any, 0, len(p.Transformers)+1)
	for _, transformer := range p.Transformers {
		steps = append(steps, map[string]any{"kind": transformer.Kind(), "params": transformer.Params()})
	}

	steps = append(steps, map[string]any{"kind": p.Final.Kind(), "params": p.Final.Params()})

	return map[string]any{
		"features": features,
		"steps":    steps,
	}
}

// FromSpec builds a pipeline from the form produced by Spec. Numbers may be
// any Go numeric type or json.Number.
func FromSpec(spec map[string]any) (*Pipeline, error) {
	features, err := stringList(spec["features"], "features")
	if err != nil {
		return nil, err
	}

	rawSteps, ok := spec["steps"].([]any)
	if !ok || len(rawSteps) == 0 {
		return nil, fmt.Errorf("pipeline spec needs a non-empty steps list")
	}

	transformers := make([]Transformer, 0, len(rawSteps)-1)

	var final Estimator

	for i, rawStep := range rawSteps {
		step, err := stepFromSpec(rawStep)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}

		last := i == len(rawSteps)-1

		switch s := step.(type) {
		case Estimator:
			if !last {
				return nil, fmt.Errorf("step %d: estimator %s must be the last step", i, s.Kind())
			}

			final = s
		case Transformer:
			if last {
				return nil, fmt.Errorf("step %d: last step %s is not an estimator", i, s.Kind())
			}

			transformers = append(transformers, s)
		}
	}

	return NewPipeline(features, final, transformers...)
}

func stepFromSpec(raw any) (Step, error) {
	spec, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected an object, got %T", raw)
	}

	kind, _ := spec["kind"].(string)

	params, ok := spec["params"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: missing params", kind)
	}

	switch kind {
	case KindStandardScaler:
		mean, err := floatSlice(params["mean"], "mean")
		if err != nil {
			return nil, err
		}

		scale, err := floatSlice(params["scale"], "scale")
		if err != nil {
			return nil, err
		}

		return &StandardScaler{Mean: mean, Scale: scale}, nil
	case KindLinearRegression:
		coef, err := floatSlice(params["coef"], "coef")
		if err != nil {
			return nil, err
		}

		intercept, err := frame.AsFloat64(params["intercept"])
		if err != nil {
			return nil, fmt.Errorf("intercept: %w", err)
		}

		return &LinearRegression{Coef: coef, Intercept: intercept}, nil
	case KindLogisticRegression:
		labels, err := stringList(params["classes"], "classes")
		if err != nil {
			return nil, err
		}

		rows, ok := params["coef"].([]any)
		if !ok {
			return nil, fmt.Errorf("coef: expected a list of lists")
		}

		coef := make([][]float64, len(rows))
		for i, row := range rows {
			if coef[i], err = floatSlice(row, fmt.Sprintf("coef[%d]", i)); err != nil {
				return nil, err
			}
		}

		intercept, err := floatSlice(params["intercept"], "intercept")
		if err != nil {
			return nil, err
		}

		return &LogisticRegression{Labels: labels, Coef: coef, Intercept: intercept}, nil
	default:
		return nil, fmt.Errorf("unknown step kind %q", kind)
	}
}

func floatSlice(raw any, field string) ([]float64, error) {
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected a list of numbers", field)
	}

	out := make([]float64, len(list))

	for i, value := range list {
		number, err := frame.AsFloat64(value)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", field, i, err)
		}

		out[i] = number
	}

	return out, nil
}

func stringList(raw any, field string) ([]string, error) {
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected a list of strings", field)
	}

	out := make([]string, len(list))

	for i, value := range list {
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%s[%d]: expected a string, got %T", field, i, value)
		}

		out[i] = s
	}

	return out, nil
}

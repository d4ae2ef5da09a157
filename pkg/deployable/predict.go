package deployable

import (
	"github.com/mlopslite/mlopslite/pkg/contract"
	"github.com/mlopslite/mlopslite/pkg/frame"
)

// Result is the prediction for one input record. Classifiers produce a map of
// class label to probability, other pipelines a scalar.
type Result struct {
	ReferenceID string `json:"reference_id"`
	Results     any    `json:"results"`
}

// Predict validates records, runs the pipeline once over the whole batch and
// returns one result per record in input order. A single invalid record fails
// the batch.
func (d *Deployable) Predict(records []Record) ([]Result, error) {
	if err := d.schema.Check(records); err != nil {
		return nil, err
	}

	data, err := d.schema.Frame(records, d.Pipeline.FeatureNames())
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(records))
	for i, record := range records {
		results[i].ReferenceID, _ = record.ReferenceID()
	}

	if d.Metadata.EstimatorType == EstimatorClassifier {
		return d.classify(data, results)
	}

	predictions, err := d.Pipeline.Predict(data)
	if err != nil {
		return nil, contract.NewErrorWith(contract.ErrorCodeInternalError, "pipeline prediction failed", err)
	}

	if len(predictions) != len(results) {
		return nil, contract.Errorf(
			contract.ErrorCodeInvalidArtifact,
			"pipeline returned %d predictions for %d rows", len(predictions), len(results),
		)
	}

	for i, prediction := range predictions {
		results[i].Results = prediction
	}

	return results, nil
}

func (d *Deployable) classify(data *frame.Frame, results []Result) ([]Result, error) {
	predictor, ok := d.Pipeline.(ProbabilityPredictor)
	if !ok {
		return nil, contract.NewError(contract.ErrorCodeInvalidArtifact, "classifier does not implement PredictProba")
	}

	labeler, ok := d.Pipeline.(ClassLabeler)
	if !ok {
		return nil, contract.NewError(contract.ErrorCodeInvalidArtifact, "classifier does not implement Classes")
	}

	classes := labeler.Classes()

	probabilities, err := predictor.PredictProba(data)
	if err != nil {
		return nil, contract.NewErrorWith(contract.ErrorCodeInternalError, "pipeline prediction failed", err)
	}

	if len(probabilities) != len(results) {
		return nil, contract.Errorf(
			contract.ErrorCodeInvalidArtifact,
			"pipeline returned %d probability rows for %d rows", len(probabilities), len(results),
		)
	}

	for i, row := range probabilities {
		if len(row) != len(classes) {
			return nil, contract.Errorf(
				contract.ErrorCodeInvalidArtifact,
				"pipeline returned %d probabilities for %d classes", len(row), len(classes),
			)
		}

		byClass := make(map[string]float64, len(classes))
		for j, label := range classes {
			byClass[label] = row[j]
		}

		results[i].Results = byClass
	}

	return results, nil
}

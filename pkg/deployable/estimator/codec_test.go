package estimator_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mlopslite/mlopslite/pkg/deployable/estimator"
)

func classifierPipeline(t *testing.T) *estimator.Pipeline {
	t.Helper()

	pipeline, err := estimator.NewPipeline(
		[]string{"a", "b"},
		&estimator.LogisticRegression{Labels: []string{"no", "yes"}, Coef: [][]float64{{0.3, -1.25}}, Intercept: []float64{0.75}},
		&estimator.StandardScaler{Mean: []float64{0.5, 2}, Scale: []float64{1.5, 3}},
	)
	require.NoError(t, err)

	return pipeline
}

func TestCodecRoundTrip(t *testing.T) {
	t.Parallel()

	codec := estimator.Codec{}
	pipeline := classifierPipeline(t)

	artifact, err := codec.Marshal(pipeline)
	require.NoError(t, err)

	restored, err := codec.Unmarshal(artifact)
	require.NoError(t, err)
	require.Equal(t, pipeline, restored)

	again, err := codec.Marshal(restored)
	require.NoError(t, err)
	require.Equal(t, artifact, again)
}

func TestCodecIsDeterministic(t *testing.T) {
	t.Parallel()

	codec := estimator.Codec{}

	first, err := codec.Marshal(classifierPipeline(t))
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		next, err := codec.Marshal(classifierPipeline(t))
		require.NoError(t, err)
		require.Equal(t, first, next)
	}
}

func TestCodecRejectsForeignInput(t *testing.T) {
	t.Parallel()

	codec := estimator.Codec{}

	_, err := codec.Marshal(nil)
	require.Error(t, err)

	_, err = codec.Unmarshal([]byte("not a protobuf message"))
	require.Error(t, err)
}

func TestFromSpecJSON(t *testing.T) {
	t.Parallel()

	raw := `{
		"features": ["a", "b"],
		"steps": [
			{"kind": "standard_scaler", "params": {"mean": [0.5, 2], "scale": [1.5, 3]}},
			{"kind": "logistic_regression", "params": {"classes": ["no", "yes"], "coef": [[0.3, -1.25]], "intercept": [0.75]}}
		]
	}`

	var spec map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &spec))

	pipeline, err := estimator.FromSpec(spec)
	require.NoError(t, err)
	require.Equal(t, classifierPipeline(t), pipeline)
	require.Equal(t, spec, pipeline.Spec())
}

func TestFromSpecErrors(t *testing.T) {
	t.Parallel()

	scenarios := []struct {
		name string
		spec map[string]any
	}{
		{name: "no steps", spec: map[string]any{"features": []any{"a"}}},
		{name: "features not strings", spec: map[string]any{"features": []any{1.0}, "steps": []any{}}},
		{
			name: "unknown kind",
			spec: map[string]any{"features": []any{"a"}, "steps": []any{
				map[string]any{"kind": "random_forest", "params": map[string]any{}},
			}},
		},
		{
			name: "estimator not last",
			spec: map[string]any{"features": []any{"a"}, "steps": []any{
				map[string]any{"kind": "linear_regression", "params": map[string]any{"coef": []any{1.0}, "intercept": 0.0}},
				map[string]any{"kind": "standard_scaler", "params": map[string]any{"mean": []any{0.0}, "scale": []any{1.0}}},
			}},
		},
		{
			name: "transformer last",
			spec: map[string]any{"features": []any{"a"}, "steps": []any{
				map[string]any{"kind": "standard_scaler", "params": map[string]any{"mean": []any{0.0}, "scale": []any{1.0}}},
			}},
		},
	}

	for _, scenario := range scenarios {
		scenario := scenario
		t.Run(scenario.name, func(t *testing.T) {
			t.Parallel()

			_, err := estimator.FromSpec(scenario.spec)
			require.Error(t, err)
		})
	}
}

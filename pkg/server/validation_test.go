package server_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mlopslite/mlopslite/pkg/server"
)

type validationScenario struct {
	name          string
	input         any
	shouldTrigger bool
}

func runScenarios(t *testing.T, scenarios []validationScenario) {
	t.Helper()

	validator, err := server.NewValidator()
	require.NoError(t, err)

	for _, scenario := range scenarios {
		scenario := scenario
		t.Run(scenario.name, func(t *testing.T) {
			errs := validator.Struct(scenario.input)

			if scenario.shouldTrigger {
				require.Error(t, errs)
			} else {
				require.NoError(t, errs)
			}
		})
	}
}

type artifactName struct {
	Value string `validate:"artifactName"`
}

func TestArtifactName(t *testing.T) {
	t.Parallel()

	runScenarios(t, []validationScenario{
		{name: "simple", input: artifactName{Value: "iris"}},
		{name: "with separators", input: artifactName{Value: "iris_v2.clean-set"}},
		{name: "empty", input: artifactName{Value: ""}, shouldTrigger: true},
		{name: "leading dot", input: artifactName{Value: ".hidden"}, shouldTrigger: true},
		{name: "slash", input: artifactName{Value: "a/b"}, shouldTrigger: true},
	})
}

type dtype struct {
	Value string `validate:"dtype"`
}

func TestDType(t *testing.T) {
	t.Parallel()

	runScenarios(t, []validationScenario{
		{name: "int64", input: dtype{Value: "int64"}},
		{name: "datetime", input: dtype{Value: "datetime64[ns]"}},
		{name: "object", input: dtype{Value: "object"}},
		{name: "complex", input: dtype{Value: "complex128"}, shouldTrigger: true},
		{name: "primitive name", input: dtype{Value: "str"}, shouldTrigger: true},
	})
}

type positiveInteger struct {
	Value string `validate:"stringAsPositiveInteger"`
}

func TestStringAsPositiveInteger(t *testing.T) {
	t.Parallel()

	runScenarios(t, []validationScenario{
		{name: "positive integer", input: positiveInteger{Value: "1"}},
		{name: "zero", input: positiveInteger{Value: "0"}, shouldTrigger: true},
		{name: "negative integer", input: positiveInteger{Value: "-1"}, shouldTrigger: true},
		{name: "alphabet", input: positiveInteger{Value: "a"}, shouldTrigger: true},
	})
}

package parser_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mlopslite/mlopslite/pkg/query"
	"github.com/mlopslite/mlopslite/pkg/query/parser"
)

func TestValidFilters(t *testing.T) {
	t.Parallel()

	scenarios := []struct {
		entity parser.Entity
		input  string
	}{
		{parser.DatasetEntity, "name = 'iris'"},
		{parser.DatasetEntity, "name = 'iris' AND version >= 2"},
		{parser.DatasetEntity, "columns.petal_width = 'float'"},
		{parser.DatasetEntity, "attributes.description LIKE '%flowers%'"},
		{parser.DatasetEntity, "name IN ('a', 'b') AND size_cols < 10"},
		{parser.DeployableEntity, "estimator_type = 'classifier'"},
		{parser.DeployableEntity, "dataset.name = 'iris' AND dataset.version = 1"},
		{parser.DeployableEntity, "target != 'species' AND dataset_id IN (1, 2)"},
	}

	for _, scenario := range scenarios {
		scenario := scenario
		t.Run(scenario.input, func(t *testing.T) {
			t.Parallel()

			_, err := query.ParseFilter(scenario.entity, scenario.input)
			require.NoError(t, err)
		})
	}
}

func TestInvalidFilters(t *testing.T) {
	t.Parallel()

	scenarios := []struct {
		entity parser.Entity
		input  string
	}{
		{parser.DatasetEntity, "unknown = 'x'"},
		{parser.DatasetEntity, "name = 3"},
		{parser.DatasetEntity, "version = '3'"},
		{parser.DatasetEntity, "version LIKE '3%'"},
		{parser.DatasetEntity, "name > 'a'"},
		{parser.DatasetEntity, "columns.a = 'decimal'"},
		{parser.DatasetEntity, "columns.a LIKE 'in%'"},
		{parser.DatasetEntity, "dataset.name = 'iris'"},
		{parser.DeployableEntity, "columns.a = 'int'"},
		{parser.DeployableEntity, "dataset.size_rows = 3"},
		{parser.DeployableEntity, "metrics.accuracy > 0.9"},
	}

	for _, scenario := range scenarios {
		scenario := scenario
		t.Run(scenario.input, func(t *testing.T) {
			t.Parallel()

			_, err := query.ParseFilter(scenario.entity, scenario.input)
			require.Error(t, err)
		})
	}
}

func TestValidatedValues(t *testing.T) {
	t.Parallel()

	expressions, err := query.ParseFilter(parser.DeployableEntity, "dataset.hash IN ('x', 'y') AND version = 2")
	require.NoError(t, err)
	require.Equal(t, []*parser.ValidCompareExpr{
		{Identifier: parser.BoundDataset, Key: "hash", Operator: parser.In, Value: []interface{}{"x", "y"}},
		{Identifier: parser.Attribute, Key: "version", Operator: parser.Equals, Value: 2.0},
	}, expressions)

	empty, err := query.ParseFilter(parser.DatasetEntity, "  ")
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestFilterErrorStage(t *testing.T) {
	t.Parallel()

	scenarios := []struct {
		input string
		stage query.Stage
	}{
		{"name = #", query.StageLex},
		{"name = 'iris' AND", query.StageParse},
		{"owner = 'me'", query.StageValidate},
	}

	for _, scenario := range scenarios {
		scenario := scenario
		t.Run(scenario.input, func(t *testing.T) {
			t.Parallel()

			_, err := query.ParseFilter(parser.DatasetEntity, scenario.input)

			var filterErr *query.FilterError
			require.ErrorAs(t, err, &filterErr)
			require.Equal(t, scenario.stage, filterErr.Stage)
		})
	}
}

package sql_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mlopslite/mlopslite/pkg/contract"
	"github.com/mlopslite/mlopslite/pkg/dataset"
	"github.com/mlopslite/mlopslite/pkg/frame"
)

func datasetNames(items []dataset.Metadata) []string {
	names := make([]string, len(items))
	for i, item := range items {
		names[i] = item.Name
	}

	return names
}

func TestSearchDatasets(t *testing.T) {
	t.Parallel()

	registry := newStore(t)
	ctx := context.Background()

	insertDataset(t, registry, newDataset(t, "Iris", 0))
	insertDataset(t, registry, newDataset(t, "iris", 1))
	insertDataset(t, registry, newDataset(t, "wine", 2))

	flags, err := frame.New(frame.Column{Name: "x", DType: frame.Bool, Values: []any{true, false}})
	require.NoError(t, err)

	booleans, err := dataset.New(flags, "flags", "")
	require.NoError(t, err)
	insertDataset(t, registry, booleans)

	scenarios := []struct {
		name     string
		filter   string
		expected []string
	}{
		{name: "no filter", filter: "", expected: []string{"Iris", "iris", "wine", "flags"}},
		{name: "equal name", filter: "name = 'wine'", expected: []string{"wine"}},
		{name: "like is case sensitive", filter: "name LIKE 'i%'", expected: []string{"iris"}},
		{name: "ilike ignores case", filter: "name ILIKE 'IRIS'", expected: []string{"Iris", "iris"}},
		{name: "numeric attribute", filter: "size_cols < 3", expected: []string{"flags"}},
		{name: "in list", filter: "name IN ('wine', 'flags')", expected: []string{"wine", "flags"}},
		{name: "column type", filter: "columns.x = 'bool'", expected: []string{"flags"}},
		{name: "column type negated", filter: "columns.x != 'bool'", expected: []string{"Iris", "iris", "wine"}},
		{name: "missing column", filter: "columns.y = 'int'", expected: []string{}},
		{name: "conjunction", filter: "columns.count = 'int' AND name = 'wine'", expected: []string{"wine"}},
	}

	for _, scenario := range scenarios {
		scenario := scenario
		t.Run(scenario.name, func(t *testing.T) {
			page, err := registry.SearchDatasets(ctx, scenario.filter, 100, "")
			require.NoError(t, err)
			require.Equal(t, scenario.expected, datasetNames(page.Items))
			require.Nil(t, page.NextPageToken)
		})
	}
}

func TestSearchDatasetsPagination(t *testing.T) {
	t.Parallel()

	registry := newStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		insertDataset(t, registry, newDataset(t, "paged", float64(i)))
	}

	var (
		versions  []int32
		pageToken string
	)

	for {
		page, err := registry.SearchDatasets(ctx, "", 2, pageToken)
		require.NoError(t, err)

		for _, item := range page.Items {
			versions = append(versions, item.Version)
			require.Len(t, item.Columns, 3)
		}

		if page.NextPageToken == nil {
			break
		}

		pageToken = *page.NextPageToken
	}

	require.Equal(t, []int32{1, 2, 3, 4, 5}, versions)

	_, err := registry.SearchDatasets(ctx, "", 2, "not a token")
	require.Equal(t, contract.ErrorCodeInvalidParameterValue, contract.CodeOf(err))

	_, err = registry.SearchDatasets(ctx, "size_rows LIKE 'x'", 2, "")
	require.Equal(t, contract.ErrorCodeInvalidParameterValue, contract.CodeOf(err))
}

func TestSearchDeployables(t *testing.T) {
	t.Parallel()

	registry := newStore(t)
	ctx := context.Background()

	training := newDataset(t, "training", 0)
	training.Metadata.ID = insertDataset(t, registry, training).ID

	holdout := newDataset(t, "holdout", 1)
	holdout.Metadata.ID = insertDataset(t, registry, holdout).ID

	bindings := []struct {
		ds   *dataset.Dataset
		name string
	}{
		{ds: training, name: "price"},
		{ds: holdout, name: "price"},
		{ds: training, name: "demand"},
	}

	for i, binding := range bindings {
		_, _, err := registry.InsertDeployable(ctx, newDeployable(t, binding.ds, binding.name, float64(i)))
		require.NoError(t, err)
	}

	scenarios := []struct {
		name     string
		filter   string
		expected int
		errCode  contract.ErrorCode
	}{
		{name: "all", filter: "", expected: 3},
		{name: "by name", filter: "name = 'price'", expected: 2},
		{name: "by dataset name", filter: "dataset.name = 'holdout'", expected: 1},
		{name: "by dataset and name", filter: "dataset.name = 'training' AND name = 'demand'", expected: 1},
		{name: "by estimator type", filter: "estimator_type = 'regressor'", expected: 3},
		{name: "columns are dataset only", filter: "columns.x = 'int'", errCode: contract.ErrorCodeInvalidParameterValue},
	}

	for _, scenario := range scenarios {
		scenario := scenario
		t.Run(scenario.name, func(t *testing.T) {
			page, err := registry.SearchDeployables(ctx, scenario.filter, 100, "")
			if scenario.errCode != "" {
				require.Equal(t, scenario.errCode, contract.CodeOf(err))

				return
			}

			require.NoError(t, err)
			require.Len(t, page.Items, scenario.expected)

			for _, item := range page.Items {
				require.NotEmpty(t, item.Variables)
				require.Equal(t, "label", item.Target)
			}
		})
	}
}

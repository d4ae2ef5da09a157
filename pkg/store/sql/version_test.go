package sql_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/mlopslite/mlopslite/pkg/dataset"
	"github.com/mlopslite/mlopslite/pkg/frame"
)

func TestDatasetVersionsIncreaseFromOne(t *testing.T) {
	t.Parallel()

	registry := newStore(t)
	round := 0

	rapid.Check(t, func(rt *rapid.T) {
		round++
		name := fmt.Sprintf("property-%d", round)
		count := rapid.IntRange(1, 4).Draw(rt, "count")

		for i := 0; i < count; i++ {
			data, err := frame.New(frame.Column{
				Name:   "v",
				DType:  frame.Int64,
				Values: []any{round, i},
			})
			require.NoError(rt, err)

			ds, err := dataset.New(data, name, "")
			require.NoError(rt, err)

			ref, created, err := registry.InsertDataset(context.Background(), ds)
			require.NoError(rt, err)
			require.True(rt, created)
			require.Equal(rt, int32(i+1), ref.Version)

			again, created, err := registry.InsertDataset(context.Background(), ds)
			require.NoError(rt, err)
			require.False(rt, created)
			require.Equal(rt, ref, again)
		}
	})
}

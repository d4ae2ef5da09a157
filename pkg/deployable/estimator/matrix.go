package estimator

import (
	"fmt"

	"github.com/mlopslite/mlopslite/pkg/frame"
)

// toMatrix lays out the named columns row by row as float64.
func toMatrix(data *frame.Frame, features []string) ([][]float64, error) {
	matrix := make([][]float64, data.NumRows())
	for i := range matrix {
		matrix[i] = make([]float64, len(features))
	}

	for j, name := range features {
		column, ok := data.Column(name)
		if !ok {
			return nil, fmt.Errorf("input column %q not found", name)
		}

		for i, value := range column.Values {
			if frame.IsMissing(value) {
				return nil, fmt.Errorf("input column %q row %d is missing", name, i)
			}

			number, err := frame.AsFloat64(value)
			if err != nil {
				return nil, fmt.Errorf("input column %q row %d: %w", name, i, err)
			}

			matrix[i][j] = number
		}
	}

	return matrix, nil
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}

	return sum
}

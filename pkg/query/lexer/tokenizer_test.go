package lexer_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mlopslite/mlopslite/pkg/query/lexer"
)

func debug(tokens []lexer.Token) string {
	parts := make([]string, len(tokens))
	for i, token := range tokens {
		parts[i] = token.Debug()
	}

	return strings.Join(parts, " ")
}

func TestTokenize(t *testing.T) {
	t.Parallel()

	scenarios := []struct {
		input    string
		expected string
	}{
		{
			input:    "name = 'iris'",
			expected: "identifier(name) equals string('iris') eof",
		},
		{
			input:    "version >= 2 AND size_rows < 1000",
			expected: "identifier(version) greater_equals number(2) and identifier(size_rows) less number(1000) eof",
		},
		{
			input:    "columns.\"petal width\" = 'float'",
			expected: "identifier(columns) dot string(\"petal width\") equals string('float') eof",
		},
		{
			input:    "description ilike '%churn%'",
			expected: "identifier(description) ilike string('%churn%') eof",
		},
		{
			input:    "dataset.hash NOT IN ('a1', 'b2')",
			expected: "identifier(dataset) dot identifier(hash) not in open_paren string('a1') comma string('b2') close_paren eof",
		},
		{
			input:    "version IN (1, 2) AND id != -3",
			expected: "identifier(version) in open_paren number(1) comma number(2) close_paren and identifier(id) not_equals number(-3) eof",
		},
		{
			input:    "estimator_type == `classifier`",
			expected: "identifier(estimator_type) equals string(`classifier`) eof",
		},
	}

	for _, scenario := range scenarios {
		scenario := scenario
		t.Run(scenario.input, func(t *testing.T) {
			t.Parallel()

			tokens, err := lexer.Tokenize(scenario.input)
			require.NoError(t, err)
			require.Equal(t, scenario.expected, debug(tokens))
		})
	}
}

func TestTokenizeInvalidInput(t *testing.T) {
	t.Parallel()

	scenarios := []string{
		"columns.'a = int",
		"name = 'iris",
		"name = iris'",
		"name = \"iris'",
		"version ~ 2",
	}

	for _, scenario := range scenarios {
		scenario := scenario
		t.Run(scenario, func(t *testing.T) {
			t.Parallel()

			_, err := lexer.Tokenize(scenario)

			var lexErr *lexer.Error
			require.ErrorAs(t, err, &lexErr)
		})
	}
}

func TestTokenPositions(t *testing.T) {
	t.Parallel()

	tokens, err := lexer.Tokenize("id  = 4")
	require.NoError(t, err)
	require.Equal(t, []int{0, 4, 6, 7}, []int{tokens[0].Position, tokens[1].Position, tokens[2].Position, tokens[3].Position})
}

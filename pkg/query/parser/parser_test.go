package parser_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mlopslite/mlopslite/pkg/query/lexer"
	"github.com/mlopslite/mlopslite/pkg/query/parser"
)

func parse(t *testing.T, input string) (*parser.AndExpr, error) {
	t.Helper()

	tokens, err := lexer.Tokenize(input)
	require.NoError(t, err)

	return parser.Parse(tokens)
}

func TestParse(t *testing.T) {
	t.Parallel()

	scenarios := []struct {
		input    string
		expected *parser.AndExpr
	}{
		{
			input: "name = 'iris'",
			expected: &parser.AndExpr{Exprs: []*parser.CompareExpr{
				{Left: parser.Identifier{Key: "name"}, Operator: parser.Equals, Right: parser.StringExpr{Value: "iris"}},
			}},
		},
		{
			input: "version > 1 AND size_rows <= 150",
			expected: &parser.AndExpr{Exprs: []*parser.CompareExpr{
				{Left: parser.Identifier{Key: "version"}, Operator: parser.Greater, Right: parser.NumberExpr{Value: 1}},
				{Left: parser.Identifier{Key: "size_rows"}, Operator: parser.LessEquals, Right: parser.NumberExpr{Value: 150}},
			}},
		},
		{
			input: "columns.\"petal width\" = 'float'",
			expected: &parser.AndExpr{Exprs: []*parser.CompareExpr{
				{
					Left:     parser.Identifier{Entity: "columns", Key: "petal width"},
					Operator: parser.Equals,
					Right:    parser.StringExpr{Value: "float"},
				},
			}},
		},
		{
			input: "dataset.name ILIKE 'ir%'",
			expected: &parser.AndExpr{Exprs: []*parser.CompareExpr{
				{Left: parser.Identifier{Entity: "dataset", Key: "name"}, Operator: parser.ILike, Right: parser.StringExpr{Value: "ir%"}},
			}},
		},
		{
			input: "version IN (1, 3)",
			expected: &parser.AndExpr{Exprs: []*parser.CompareExpr{
				{
					Left:     parser.Identifier{Key: "version"},
					Operator: parser.In,
					Right:    parser.ListExpr{Values: []parser.Value{parser.NumberExpr{Value: 1}, parser.NumberExpr{Value: 3}}},
				},
			}},
		},
		{
			input: "hash NOT IN ('a')",
			expected: &parser.AndExpr{Exprs: []*parser.CompareExpr{
				{
					Left:     parser.Identifier{Key: "hash"},
					Operator: parser.NotIn,
					Right:    parser.ListExpr{Values: []parser.Value{parser.StringExpr{Value: "a"}}},
				},
			}},
		},
	}

	for _, scenario := range scenarios {
		scenario := scenario
		t.Run(scenario.input, func(t *testing.T) {
			t.Parallel()

			ast, err := parse(t, scenario.input)
			require.NoError(t, err)
			require.Equal(t, scenario.expected, ast)
		})
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	scenarios := []string{
		"= 'iris'",
		"name 'iris'",
		"name = ",
		"name = 'a' AND",
		"name = 'a' version = 1",
		"hash NOT ('a')",
		"hash IN ()",
		"hash IN ('a' 'b')",
		"columns. = 'int'",
	}

	for _, scenario := range scenarios {
		scenario := scenario
		t.Run(scenario, func(t *testing.T) {
			t.Parallel()

			_, err := parse(t, scenario)
			require.Error(t, err)
		})
	}
}

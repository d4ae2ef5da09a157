package query

import (
	"fmt"
	"strings"

	"github.com/mlopslite/mlopslite/pkg/query/lexer"
	"github.com/mlopslite/mlopslite/pkg/query/parser"
)

// Stage is the step of filter processing that rejected a filter.
type Stage string

const (
	StageLex      Stage = "lexing"
	StageParse    Stage = "parsing"
	StageValidate Stage = "validating"
)

// FilterError reports a filter that could not be turned into conditions.
type FilterError struct {
	Filter string
	Stage  Stage
	Err    error
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("error while %s %s: %v", e.Stage, e.Filter, e.Err)
}

func (e *FilterError) Unwrap() error {
	return e.Err
}

// ParseFilter parses and type-checks a search filter for entity. A blank
// filter yields no conditions.
func ParseFilter(entity parser.Entity, input string) ([]*parser.ValidCompareExpr, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return make([]*parser.ValidCompareExpr, 0), nil
	}

	tokens, err := lexer.Tokenize(input)
	if err != nil {
		return nil, &FilterError{Filter: input, Stage: StageLex, Err: err}
	}

	ast, err := parser.Parse(tokens)
	if err != nil {
		return nil, &FilterError{Filter: input, Stage: StageParse, Err: err}
	}

	conditions := make([]*parser.ValidCompareExpr, len(ast.Exprs))

	for i, expr := range ast.Exprs {
		if conditions[i], err = parser.ValidateExpression(entity, expr); err != nil {
			return nil, &FilterError{Filter: input, Stage: StageValidate, Err: err}
		}
	}

	return conditions, nil
}

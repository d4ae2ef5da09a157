package parser

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

/*

Validation type-checks the untyped tree against the searchable fields of an entity.

Grammar rule: [entity.]key operator value

A bare key is an attribute of the searched table. Datasets can also be
filtered on their columns (columns.<name> = '<primitive type>') and
deployables on the dataset they are bound to (dataset.<name|version|hash>).

*/

type Entity int

const (
	DatasetEntity Entity = iota
	DeployableEntity
)

type ValidIdentifier int

const (
	Attribute ValidIdentifier = iota
	Column
	BoundDataset
)

func (v ValidIdentifier) String() string {
	switch v {
	case Attribute:
		return "attribute"
	case Column:
		return "column"
	case BoundDataset:
		return "dataset"
	default:
		return "unknown"
	}
}

type ValidCompareExpr struct {
	Identifier ValidIdentifier
	Key        string
	Operator   OperatorKind
	Value      interface{}
}

type ValidationError struct {
	message string
}

func (e *ValidationError) Error() string {
	return e.message
}

func NewValidationError(format string, a ...interface{}) *ValidationError {
	return &ValidationError{message: fmt.Sprintf(format, a...)}
}

type valueKind int

const (
	numeric valueKind = iota
	text
)

//nolint:gochecknoglobals
var (
	datasetAttributes = map[string]valueKind{
		"id":          numeric,
		"name":        text,
		"version":     numeric,
		"description": text,
		"size_rows":   numeric,
		"size_cols":   numeric,
		"hash":        text,
		"created_at":  numeric,
	}
	deployableAttributes = map[string]valueKind{
		"id":              numeric,
		"dataset_id":      numeric,
		"name":            text,
		"version":         numeric,
		"target":          text,
		"description":     text,
		"estimator_type":  text,
		"estimator_class": text,
		"hash":            text,
		"created_at":      numeric,
	}
	boundDatasetAttributes = map[string]valueKind{
		"name":    text,
		"version": numeric,
		"hash":    text,
	}
	columnTypes = []string{"bool", "float", "int", "str"}
)

func allowed(attributes map[string]valueKind) string {
	keys := make([]string, 0, len(attributes))
	for key := range attributes {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return strings.Join(keys, ", ")
}

func resolveIdentifier(entity Entity, identifier Identifier) (ValidIdentifier, valueKind, error) {
	attributes := datasetAttributes
	if entity == DeployableEntity {
		attributes = deployableAttributes
	}

	switch strings.ToLower(identifier.Entity) {
	case "", "attribute", "attributes", "attr":
		kind, ok := attributes[identifier.Key]
		if !ok {
			return -1, 0, NewValidationError(
				"invalid attribute %q. Allowed values are [%s]", identifier.Key, allowed(attributes),
			)
		}

		return Attribute, kind, nil
	case "column", "columns":
		if entity != DatasetEntity {
			return -1, 0, NewValidationError("column filters are only supported for datasets")
		}

		return Column, text, nil
	case "dataset", "datasets":
		if entity != DeployableEntity {
			return -1, 0, NewValidationError("dataset filters are only supported for deployables")
		}

		kind, ok := boundDatasetAttributes[identifier.Key]
		if !ok {
			return -1, 0, NewValidationError(
				"invalid dataset attribute %q. Allowed values are [%s]", identifier.Key, allowed(boundDatasetAttributes),
			)
		}

		return BoundDataset, kind, nil
	default:
		return -1, 0, NewValidationError("invalid identifier %q", identifier.Entity)
	}
}

func checkValue(kind valueKind, value Value) error {
	switch v := value.(type) {
	case NumberExpr:
		if kind != numeric {
			return NewValidationError("expected a quoted string, found %v", v.Value)
		}
	case StringExpr:
		if kind != text {
			return NewValidationError("expected a number, found %q", v.Value)
		}
	case ListExpr:
		for _, item := range v.Values {
			if err := checkValue(kind, item); err != nil {
				return err
			}
		}
	}

	return nil
}

func checkOperator(identifier ValidIdentifier, kind valueKind, expression *CompareExpr) error {
	_, isList := expression.Right.(ListExpr)

	switch expression.Operator {
	case In, NotIn:
		if !isList {
			return NewValidationError("%s expects a list of values", expression.Operator)
		}
	case Like, ILike:
		if kind != text {
			return NewValidationError("%s is only supported for string fields", expression.Operator)
		}
	case Less, LessEquals, Greater, GreaterEquals:
		if kind != numeric {
			return NewValidationError("%s is only supported for numeric fields", expression.Operator)
		}
	case Equals, NotEquals:
	}

	if identifier == Column {
		if expression.Operator != Equals && expression.Operator != NotEquals {
			return NewValidationError("column filters only support = and !=")
		}

		column, _ := expression.Right.(StringExpr)
		if !slices.Contains(columnTypes, column.Value) {
			return NewValidationError("column type must be one of [%s], found %q", strings.Join(columnTypes, ", "), column.Value)
		}
	}

	return nil
}

// ValidateExpression type-checks one comparison for the searched entity.
func ValidateExpression(entity Entity, expression *CompareExpr) (*ValidCompareExpr, error) {
	identifier, kind, err := resolveIdentifier(entity, expression.Left)
	if err != nil {
		return nil, fmt.Errorf("error on parsing filter expression: %w", err)
	}

	if err := checkValue(kind, expression.Right); err != nil {
		return nil, fmt.Errorf("error on parsing filter expression for %q: %w", expression.Left.Key, err)
	}

	if err := checkOperator(identifier, kind, expression); err != nil {
		return nil, fmt.Errorf("error on parsing filter expression for %q: %w", expression.Left.Key, err)
	}

	return &ValidCompareExpr{
		Identifier: identifier,
		Key:        expression.Left.Key,
		Operator:   expression.Operator,
		Value:      expression.Right.value(),
	}, nil
}

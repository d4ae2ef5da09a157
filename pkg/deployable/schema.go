package deployable

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mlopslite/mlopslite/pkg/contract"
	"github.com/mlopslite/mlopslite/pkg/frame"
)

// ReferenceIDField is the record key carrying the caller's correlation id.
const ReferenceIDField = "reference_id"

// Record is one flat prediction input row.
type Record map[string]any

// ReferenceID returns the correlation id as a string. Integer ids are formatted in base 10.
func (r Record) ReferenceID() (string, bool) {
	switch v := r[ReferenceIDField].(type) {
	case string:
		return v, v != ""
	case json.Number:
		if _, err := v.Int64(); err != nil {
			return "", false
		}

		return v.String(), true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		i, err := frame.AsInt64(v)
		if err != nil {
			return "", false
		}

		return strconv.FormatInt(i, 10), true
	default:
		return "", false
	}
}

// Schema checks input records against a variable map. Unknown fields are rejected.
type Schema struct {
	variables map[string]frame.Primitive
	names     []string
	rules     map[string]interface{}
	validate  *validator.Validate
}

//nolint:gochecknoglobals
var primitiveTags = map[frame.Primitive]string{
	frame.PrimitiveInt:   "primitive_int",
	frame.PrimitiveFloat: "primitive_float",
	frame.PrimitiveBool:  "primitive_bool",
	frame.PrimitiveStr:   "primitive_str",
}

func NewSchema(variables map[string]frame.Primitive) *Schema {
	validate := validator.New()
	_ = validate.RegisterValidation("primitive_int", func(fl validator.FieldLevel) bool {
		return isInteger(fl.Field().Interface())
	})
	_ = validate.RegisterValidation("primitive_float", func(fl validator.FieldLevel) bool {
		return isNumber(fl.Field().Interface())
	})
	_ = validate.RegisterValidation("primitive_bool", func(fl validator.FieldLevel) bool {
		_, ok := fl.Field().Interface().(bool)

		return ok
	})
	_ = validate.RegisterValidation("primitive_str", func(fl validator.FieldLevel) bool {
		_, ok := fl.Field().Interface().(string)

		return ok
	})

	names := make([]string, 0, len(variables))
	rules := make(map[string]interface{}, len(variables))

	for name, primitive := range variables {
		names = append(names, name)
		rules[name] = primitiveTags[primitive]
	}

	sort.Strings(names)

	return &Schema{variables: variables, names: names, rules: rules, validate: validate}
}

// Variables returns the expected primitive type per field.
func (s *Schema) Variables() map[string]frame.Primitive {
	return s.variables
}

// Check validates every record and reports all problems at once.
func (s *Schema) Check(records []Record) error {
	if len(records) == 0 {
		return contract.NewError(contract.ErrorCodeValidation, "prediction request has no rows")
	}

	var problems []string

	for i, record := range records {
		for _, problem := range s.checkRecord(record) {
			problems = append(problems, fmt.Sprintf("row %d: %s", i, problem))
		}
	}

	if len(problems) > 0 {
		return contract.NewError(contract.ErrorCodeValidation, strings.Join(problems, "; "))
	}

	return nil
}

func (s *Schema) checkRecord(record Record) []string {
	var problems []string

	if _, ok := record.ReferenceID(); !ok {
		problems = append(problems, fmt.Sprintf("field %q must be a non-empty string or an integer", ReferenceIDField))
	}

	var extra []string

	for name := range record {
		if _, ok := s.variables[name]; !ok && name != ReferenceIDField {
			extra = append(extra, name)
		}
	}

	sort.Strings(extra)

	for _, name := range extra {
		problems = append(problems, fmt.Sprintf("field %q is not a declared variable", name))
	}

	rules := make(map[string]interface{}, len(s.rules))

	for _, name := range s.names {
		if record[name] == nil {
			problems = append(problems, fmt.Sprintf("field %q is required", name))

			continue
		}

		rules[name] = s.rules[name]
	}

	failures := s.validate.ValidateMap(record, rules)

	for _, name := range s.names {
		if _, failed := failures[name]; failed {
			problems = append(problems, fmt.Sprintf("field %q must be of type %s", name, s.variables[name]))
		}
	}

	return problems
}

// isInteger accepts values representable as int64.
func isInteger(value any) bool {
	switch v := value.(type) {
	case int, int8, int16, int32, int64, uint8, uint16, uint32:
		return true
	case uint:
		return uint64(v) <= math.MaxInt64
	case uint64:
		return v <= math.MaxInt64
	case float64:
		return v == math.Trunc(v) && v >= math.MinInt64 && v < math.MaxInt64
	case json.Number:
		_, err := v.Int64()

		return err == nil
	default:
		return false
	}
}

func isNumber(value any) bool {
	switch v := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32:
		return true
	case float64:
		return !math.IsNaN(v)
	case json.Number:
		_, err := v.Float64()

		return err == nil
	default:
		return false
	}
}

// Frame assembles validated records into columns ordered as given in names.
func (s *Schema) Frame(records []Record, names []string) (*frame.Frame, error) {
	columns := make([]frame.Column, 0, len(names))

	for _, name := range names {
		primitive, ok := s.variables[name]
		if !ok {
			return nil, contract.Errorf(contract.ErrorCodeColumnMismatch, "pipeline input %q is not a declared variable", name)
		}

		dtype, err := frame.NativeFor(primitive)
		if err != nil {
			return nil, err
		}

		values := make([]any, len(records))
		for i, record := range records {
			values[i] = record[name]
		}

		columns = append(columns, frame.Column{Name: name, DType: dtype, Values: values})
	}

	return frame.New(columns...)
}

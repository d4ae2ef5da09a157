package execution

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/mlopslite/mlopslite/pkg/contract"
	"github.com/mlopslite/mlopslite/pkg/deployable"
)

// Log is the record of one prediction call.
type Log struct {
	ID           int64     `json:"id"`
	DeployableID int64     `json:"deployable_id"`
	RequestID    string    `json:"request_id"`
	RequestTime  time.Time `json:"request_time"`
	RequestSize  int       `json:"request_size"`
	Items        []Item    `json:"items,omitempty"`
}

// Item holds one input row and its output.
type Item struct {
	ID          int64           `json:"id"`
	ReferenceID string          `json:"reference_id"`
	Request     []RequestField  `json:"request"`
	Response    []ResponseField `json:"response"`
}

// RequestField values are JSON scalars.
type RequestField struct {
	VarName string          `json:"varname"`
	Value   json.RawMessage `json:"value"`
}

// ResponseField has a class label for classifier probabilities and none for scalar results.
type ResponseField struct {
	ClassLabel *string         `json:"class_label"`
	Value      json.RawMessage `json:"value"`
}

// Build pairs records with results, which must have the same length and order.
func Build(
	deployableID int64, requestID string, records []deployable.Record, results []deployable.Result, at time.Time,
) (*Log, error) {
	if len(records) != len(results) {
		return nil, contract.Errorf(
			contract.ErrorCodeInvalidParameterValue,
			"cannot log %d inputs against %d outputs", len(records), len(results),
		)
	}

	log := &Log{
		DeployableID: deployableID,
		RequestID:    requestID,
		RequestTime:  at.UTC(),
		RequestSize:  len(records),
		Items:        make([]Item, len(records)),
	}

	for i, record := range records {
		request, err := requestFields(record)
		if err != nil {
			return nil, err
		}

		response, err := responseFields(results[i].Results)
		if err != nil {
			return nil, err
		}

		referenceID, _ := record.ReferenceID()
		log.Items[i] = Item{ReferenceID: referenceID, Request: request, Response: response}
	}

	return log, nil
}

func requestFields(record deployable.Record) ([]RequestField, error) {
	names := make([]string, 0, len(record))
	for name := range record {
		if name != deployable.ReferenceIDField {
			names = append(names, name)
		}
	}

	sort.Strings(names)

	fields := make([]RequestField, len(names))

	for i, name := range names {
		value, err := scalar(record[name])
		if err != nil {
			return nil, fmt.Errorf("request field %q: %w", name, err)
		}

		fields[i] = RequestField{VarName: name, Value: value}
	}

	return fields, nil
}

func responseFields(results any) ([]ResponseField, error) {
	var byClass map[string]any

	switch v := results.(type) {
	case map[string]float64:
		byClass = make(map[string]any, len(v))
		for label, p := range v {
			byClass[label] = p
		}
	case map[string]any:
		byClass = v
	default:
		value, err := scalar(v)
		if err != nil {
			return nil, fmt.Errorf("response: %w", err)
		}

		return []ResponseField{{Value: value}}, nil
	}

	labels := make([]string, 0, len(byClass))
	for label := range byClass {
		labels = append(labels, label)
	}

	sort.Strings(labels)

	fields := make([]ResponseField, len(labels))

	for i, label := range labels {
		value, err := scalar(byClass[label])
		if err != nil {
			return nil, fmt.Errorf("response class %q: %w", label, err)
		}

		fields[i] = ResponseField{ClassLabel: &labels[i], Value: value}
	}

	return fields, nil
}

func scalar(value any) (json.RawMessage, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	return encoded, nil
}

// Appender persists a whole log tree atomically and returns the log id.
type Appender interface {
	AppendExecutionLog(ctx context.Context, log *Log) (int64, error)
}

// Logger writes execution logs for prediction calls.
type Logger struct {
	store Appender
	now   func() time.Time
}

func NewLogger(store Appender) *Logger {
	return &Logger{store: store, now: time.Now}
}

// WithClock replaces the time source, mainly for tests.
func (l *Logger) WithClock(now func() time.Time) *Logger {
	l.now = now

	return l
}

// Log builds and persists the tree. The returned log carries the stored id.
func (l *Logger) Log(
	ctx context.Context, deployableID int64, requestID string, records []deployable.Record, results []deployable.Result,
) (*Log, error) {
	log, err := Build(deployableID, requestID, records, results, l.now())
	if err != nil {
		return nil, err
	}

	id, err := l.store.AppendExecutionLog(ctx, log)
	if err != nil {
		return nil, err
	}

	log.ID = id

	return log, nil
}

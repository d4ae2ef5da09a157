package deployable

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mlopslite/mlopslite/pkg/contract"
	"github.com/mlopslite/mlopslite/pkg/dataset"
	"github.com/mlopslite/mlopslite/pkg/digest"
	"github.com/mlopslite/mlopslite/pkg/frame"
)

// Metadata describes a deployable. ID, Version and CreatedAt are zero until stored.
type Metadata struct {
	ID             int64                      `json:"id"`
	DatasetID      int64                      `json:"dataset_id"`
	Name           string                     `json:"name"`
	Version        int32                      `json:"version"`
	Target         string                     `json:"target"`
	TargetMapping  map[string]string          `json:"target_mapping,omitempty"`
	Description    string                     `json:"description"`
	EstimatorType  EstimatorType              `json:"estimator_type"`
	EstimatorClass string                     `json:"estimator_class"`
	Variables      map[string]frame.Primitive `json:"variables"`
	Hash           string                     `json:"hash"`
	CreatedAt      time.Time                  `json:"created_at"`
}

func (m Metadata) Registered() bool {
	return m.ID != 0
}

// VariableNames returns the variable names in sorted order.
func (m Metadata) VariableNames() []string {
	names := make([]string, 0, len(m.Variables))
	for name := range m.Variables {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Deployable is a pipeline bound to the schema of a registered dataset.
type Deployable struct {
	Pipeline Pipeline
	Metadata Metadata
	artifact []byte
	schema   *Schema
}

// Artifact returns the serialized pipeline.
func (d *Deployable) Artifact() []byte {
	return d.artifact
}

// DataHash is the digest of the serialized pipeline bytes.
func (d *Deployable) DataHash() string {
	return digest.Sum(d.artifact)
}

func (d *Deployable) Schema() *Schema {
	return d.schema
}

type createOptions struct {
	targetMapping map[string]string
	description   string
}

type CreateOption func(*createOptions)

func WithTargetMapping(mapping map[string]string) CreateOption {
	return func(o *createOptions) {
		o.targetMapping = mapping
	}
}

func WithDescription(description string) CreateOption {
	return func(o *createOptions) {
		o.description = description
	}
}

// Manager creates and restores deployables with a single artifact codec.
type Manager struct {
	codec Codec
}

func NewManager(codec Codec) *Manager {
	return &Manager{codec: codec}
}

// Create validates the pipeline against ds and serializes it. Nothing is persisted.
func (m *Manager) Create(
	pipeline Pipeline, ds *dataset.Dataset, name, target string, opts ...CreateOption,
) (*Deployable, error) {
	options := createOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	if name == "" {
		return nil, contract.NewError(contract.ErrorCodeInvalidParameterValue, "deployable name must not be empty")
	}

	if ds == nil || !ds.Metadata.Registered() {
		return nil, contract.NewError(
			contract.ErrorCodeInvalidParameterValue,
			"deployables can only be bound to a registered dataset",
		)
	}

	if err := verifyPipeline(pipeline); err != nil {
		return nil, err
	}

	variables, err := bindVariables(pipeline.FeatureNames(), ds.Metadata)
	if err != nil {
		return nil, err
	}

	if err := verifyTarget(ds, target, options.targetMapping); err != nil {
		return nil, err
	}

	artifact, err := m.codec.Marshal(pipeline)
	if err != nil {
		return nil, contract.NewErrorWith(contract.ErrorCodeInvalidArtifact, "failed to serialize pipeline", err)
	}

	metadata := Metadata{
		DatasetID:      ds.Metadata.ID,
		Name:           name,
		Target:         target,
		TargetMapping:  options.targetMapping,
		Description:    options.description,
		EstimatorType:  EstimatorTypeOf(pipeline),
		EstimatorClass: EstimatorClassOf(pipeline),
		Variables:      variables,
		Hash:           digest.Sum(artifact),
	}

	return &Deployable{
		Pipeline: pipeline,
		Metadata: metadata,
		artifact: artifact,
		schema:   NewSchema(variables),
	}, nil
}

// Restore rebuilds a deployable from stored fields. Capabilities are not re-checked.
func (m *Manager) Restore(metadata Metadata, artifact []byte) (*Deployable, error) {
	for name, primitive := range metadata.Variables {
		if !primitive.Valid() {
			return nil, contract.Errorf(
				contract.ErrorCodeUnsupportedType, "stored variable %s has unknown type %q", name, primitive,
			)
		}
	}

	pipeline, err := m.codec.Unmarshal(artifact)
	if err != nil {
		return nil, contract.NewErrorWith(contract.ErrorCodeInvalidArtifact, "failed to deserialize pipeline", err)
	}

	return &Deployable{
		Pipeline: pipeline,
		Metadata: metadata,
		artifact: artifact,
		schema:   NewSchema(metadata.Variables),
	}, nil
}

func verifyPipeline(pipeline Pipeline) error {
	if pipeline == nil {
		return contract.NewError(contract.ErrorCodeInvalidArtifact, "pipeline is nil")
	}

	if len(pipeline.FeatureNames()) == 0 {
		return contract.NewError(contract.ErrorCodeInvalidArtifact, "pipeline does not declare its input columns")
	}

	if EstimatorTypeOf(pipeline) != EstimatorClassifier {
		return nil
	}

	if _, ok := pipeline.(ProbabilityPredictor); !ok {
		return contract.NewError(contract.ErrorCodeInvalidArtifact, "classifier does not implement PredictProba")
	}

	labeler, ok := pipeline.(ClassLabeler)
	if !ok {
		return contract.NewError(contract.ErrorCodeInvalidArtifact, "classifier does not implement Classes")
	}

	if len(labeler.Classes()) == 0 {
		return contract.NewError(contract.ErrorCodeInvalidArtifact, "classifier declares no class labels")
	}

	return nil
}

func bindVariables(features []string, metadata dataset.Metadata) (map[string]frame.Primitive, error) {
	types := metadata.ConvertedTypes()
	variables := make(map[string]frame.Primitive, len(features))

	var missing []string

	for _, feature := range features {
		primitive, ok := types[feature]
		if !ok {
			missing = append(missing, feature)

			continue
		}

		variables[feature] = primitive
	}

	if len(missing) > 0 {
		return nil, contract.Errorf(
			contract.ErrorCodeColumnMismatch,
			"pipeline inputs [%s] are not columns of dataset %q",
			strings.Join(missing, ", "), metadata.Name,
		)
	}

	return variables, nil
}

func verifyTarget(ds *dataset.Dataset, target string, mapping map[string]string) error {
	column, ok := ds.Data.Column(target)
	if !ok {
		return contract.Errorf(
			contract.ErrorCodeColumnMismatch,
			"target %q not found in dataset columns [%s]",
			target, strings.Join(ds.Data.Names(), ", "),
		)
	}

	if mapping == nil {
		return nil
	}

	uncovered := map[string]struct{}{}

	for _, value := range column.Values {
		if frame.IsMissing(value) {
			continue
		}

		key := frame.AsString(value)
		if _, ok := mapping[key]; !ok {
			uncovered[key] = struct{}{}
		}
	}

	if len(uncovered) == 0 {
		return nil
	}

	values := make([]string, 0, len(uncovered))
	for value := range uncovered {
		values = append(values, value)
	}

	sort.Strings(values)

	return contract.NewError(
		contract.ErrorCodeTargetMappingMismatch,
		fmt.Sprintf("target mapping does not cover target values [%s]", strings.Join(values, ", ")),
	)
}

package estimator

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mlopslite/mlopslite/pkg/deployable"
)

const envelopeKind = "pipeline"

// Codec stores pipelines as a deterministic protobuf Struct holding
// {"kind": "pipeline", "params": <spec>}.
type Codec struct{}

var _ deployable.Codec = Codec{}

func (Codec) Marshal(pipeline deployable.Pipeline) ([]byte, error) {
	p, ok := pipeline.(*Pipeline)
	if !ok {
		return nil, fmt.Errorf("cannot serialize %T, only built-in pipelines are supported", pipeline)
	}

	envelope, err := structpb.NewStruct(map[string]any{
		"kind":   envelopeKind,
		"params": p.Spec(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline envelope: %w", err)
	}

	artifact, err := proto.MarshalOptions{Deterministic: true}.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pipeline envelope: %w", err)
	}

	return artifact, nil
}

func (Codec) Unmarshal(artifact []byte) (deployable.Pipeline, error) {
	var envelope structpb.Struct
	if err := proto.Unmarshal(artifact, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pipeline envelope: %w", err)
	}

	fields := envelope.AsMap()
	if kind, _ := fields["kind"].(string); kind != envelopeKind {
		return nil, fmt.Errorf("unexpected artifact kind %q", kind)
	}

	spec, ok := fields["params"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("artifact has no pipeline params")
	}

	return FromSpec(spec)
}

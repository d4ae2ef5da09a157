package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mlopslite/mlopslite/pkg/deployable"
	"github.com/mlopslite/mlopslite/pkg/digest"
	"github.com/mlopslite/mlopslite/pkg/frame"
)

// Deployable mapped from table <deployable>.
type Deployable struct {
	ID             int64   `db:"id"              gorm:"column:id;primaryKey;autoIncrement:true"`
	DatasetID      int64   `db:"dataset_id"      gorm:"column:dataset_id;not null;uniqueIndex:idx_deployable_key,priority:2"`
	Name           string  `db:"name"            gorm:"column:name;size:255;not null;uniqueIndex:idx_deployable_key,priority:1"`
	Version        int32   `db:"version"         gorm:"column:version;not null;uniqueIndex:idx_deployable_key,priority:4"`
	Target         string  `db:"target"          gorm:"column:target;size:255;not null;uniqueIndex:idx_deployable_key,priority:3"`
	TargetMapping  *string `db:"target_mapping"  gorm:"column:target_mapping"`
	Description    string  `db:"description"     gorm:"column:description"`
	EstimatorType  string  `db:"estimator_type"  gorm:"column:estimator_type;size:32;not null"`
	EstimatorClass string  `db:"estimator_class" gorm:"column:estimator_class;size:255;not null"`
	Artifact       []byte  `db:"artifact"        gorm:"column:artifact;not null"`
	Variables      string  `db:"variables"       gorm:"column:variables;not null"`
	Hash           string  `db:"hash"            gorm:"column:hash;size:32;not null;uniqueIndex:idx_deployable_hash"`
	CreatedAt      int64   `db:"created_at"      gorm:"column:created_at;not null;autoCreateTime:false"`
	Dataset        Dataset `gorm:"foreignKey:DatasetID;constraint:OnDelete:RESTRICT"`
}

func (Deployable) TableName() string {
	return "deployable"
}

func (d Deployable) ToMetadata() (deployable.Metadata, error) {
	var variables map[string]frame.Primitive
	if err := json.Unmarshal([]byte(d.Variables), &variables); err != nil {
		return deployable.Metadata{}, fmt.Errorf("invalid variables of deployable %d: %w", d.ID, err)
	}

	var mapping map[string]string
	if d.TargetMapping != nil {
		if err := json.Unmarshal([]byte(*d.TargetMapping), &mapping); err != nil {
			return deployable.Metadata{}, fmt.Errorf("invalid target mapping of deployable %d: %w", d.ID, err)
		}
	}

	return deployable.Metadata{
		ID:             d.ID,
		DatasetID:      d.DatasetID,
		Name:           d.Name,
		Version:        d.Version,
		Target:         d.Target,
		TargetMapping:  mapping,
		Description:    d.Description,
		EstimatorType:  deployable.EstimatorType(d.EstimatorType),
		EstimatorClass: d.EstimatorClass,
		Variables:      variables,
		Hash:           d.Hash,
		CreatedAt:      time.UnixMilli(d.CreatedAt).UTC(),
	}, nil
}

func NewDeployableFromDomain(d *deployable.Deployable, version int32, createdAt time.Time) (Deployable, error) {
	meta := d.Metadata

	variables, err := digest.Encode(meta.Variables)
	if err != nil {
		return Deployable{}, fmt.Errorf("failed to encode variables: %w", err)
	}

	var mapping *string

	if meta.TargetMapping != nil {
		encoded, err := digest.Encode(meta.TargetMapping)
		if err != nil {
			return Deployable{}, fmt.Errorf("failed to encode target mapping: %w", err)
		}

		mapping = new(string)
		*mapping = string(encoded)
	}

	return Deployable{
		DatasetID:      meta.DatasetID,
		Name:           meta.Name,
		Version:        version,
		Target:         meta.Target,
		TargetMapping:  mapping,
		Description:    meta.Description,
		EstimatorType:  string(meta.EstimatorType),
		EstimatorClass: meta.EstimatorClass,
		Artifact:       d.Artifact(),
		Variables:      string(variables),
		Hash:           meta.Hash,
		CreatedAt:      createdAt.UnixMilli(),
	}, nil
}

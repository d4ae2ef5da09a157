package model

import (
	"time"

	"github.com/mlopslite/mlopslite/pkg/dataset"
	"github.com/mlopslite/mlopslite/pkg/frame"
)

// Dataset mapped from table <dataset>.
type Dataset struct {
	ID          int64           `db:"id"          gorm:"column:id;primaryKey;autoIncrement:true"`
	Name        string          `db:"name"        gorm:"column:name;size:255;not null;uniqueIndex:idx_dataset_name_version,priority:1"`
	Version     int32           `db:"version"     gorm:"column:version;not null;uniqueIndex:idx_dataset_name_version,priority:2"`
	Description string          `db:"description" gorm:"column:description"`
	Data        []byte          `db:"data"        gorm:"column:data;not null"`
	SizeRows    int             `db:"size_rows"   gorm:"column:size_rows;not null"`
	SizeCols    int             `db:"size_cols"   gorm:"column:size_cols;not null"`
	Hash        string          `db:"hash"        gorm:"column:hash;size:32;not null;uniqueIndex:idx_dataset_hash"`
	CreatedAt   int64           `db:"created_at"  gorm:"column:created_at;not null;autoCreateTime:false"`
	Columns     []DatasetColumn `gorm:"foreignKey:DatasetID;constraint:OnDelete:CASCADE"`
}

func (Dataset) TableName() string {
	return "dataset"
}

// DatasetColumn mapped from table <dataset_column>.
type DatasetColumn struct {
	ID            int64    `db:"id"             gorm:"column:id;primaryKey;autoIncrement:true"`
	DatasetID     int64    `db:"dataset_id"     gorm:"column:dataset_id;not null;index"`
	ColumnName    string   `db:"column_name"    gorm:"column:column_name;size:255;not null"`
	OriginalType  string   `db:"original_type"  gorm:"column:original_type;size:32;not null"`
	ConvertedType string   `db:"converted_type" gorm:"column:converted_type;size:8;not null"`
	NullCount     int      `db:"null_count"     gorm:"column:null_count;not null"`
	UniqueCount   int      `db:"unique_count"   gorm:"column:unique_count;not null"`
	MinValue      *float64 `db:"min_value"      gorm:"column:min_value"`
	MaxValue      *float64 `db:"max_value"      gorm:"column:max_value"`
}

func (DatasetColumn) TableName() string {
	return "dataset_column"
}

func (c DatasetColumn) ToSchema() dataset.ColumnSchema {
	return dataset.ColumnSchema{
		ColumnName:    c.ColumnName,
		OriginalType:  frame.DType(c.OriginalType),
		ConvertedType: frame.Primitive(c.ConvertedType),
		NullCount:     c.NullCount,
		UniqueCount:   c.UniqueCount,
		MinValue:      c.MinValue,
		MaxValue:      c.MaxValue,
	}
}

// ToMetadata converts the row. Columns are only included when they were loaded.
func (d Dataset) ToMetadata() dataset.Metadata {
	var columns []dataset.ColumnSchema
	if len(d.Columns) > 0 {
		columns = make([]dataset.ColumnSchema, len(d.Columns))
		for i, column := range d.Columns {
			columns[i] = column.ToSchema()
		}
	}

	return dataset.Metadata{
		ID:          d.ID,
		Name:        d.Name,
		Version:     d.Version,
		Description: d.Description,
		SizeRows:    d.SizeRows,
		SizeCols:    d.SizeCols,
		Hash:        d.Hash,
		CreatedAt:   time.UnixMilli(d.CreatedAt).UTC(),
		Columns:     columns,
	}
}

func NewDatasetFromDomain(ds *dataset.Dataset, version int32, createdAt time.Time) Dataset {
	meta := ds.Metadata

	columns := make([]DatasetColumn, len(meta.Columns))
	for i, column := range meta.Columns {
		columns[i] = DatasetColumn{
			ColumnName:    column.ColumnName,
			OriginalType:  string(column.OriginalType),
			ConvertedType: string(column.ConvertedType),
			NullCount:     column.NullCount,
			UniqueCount:   column.UniqueCount,
			MinValue:      column.MinValue,
			MaxValue:      column.MaxValue,
		}
	}

	return Dataset{
		Name:        meta.Name,
		Version:     version,
		Description: meta.Description,
		Data:        ds.Encoded(),
		SizeRows:    meta.SizeRows,
		SizeCols:    meta.SizeCols,
		Hash:        meta.Hash,
		CreatedAt:   createdAt.UnixMilli(),
		Columns:     columns,
	}
}

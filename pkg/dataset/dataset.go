package dataset

import (
	"time"

	"github.com/mlopslite/mlopslite/pkg/contract"
	"github.com/mlopslite/mlopslite/pkg/digest"
	"github.com/mlopslite/mlopslite/pkg/frame"
)

// Metadata is everything the registry knows about a dataset besides its data.
// ID, Version and CreatedAt are zero until the dataset has been stored.
type Metadata struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Version     int32          `json:"version"`
	Description string         `json:"description"`
	SizeRows    int            `json:"size_rows"`
	SizeCols    int            `json:"size_cols"`
	Hash        string         `json:"hash"`
	CreatedAt   time.Time      `json:"created_at"`
	Columns     []ColumnSchema `json:"columns,omitempty"`
}

// Registered reports whether the metadata was produced by the store.
func (m Metadata) Registered() bool {
	return m.ID != 0
}

// ConvertedTypes maps every column name to its primitive type.
func (m Metadata) ConvertedTypes() map[string]frame.Primitive {
	types := make(map[string]frame.Primitive, len(m.Columns))
	for _, column := range m.Columns {
		types[column.ColumnName] = column.ConvertedType
	}

	return types
}

func (m Metadata) ColumnNames() []string {
	names := make([]string, len(m.Columns))
	for i, column := range m.Columns {
		names[i] = column.ColumnName
	}

	return names
}

func (m Metadata) Column(name string) (ColumnSchema, bool) {
	for _, column := range m.Columns {
		if column.ColumnName == name {
			return column, true
		}
	}

	return ColumnSchema{}, false
}

// Dataset pairs tabular data with its metadata and its encoded canonical form.
type Dataset struct {
	Data     *frame.Frame
	Metadata Metadata
	encoded  []byte
}

// New profiles every column of data and computes the content hash. The
// returned dataset is unregistered.
func New(data *frame.Frame, name, description string) (*Dataset, error) {
	if name == "" {
		return nil, contract.NewError(contract.ErrorCodeInvalidParameterValue, "dataset name must not be empty")
	}

	if data == nil || data.NumCols() == 0 {
		return nil, contract.NewError(contract.ErrorCodeInvalidParameterValue, "dataset must have at least one column")
	}

	columns := make([]ColumnSchema, 0, data.NumCols())
	for _, column := range data.Columns() {
		schema, err := Profile(column)
		if err != nil {
			return nil, err
		}

		columns = append(columns, schema)
	}

	metadata := Metadata{
		Name:        name,
		Description: description,
		SizeRows:    data.NumRows(),
		SizeCols:    data.NumCols(),
		Columns:     columns,
	}

	canonical, err := ToCanonical(data, metadata.ConvertedTypes())
	if err != nil {
		return nil, err
	}

	encoded, err := EncodeCanonical(canonical)
	if err != nil {
		return nil, contract.NewErrorWith(contract.ErrorCodeInvalidParameterValue, "failed to encode dataset", err)
	}

	metadata.Hash = digest.Sum(encoded)

	return &Dataset{Data: data, Metadata: metadata, encoded: encoded}, nil
}

// Restore rebuilds a dataset from stored metadata and its encoded canonical form.
func Restore(metadata Metadata, encoded []byte) (*Dataset, error) {
	canonical, err := DecodeCanonical(encoded)
	if err != nil {
		return nil, contract.NewErrorWith(contract.ErrorCodeInternalError, "stored dataset is corrupt", err)
	}

	data, err := FromCanonical(canonical, metadata.Columns)
	if err != nil {
		return nil, err
	}

	return &Dataset{Data: data, Metadata: metadata, encoded: encoded}, nil
}

// Encoded returns the canonical encoding the hash was computed over.
func (d *Dataset) Encoded() []byte {
	return d.encoded
}

// Canonical returns the portable column oriented form of the data.
func (d *Dataset) Canonical() (Canonical, error) {
	return DecodeCanonical(d.encoded)
}

package store

import (
	"context"

	"github.com/mlopslite/mlopslite/pkg/dataset"
	"github.com/mlopslite/mlopslite/pkg/deployable"
	"github.com/mlopslite/mlopslite/pkg/execution"
)

// Reference identifies a stored dataset or deployable.
type Reference struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Version int32  `json:"version"`
	Hash    string `json:"hash"`
}

// DeployableRecord is a stored deployable before its pipeline is deserialized.
type DeployableRecord struct {
	Metadata deployable.Metadata
	Artifact []byte
}

type RegistryStore interface {
	// Returns nil without error when no dataset has the hash.
	GetDatasetReferenceByHash(ctx context.Context, hash string) (*Reference, error)
	NextDatasetVersion(ctx context.Context, name string) (int32, error)
	// InsertDataset writes the dataset and its columns with the next free
	// version. created is false when a dataset with the same hash already exists.
	InsertDataset(ctx context.Context, ds *dataset.Dataset) (ref *Reference, created bool, err error)
	// The dataset should contain its columns in their original order.
	GetDataset(ctx context.Context, id int64) (*dataset.Dataset, error)
	SearchDatasets(
		ctx context.Context, filter string, maxResults int, pageToken string,
	) (*PagedList[dataset.Metadata], error)
	DeleteDataset(ctx context.Context, id int64) error

	GetDeployableReferenceByHash(ctx context.Context, hash string) (*Reference, error)
	NextDeployableVersion(ctx context.Context, name string, datasetID int64, target string) (int32, error)
	InsertDeployable(ctx context.Context, d *deployable.Deployable) (ref *Reference, created bool, err error)
	GetDeployable(ctx context.Context, id int64) (*DeployableRecord, error)
	SearchDeployables(
		ctx context.Context, filter string, maxResults int, pageToken string,
	) (*PagedList[deployable.Metadata], error)

	AppendExecutionLog(ctx context.Context, log *execution.Log) (int64, error)
	// The log should contain all items and fields.
	GetExecutionLog(ctx context.Context, id int64) (*execution.Log, error)
	// Fails with RESOURCE_DOES_NOT_EXIST when the deployable is unknown.
	ListExecutionLogs(
		ctx context.Context, deployableID int64, maxResults int, pageToken string,
	) (*PagedList[execution.Log], error)

	Close() error
}

type PagedList[T any] struct {
	Items         []T     `json:"items"`
	NextPageToken *string `json:"next_page_token,omitempty"`
}

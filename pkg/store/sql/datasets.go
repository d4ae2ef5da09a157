package sql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mlopslite/mlopslite/pkg/contract"
	"github.com/mlopslite/mlopslite/pkg/dataset"
	"github.com/mlopslite/mlopslite/pkg/store"
	"github.com/mlopslite/mlopslite/pkg/store/sql/model"
)

func datasetReferenceByHash(transaction *gorm.DB, hash string) (*store.Reference, error) {
	var row model.Dataset

	err := transaction.
		Select("id", "name", "version", "hash").
		Where("hash = ?", hash).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return &store.Reference{ID: row.ID, Name: row.Name, Version: row.Version, Hash: row.Hash}, nil
}

func (s *Store) GetDatasetReferenceByHash(ctx context.Context, hash string) (*store.Reference, error) {
	defer observe("get_dataset_reference")()

	ref, err := datasetReferenceByHash(s.db.WithContext(ctx), hash)
	if err != nil {
		return nil, contract.NewErrorWith(contract.ErrorCodeInternalError, "failed to look up dataset hash", err)
	}

	return ref, nil
}

func (s *Store) NextDatasetVersion(ctx context.Context, name string) (int32, error) {
	version, err := nextVersion(s.db.WithContext(ctx), "dataset", "name = ?", name)
	if err != nil {
		return 0, contract.NewErrorWith(contract.ErrorCodeInternalError, "failed to get next dataset version", err)
	}

	return version, nil
}

func (s *Store) InsertDataset(ctx context.Context, ds *dataset.Dataset) (*store.Reference, bool, error) {
	defer observe("insert_dataset")()

	if ds == nil || ds.Metadata.Hash == "" {
		return nil, false, contract.NewError(contract.ErrorCodeInvalidParameterValue, "dataset has not been profiled")
	}

	return s.insertWithRetry(ctx, "dataset", func(transaction *gorm.DB) (*store.Reference, bool, error) {
		existing, err := datasetReferenceByHash(transaction, ds.Metadata.Hash)
		if err != nil || existing != nil {
			return existing, false, err
		}

		version, err := nextVersion(transaction, "dataset", "name = ?", ds.Metadata.Name)
		if err != nil {
			return nil, false, err
		}

		row := model.NewDatasetFromDomain(ds, version, s.now())
		if err := transaction.Create(&row).Error; err != nil {
			return nil, false, err //nolint:wrapcheck
		}

		return &store.Reference{ID: row.ID, Name: row.Name, Version: row.Version, Hash: row.Hash}, true, nil
	})
}

func orderColumns(db *gorm.DB) *gorm.DB {
	return db.Order("dataset_column.id")
}

func (s *Store) GetDataset(ctx context.Context, id int64) (*dataset.Dataset, error) {
	defer observe("get_dataset")()

	var row model.Dataset
	if err := s.db.WithContext(ctx).Preload("Columns", orderColumns).Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, notFound("dataset", id, err)
	}

	return dataset.Restore(row.ToMetadata(), row.Data)
}

func (s *Store) SearchDatasets(
	ctx context.Context, filter string, maxResults int, pageToken string,
) (*store.PagedList[dataset.Metadata], error) {
	defer observe("search_datasets")()

	transaction := s.db.WithContext(ctx).Model(&model.Dataset{}).Select(
		"dataset.id", "dataset.name", "dataset.version", "dataset.description",
		"dataset.size_rows", "dataset.size_cols", "dataset.hash", "dataset.created_at",
	)

	offset, contractError := paginate(transaction, maxResults, pageToken)
	if contractError != nil {
		return nil, contractError
	}

	if contractError := s.applyDatasetFilters(transaction, filter); contractError != nil {
		return nil, contractError
	}

	var rows []model.Dataset
	if err := transaction.Preload("Columns", orderColumns).Order("dataset.id").Find(&rows).Error; err != nil {
		return nil, contract.NewErrorWith(contract.ErrorCodeInternalError, "failed to search datasets", err)
	}

	items := make([]dataset.Metadata, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.ToMetadata())
	}

	nextPageToken, contractError := mkNextPageToken(len(rows), maxResults, offset)
	if contractError != nil {
		return nil, contractError
	}

	return &store.PagedList[dataset.Metadata]{Items: items, NextPageToken: nextPageToken}, nil
}

// DeleteDataset removes a dataset and its columns. Datasets that deployables
// are bound to cannot be deleted.
func (s *Store) DeleteDataset(ctx context.Context, id int64) error {
	defer observe("delete_dataset")()

	return s.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		var row model.Dataset
		if err := transaction.Select("id").Where("id = ?", id).Take(&row).Error; err != nil {
			return notFound("dataset", id, err)
		}

		var bound int64
		if err := transaction.Model(&model.Deployable{}).Where("dataset_id = ?", id).Count(&bound).Error; err != nil {
			return contract.NewErrorWith(contract.ErrorCodeInternalError, "failed to count bound deployables", err)
		}

		if bound > 0 {
			return contract.Errorf(
				contract.ErrorCodeInvalidState,
				"dataset with id=%d is bound to %d deployable(s) and cannot be deleted", id, bound,
			)
		}

		if err := transaction.Where("dataset_id = ?", id).Delete(&model.DatasetColumn{}).Error; err != nil {
			return contract.NewErrorWith(contract.ErrorCodeInternalError, "failed to delete dataset columns", err)
		}

		if err := transaction.Where("id = ?", id).Delete(&model.Dataset{}).Error; err != nil {
			return contract.NewErrorWith(contract.ErrorCodeInternalError, "failed to delete dataset", err)
		}

		return nil
	})
}

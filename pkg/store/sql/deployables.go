package sql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mlopslite/mlopslite/pkg/contract"
	"github.com/mlopslite/mlopslite/pkg/deployable"
	"github.com/mlopslite/mlopslite/pkg/store"
	"github.com/mlopslite/mlopslite/pkg/store/sql/model"
)

const deployableKey = "name = ? AND dataset_id = ? AND target = ?"

func deployableReferenceByHash(transaction *gorm.DB, hash string) (*store.Reference, error) {
	var row model.Deployable

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

func (s *Store) GetDeployableReferenceByHash(ctx context.Context, hash string) (*store.Reference, error) {
	defer observe("get_deployable_reference")()

	ref, err := deployableReferenceByHash(s.db.WithContext(ctx), hash)
	if err != nil {
		return nil, contract.NewErrorWith(contract.ErrorCodeInternalError, "failed to look up deployable hash", err)
	}

	return ref, nil
}

func (s *Store) NextDeployableVersion(ctx context.Context, name string, datasetID int64, target string) (int32, error) {
	version, err := nextVersion(s.db.WithContext(ctx), "deployable", deployableKey, name, datasetID, target)
	if err != nil {
		return 0, contract.NewErrorWith(contract.ErrorCodeInternalError, "failed to get next deployable version", err)
	}

	return version, nil
}

func (s *Store) InsertDeployable(ctx context.Context, d *deployable.Deployable) (*store.Reference, bool, error) {
	defer observe("insert_deployable")()

	if d == nil || d.Metadata.Hash == "" {
		return nil, false, contract.NewError(contract.ErrorCodeInvalidParameterValue, "deployable has no artifact hash")
	}

	meta := d.Metadata

	var bound int64
	if err := s.db.WithContext(ctx).Model(&model.Dataset{}).Where("id = ?", meta.DatasetID).Count(&bound).Error; err != nil {
		return nil, false, contract.NewErrorWith(contract.ErrorCodeInternalError, "failed to look up bound dataset", err)
	}

	if bound == 0 {
		return nil, false, contract.Errorf(
			contract.ErrorCodeInvalidParameterValue, "dataset with id=%d is not registered", meta.DatasetID,
		)
	}

	return s.insertWithRetry(ctx, "deployable", func(transaction *gorm.DB) (*store.Reference, bool, error) {
		existing, err := deployableReferenceByHash(transaction, meta.Hash)
		if err != nil || existing != nil {
			return existing, false, err
		}

		version, err := nextVersion(transaction, "deployable", deployableKey, meta.Name, meta.DatasetID, meta.Target)
		if err != nil {
			return nil, false, err
		}

		row, err := model.NewDeployableFromDomain(d, version, s.now())
		if err != nil {
			return nil, false, err //nolint:wrapcheck
		}

		if err := transaction.Omit(clause.Associations).Create(&row).Error; err != nil {
			return nil, false, err //nolint:wrapcheck
		}

		return &store.Reference{ID: row.ID, Name: row.Name, Version: row.Version, Hash: row.Hash}, true, nil
	})
}

func (s *Store) GetDeployable(ctx context.Context, id int64) (*store.DeployableRecord, error) {
	defer observe("get_deployable")()

	var row model.Deployable
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, notFound("deployable", id, err)
	}

	metadata, err := row.ToMetadata()
	if err != nil {
		return nil, contract.NewErrorWith(contract.ErrorCodeInternalError, "stored deployable is corrupt", err)
	}

	return &store.DeployableRecord{Metadata: metadata, Artifact: row.Artifact}, nil
}

func (s *Store) SearchDeployables(
	ctx context.Context, filter string, maxResults int, pageToken string,
) (*store.PagedList[deployable.Metadata], error) {
	defer observe("search_deployables")()

	transaction := s.db.WithContext(ctx).Model(&model.Deployable{}).Select(
		"deployable.id", "deployable.dataset_id", "deployable.name", "deployable.version",
		"deployable.target", "deployable.target_mapping", "deployable.description",
		"deployable.estimator_type", "deployable.estimator_class", "deployable.variables",
		"deployable.hash", "deployable.created_at",
	)

	offset, contractError := paginate(transaction, maxResults, pageToken)
	if contractError != nil {
		return nil, contractError
	}

	if contractError := s.applyDeployableFilters(transaction, filter); contractError != nil {
		return nil, contractError
	}

	var rows []model.Deployable
	if err := transaction.Order("deployable.id").Find(&rows).Error; err != nil {
		return nil, contract.NewErrorWith(contract.ErrorCodeInternalError, "failed to search deployables", err)
	}

	items := make([]deployable.Metadata, 0, len(rows))

	for _, row := range rows {
		metadata, err := row.ToMetadata()
		if err != nil {
			return nil, contract.NewErrorWith(contract.ErrorCodeInternalError, "stored deployable is corrupt", err)
		}

		items = append(items, metadata)
	}

	nextPageToken, contractError := mkNextPageToken(len(rows), maxResults, offset)
	if contractError != nil {
		return nil, contractError
	}

	return &store.PagedList[deployable.Metadata]{Items: items, NextPageToken: nextPageToken}, nil
}

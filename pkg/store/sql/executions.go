package sql

import (
	"context"

	"gorm.io/gorm"

	"github.com/mlopslite/mlopslite/pkg/contract"
	"github.com/mlopslite/mlopslite/pkg/execution"
	"github.com/mlopslite/mlopslite/pkg/store"
	"github.com/mlopslite/mlopslite/pkg/store/sql/model"
)

const batchSize = 100

// AppendExecutionLog writes the log, its items and their fields in one transaction.
func (s *Store) AppendExecutionLog(ctx context.Context, log *execution.Log) (int64, error) {
	defer observe("append_execution_log")()

	row := model.NewExecutionLogFromDomain(log)

	if err := s.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		var exists int64
		if err := transaction.Model(&model.Deployable{}).Where("id = ?", row.DeployableID).Count(&exists).Error; err != nil {
			return contract.NewErrorWith(contract.ErrorCodeInternalError, "failed to look up deployable", err)
		}

		if exists == 0 {
			return contract.Errorf(contract.ErrorCodeResourceDoesNotExist, "deployable with id=%d not found", row.DeployableID)
		}

		if err := transaction.Omit("Deployable").Session(&gorm.Session{CreateBatchSize: batchSize}).
			Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return contract.NewErrorWith(
					contract.ErrorCodeResourceAlreadyExists,
					"execution log for request "+row.RequestID+" already exists",
					err,
				)
			}

			return contract.NewErrorWith(contract.ErrorCodeInternalError, "failed to write execution log", err)
		}

		return nil
	}); err != nil {
		return 0, err //nolint:wrapcheck
	}

	return row.ID, nil
}

func orderFields(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}

func (s *Store) GetExecutionLog(ctx context.Context, id int64) (*execution.Log, error) {
	defer observe("get_execution_log")()

	var row model.ExecutionLog
	if err := s.db.WithContext(ctx).
		Preload("Items", orderFields).
		Preload("Items.RequestFields", orderFields).
		Preload("Items.ResponseFields", orderFields).
		Where("id = ?", id).
		Take(&row).Error; err != nil {
		return nil, notFound("execution log", id, err)
	}

	log := row.ToDomain()

	return &log, nil
}

// ListExecutionLogs pages through the logs of a deployable, which must exist,
// without their items.
func (s *Store) ListExecutionLogs(
	ctx context.Context, deployableID int64, maxResults int, pageToken string,
) (*store.PagedList[execution.Log], error) {
	defer observe("list_execution_logs")()

	var owner model.Deployable
	if err := s.db.WithContext(ctx).Select("id").Where("id = ?", deployableID).Take(&owner).Error; err != nil {
		return nil, notFound("deployable", deployableID, err)
	}

	transaction := s.db.WithContext(ctx).Model(&model.ExecutionLog{}).Where("deployable_id = ?", deployableID)

	offset, contractError := paginate(transaction, maxResults, pageToken)
	if contractError != nil {
		return nil, contractError
	}

	var rows []model.ExecutionLog
	if err := transaction.Order("id").Find(&rows).Error; err != nil {
		return nil, contract.NewErrorWith(contract.ErrorCodeInternalError, "failed to list execution logs", err)
	}

	items := make([]execution.Log, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.ToDomain())
	}

	nextPageToken, contractError := mkNextPageToken(len(rows), maxResults, offset)
	if contractError != nil {
		return nil, contractError
	}

	return &store.PagedList[execution.Log]{Items: items, NextPageToken: nextPageToken}, nil
}

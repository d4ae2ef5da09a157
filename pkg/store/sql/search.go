package sql

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mlopslite/mlopslite/pkg/contract"
	"github.com/mlopslite/mlopslite/pkg/query"
	"github.com/mlopslite/mlopslite/pkg/query/parser"
	"github.com/mlopslite/mlopslite/pkg/utils"
)

type PageToken struct {
	Offset int32 `json:"offset"`
}

func getOffset(pageToken string) (int, *contract.Error) {
	if pageToken == "" {
		return 0, nil
	}

	var token PageToken
	if err := json.NewDecoder(
		base64.NewDecoder(base64.StdEncoding, strings.NewReader(pageToken)),
	).Decode(&token); err != nil || token.Offset < 0 {
		return 0, contract.NewErrorWith(
			contract.ErrorCodeInvalidParameterValue,
			fmt.Sprintf("invalid page_token: %q", pageToken),
			err,
		)
	}

	return int(token.Offset), nil
}

func mkNextPageToken(length, maxResults, offset int) (*string, *contract.Error) {
	if length != maxResults {
		return nil, nil
	}

	var token strings.Builder
	if err := json.NewEncoder(
		base64.NewEncoder(base64.StdEncoding, &token),
	).Encode(PageToken{
		Offset: int32(offset + maxResults),
	}); err != nil {
		return nil, contract.NewErrorWith(
			contract.ErrorCodeInternalError,
			"error encoding 'next_page_token' value",
			err,
		)
	}

	return utils.PtrTo(token.String()), nil
}

// paginate applies limit and offset and returns the decoded offset.
func paginate(transaction *gorm.DB, maxResults int, pageToken string) (int, *contract.Error) {
	if maxResults <= 0 {
		return 0, contract.Errorf(contract.ErrorCodeInvalidParameterValue, "max_results must be positive, got %d", maxResults)
	}

	offset, contractError := getOffset(pageToken)
	if contractError != nil {
		return 0, contractError
	}

	transaction.Limit(maxResults).Offset(offset)

	return offset, nil
}

// comparison returns the where clause for column and value, lowering both
// sides for ILIKE on databases that lack it.
func comparison(db *gorm.DB, column string, operator parser.OperatorKind, value any) (string, any) {
	if operator == parser.ILike && db.Dialector.Name() != "postgres" {
		if str, ok := value.(string); ok {
			value = strings.ToLower(str)
		}

		return fmt.Sprintf("LOWER(%s) LIKE ?", column), value
	}

	return fmt.Sprintf("%s %s ?", column, operator), value
}

func parseFilter(entity parser.Entity, filter string) ([]*parser.ValidCompareExpr, *contract.Error) {
	conditions, err := query.ParseFilter(entity, filter)
	if err != nil {
		return nil, contract.NewErrorWith(
			contract.ErrorCodeInvalidParameterValue,
			"error parsing search filter",
			err,
		)
	}

	return conditions, nil
}

func (s *Store) applyDatasetFilters(transaction *gorm.DB, filter string) *contract.Error {
	conditions, contractError := parseFilter(parser.DatasetEntity, filter)
	if contractError != nil {
		return contractError
	}

	for index, condition := range conditions {
		switch condition.Identifier {
		case parser.Column:
			// JOIN (
			//   SELECT dataset_id FROM dataset_column
			//   WHERE column_name = ? AND converted_type = ?
			// ) AS filter_0 ON dataset.id = filter_0.dataset_id
			table := fmt.Sprintf("filter_%d", index)
			where, value := comparison(s.db, "converted_type", condition.Operator, condition.Value)

			transaction.Joins(
				fmt.Sprintf("JOIN (?) AS %s ON dataset.id = %s.dataset_id", table, table),
				s.db.Table("dataset_column").Select("dataset_id").
					Where("column_name = ?", condition.Key).
					Where(where, value),
			)
		default:
			where, value := comparison(s.db, "dataset."+condition.Key, condition.Operator, condition.Value)
			transaction.Where(where, value)
		}
	}

	return nil
}

func (s *Store) applyDeployableFilters(transaction *gorm.DB, filter string) *contract.Error {
	conditions, contractError := parseFilter(parser.DeployableEntity, filter)
	if contractError != nil {
		return contractError
	}

	for index, condition := range conditions {
		switch condition.Identifier {
		case parser.BoundDataset:
			// JOIN (
			//   SELECT id AS dataset_ref FROM dataset WHERE name = ?
			// ) AS filter_0 ON deployable.dataset_id = filter_0.dataset_ref
			table := fmt.Sprintf("filter_%d", index)
			where, value := comparison(s.db, condition.Key, condition.Operator, condition.Value)

			transaction.Joins(
				fmt.Sprintf("JOIN (?) AS %s ON deployable.dataset_id = %s.dataset_ref", table, table),
				s.db.Table("dataset").Select("id AS dataset_ref").Where(where, value),
			)
		default:
			where, value := comparison(s.db, "deployable."+condition.Key, condition.Operator, condition.Value)
			transaction.Where(where, value)
		}
	}

	return nil
}

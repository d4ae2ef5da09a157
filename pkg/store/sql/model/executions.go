package model

import (
	"encoding/json"
	"time"

	"github.com/mlopslite/mlopslite/pkg/execution"
)

// ExecutionLog mapped from table <execution_log>.
type ExecutionLog struct {
	ID           int64           `db:"id"            gorm:"column:id;primaryKey;autoIncrement:true"`
	DeployableID int64           `db:"deployable_id" gorm:"column:deployable_id;not null;index"`
	RequestID    string          `db:"request_id"    gorm:"column:request_id;size:36;not null;uniqueIndex"`
	RequestTime  int64           `db:"request_time"  gorm:"column:request_time;not null"`
	RequestSize  int             `db:"request_size"  gorm:"column:request_size;not null"`
	Items        []ExecutionItem `gorm:"foreignKey:ExecutionLogID;constraint:OnDelete:CASCADE"`
	Deployable   Deployable      `gorm:"foreignKey:DeployableID;constraint:OnDelete:CASCADE"`
}

func (ExecutionLog) TableName() string {
	return "execution_log"
}

// ExecutionItem mapped from table <execution_item>.
type ExecutionItem struct {
	ID             int64           `db:"id"               gorm:"column:id;primaryKey;autoIncrement:true"`
	ExecutionLogID int64           `db:"execution_log_id" gorm:"column:execution_log_id;not null;index"`
	ReferenceID    string          `db:"reference_id"     gorm:"column:reference_id;size:255;not null"`
	RequestFields  []RequestField  `gorm:"foreignKey:ExecutionItemID;constraint:OnDelete:CASCADE"`
	ResponseFields []ResponseField `gorm:"foreignKey:ExecutionItemID;constraint:OnDelete:CASCADE"`
}

func (ExecutionItem) TableName() string {
	return "execution_item"
}

// RequestField mapped from table <request_field>.
type RequestField struct {
	ID              int64  `db:"id"                gorm:"column:id;primaryKey;autoIncrement:true"`
	ExecutionItemID int64  `db:"execution_item_id" gorm:"column:execution_item_id;not null;index"`
	VarName         string `db:"varname"           gorm:"column:varname;size:255;not null"`
	Value           string `db:"value"             gorm:"column:value;not null"`
}

func (RequestField) TableName() string {
	return "request_field"
}

// ResponseField mapped from table <response_field>.
type ResponseField struct {
	ID              int64   `db:"id"                gorm:"column:id;primaryKey;autoIncrement:true"`
	ExecutionItemID int64   `db:"execution_item_id" gorm:"column:execution_item_id;not null;index"`
	ClassLabel      *string `db:"class_label"       gorm:"column:class_label;size:255"`
	Value           string  `db:"value"             gorm:"column:value;not null"`
}

func (ResponseField) TableName() string {
	return "response_field"
}

// ToDomain converts the row. Items are only included when they were loaded.
func (l ExecutionLog) ToDomain() execution.Log {
	var items []execution.Item
	if len(l.Items) > 0 {
		items = make([]execution.Item, len(l.Items))
	}

	for i, item := range l.Items {
		request := make([]execution.RequestField, len(item.RequestFields))
		for j, field := range item.RequestFields {
			request[j] = execution.RequestField{VarName: field.VarName, Value: json.RawMessage(field.Value)}
		}

		response := make([]execution.ResponseField, len(item.ResponseFields))
		for j, field := range item.ResponseFields {
			response[j] = execution.ResponseField{ClassLabel: field.ClassLabel, Value: json.RawMessage(field.Value)}
		}

		items[i] = execution.Item{
			ID:          item.ID,
			ReferenceID: item.ReferenceID,
			Request:     request,
			Response:    response,
		}
	}

	return execution.Log{
		ID:           l.ID,
		DeployableID: l.DeployableID,
		RequestID:    l.RequestID,
		RequestTime:  time.UnixMilli(l.RequestTime).UTC(),
		RequestSize:  l.RequestSize,
		Items:        items,
	}
}

func NewExecutionLogFromDomain(log *execution.Log) ExecutionLog {
	items := make([]ExecutionItem, len(log.Items))

	for i, item := range log.Items {
		request := make([]RequestField, len(item.Request))
		for j, field := range item.Request {
			request[j] = RequestField{VarName: field.VarName, Value: string(field.Value)}
		}

		response := make([]ResponseField, len(item.Response))
		for j, field := range item.Response {
			response[j] = ResponseField{ClassLabel: field.ClassLabel, Value: string(field.Value)}
		}

		items[i] = ExecutionItem{ReferenceID: item.ReferenceID, RequestFields: request, ResponseFields: response}
	}

	return ExecutionLog{
		DeployableID: log.DeployableID,
		RequestID:    log.RequestID,
		RequestTime:  log.RequestTime.UnixMilli(),
		RequestSize:  log.RequestSize,
		Items:        items,
	}
}

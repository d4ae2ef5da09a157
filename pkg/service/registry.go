package service

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/mlopslite/mlopslite/pkg/config"
	"github.com/mlopslite/mlopslite/pkg/dataset"
	"github.com/mlopslite/mlopslite/pkg/deployable"
	"github.com/mlopslite/mlopslite/pkg/execution"
	"github.com/mlopslite/mlopslite/pkg/frame"
	"github.com/mlopslite/mlopslite/pkg/monitoring"
	"github.com/mlopslite/mlopslite/pkg/store"
	"github.com/mlopslite/mlopslite/pkg/utils"
)

const cacheCleanupInterval = 10 * time.Minute

// RegistryService orchestrates registration, lookup and prediction over a store.
type RegistryService struct {
	config     *config.Config
	logger     *logrus.Logger
	store      store.RegistryStore
	manager    *deployable.Manager
	executions *execution.Logger
	cache      *gocache.Cache
	requestID  func() string
}

func NewRegistryService(
	cfg *config.Config, logger *logrus.Logger, registry store.RegistryStore, codec deployable.Codec,
) *RegistryService {
	return &RegistryService{
		config:     cfg,
		logger:     logger,
		store:      registry,
		manager:    deployable.NewManager(codec),
		executions: execution.NewLogger(registry),
		cache:      gocache.New(cfg.DeployableCacheTTL.Duration, cacheCleanupInterval),
		requestID:  uuid.NewString,
	}
}

// WithRequestIDs replaces the request id generator, mainly for tests.
func (s *RegistryService) WithRequestIDs(next func() string) *RegistryService {
	s.requestID = next

	return s
}

func (s *RegistryService) Close() error {
	s.cache.Flush()

	return s.store.Close()
}

func (s *RegistryService) pageSize(maxResults int) int {
	if maxResults <= 0 {
		return s.config.MaxResults
	}

	return maxResults
}

func outcome(created bool) string {
	if created {
		return monitoring.OutcomeCreated
	}

	return monitoring.OutcomeExisting
}

// PushDataset profiles and stores data without reloading it. An existing
// dataset with the same content is returned as is.
func (s *RegistryService) PushDataset(
	ctx context.Context, data *frame.Frame, name, description string,
) (*store.Reference, error) {
	ds, err := dataset.New(data, name, description)
	if err != nil {
		monitoring.RecordRegistration("dataset", monitoring.OutcomeRejected)

		return nil, err
	}

	ref, created, err := s.store.InsertDataset(ctx, ds)
	if err != nil {
		return nil, err
	}

	monitoring.RecordRegistration("dataset", outcome(created))
	s.logger.WithFields(logrus.Fields{
		"dataset_id": ref.ID,
		"name":       ref.Name,
		"version":    ref.Version,
		"created":    created,
	}).Info("dataset pushed")

	return ref, nil
}

// RegisterDataset pushes data and reloads the stored dataset.
func (s *RegistryService) RegisterDataset(
	ctx context.Context, data *frame.Frame, name, description string,
) (*dataset.Dataset, error) {
	ref, err := s.PushDataset(ctx, data, name, description)
	if err != nil {
		return nil, err
	}

	return s.store.GetDataset(ctx, ref.ID)
}

func (s *RegistryService) LoadDataset(ctx context.Context, id int64) (*dataset.Dataset, error) {
	return s.store.GetDataset(ctx, id)
}

func (s *RegistryService) SearchDatasets(
	ctx context.Context, filter string, maxResults int, pageToken string,
) (*store.PagedList[dataset.Metadata], error) {
	return s.store.SearchDatasets(ctx, filter, s.pageSize(maxResults), pageToken)
}

func (s *RegistryService) DeleteDataset(ctx context.Context, id int64) error {
	if err := s.store.DeleteDataset(ctx, id); err != nil {
		return err
	}

	s.logger.WithField("dataset_id", id).Info("dataset deleted")

	return nil
}

// PushDeployable binds pipeline to the stored dataset and stores it without reloading.
func (s *RegistryService) PushDeployable(
	ctx context.Context,
	pipeline deployable.Pipeline,
	datasetID int64,
	name, target string,
	opts ...deployable.CreateOption,
) (*store.Reference, error) {
	ds, err := s.store.GetDataset(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	d, err := s.manager.Create(pipeline, ds, name, target, opts...)
	if err != nil {
		monitoring.RecordRegistration("deployable", monitoring.OutcomeRejected)

		return nil, err
	}

	ref, created, err := s.store.InsertDeployable(ctx, d)
	if err != nil {
		return nil, err
	}

	monitoring.RecordRegistration("deployable", outcome(created))
	s.logger.WithFields(logrus.Fields{
		"deployable_id": ref.ID,
		"dataset_id":    datasetID,
		"name":          ref.Name,
		"version":       ref.Version,
		"created":       created,
	}).Info("deployable pushed")

	return ref, nil
}

// RegisterDeployable pushes the pipeline and reloads the stored deployable.
func (s *RegistryService) RegisterDeployable(
	ctx context.Context,
	pipeline deployable.Pipeline,
	datasetID int64,
	name, target string,
	opts ...deployable.CreateOption,
) (*deployable.Deployable, error) {
	ref, err := s.PushDeployable(ctx, pipeline, datasetID, name, target, opts...)
	if err != nil {
		return nil, err
	}

	return s.LoadDeployable(ctx, ref.ID)
}

// LoadDeployable restores a stored deployable. Restored deployables are cached by id.
func (s *RegistryService) LoadDeployable(ctx context.Context, id int64) (*deployable.Deployable, error) {
	key := strconv.FormatInt(id, 10)

	if cached, found := s.cache.Get(key); found {
		if d, ok := cached.(*deployable.Deployable); ok {
			monitoring.RecordCacheLookup(true)

			return d, nil
		}
	}

	monitoring.RecordCacheLookup(false)

	record, err := s.store.GetDeployable(ctx, id)
	if err != nil {
		return nil, err
	}

	d, err := s.manager.Restore(record.Metadata, record.Artifact)
	if err != nil {
		return nil, err
	}

	s.cache.SetDefault(key, d)

	return d, nil
}

func (s *RegistryService) SearchDeployables(
	ctx context.Context, filter string, maxResults int, pageToken string,
) (*store.PagedList[deployable.Metadata], error) {
	return s.store.SearchDeployables(ctx, filter, s.pageSize(maxResults), pageToken)
}

// Prediction is the outcome of one predict call.
type Prediction struct {
	RequestID      string              `json:"request_id"`
	Results        []deployable.Result `json:"results"`
	ExecutionLogID *int64              `json:"execution_log_id,omitempty"`
}

// Predict scores records with the deployable. When logging is requested, or
// enabled in the configuration when logExecution is nil, the call is written
// to the execution log. A logging failure does not fail the prediction.
func (s *RegistryService) Predict(
	ctx context.Context, id int64, records []deployable.Record, logExecution *bool,
) (*Prediction, error) {
	d, err := s.LoadDeployable(ctx, id)
	if err != nil {
		return nil, err
	}

	requestID := s.requestID()
	ctx = utils.WithRequestID(ctx, requestID)

	results, err := d.Predict(records)
	if err != nil {
		monitoring.RecordPrediction(len(records), false)

		return nil, err
	}

	monitoring.RecordPrediction(len(records), true)

	prediction := &Prediction{RequestID: requestID, Results: results}

	if utils.ValueOr(logExecution, s.config.ExecutionLogging) {
		prediction.ExecutionLogID = s.logExecution(ctx, id, requestID, records, results)
	}

	return prediction, nil
}

func (s *RegistryService) logExecution(
	ctx context.Context, id int64, requestID string, records []deployable.Record, results []deployable.Result,
) *int64 {
	log, err := s.executions.Log(context.WithoutCancel(ctx), id, requestID, records, results)
	if err != nil {
		monitoring.RecordExecutionLogFailure()
		s.logger.WithFields(logrus.Fields{
			"deployable_id": id,
			"request_id":    requestID,
		}).WithError(err).Warn("failed to write execution log")

		return nil
	}

	return &log.ID
}

func (s *RegistryService) GetExecutionLog(ctx context.Context, id int64) (*execution.Log, error) {
	return s.store.GetExecutionLog(ctx, id)
}

// ListExecutionLogs pages through the logs of a deployable, which must exist.
func (s *RegistryService) ListExecutionLogs(
	ctx context.Context, deployableID int64, maxResults int, pageToken string,
) (*store.PagedList[execution.Log], error) {
	return s.store.ListExecutionLogs(ctx, deployableID, s.pageSize(maxResults), pageToken)
}

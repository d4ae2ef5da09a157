package server

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mlopslite/mlopslite/pkg/contract"
	"github.com/mlopslite/mlopslite/pkg/dataset"
	"github.com/mlopslite/mlopslite/pkg/deployable"
	"github.com/mlopslite/mlopslite/pkg/deployable/estimator"
	"github.com/mlopslite/mlopslite/pkg/frame"
	"github.com/mlopslite/mlopslite/pkg/service"
)

type ColumnInput struct {
	Name   string `json:"name"   validate:"required"`
	DType  string `json:"dtype"  validate:"required,dtype"`
	Values []any  `json:"values"`
}

type RegisterDataset struct {
	Name        string        `json:"name"        validate:"required,artifactName"`
	Description string        `json:"description"`
	Columns     []ColumnInput `json:"columns"     validate:"required,min=1,dive"`
}

type RegisterDeployable struct {
	Name          string            `json:"name"           validate:"required,artifactName"`
	DatasetID     int64             `json:"dataset_id"     validate:"required,gt=0"`
	Target        string            `json:"target"         validate:"required"`
	TargetMapping map[string]string `json:"target_mapping"`
	Description   string            `json:"description"`
	Pipeline      map[string]any    `json:"pipeline"       validate:"required"`
}

type Predict struct {
	Rows []deployable.Record `json:"rows" validate:"required,min=1"`
	Log  *bool               `json:"log"`
}

type Search struct {
	Filter     string `query:"filter"`
	MaxResults int    `query:"max_results" validate:"gte=0,lte=50000"`
	PageToken  string `query:"page_token"`
}

type ByID struct {
	ID string `params:"id" validate:"stringAsPositiveInteger"`
}

// DatasetResponse carries the metadata and the canonical data of a dataset.
type DatasetResponse struct {
	dataset.Metadata
	Data dataset.Canonical `json:"data"`
}

type DeployableResponse struct {
	deployable.Metadata
	Pipeline map[string]any `json:"pipeline,omitempty"`
}

type handlers struct {
	service *service.RegistryService
	parser  contract.HTTPRequestParser
}

func (h *handlers) id(c *fiber.Ctx) (int64, error) {
	var input ByID
	if err := h.parser.ParseParams(c, &input); err != nil {
		return 0, err
	}

	id, err := frame.AsInt64(input.ID)
	if err != nil {
		return 0, contract.NewErrorWith(contract.ErrorCodeInvalidParameterValue, "invalid id "+input.ID, err)
	}

	return id, nil
}

func toFrame(columns []ColumnInput) (*frame.Frame, error) {
	out := make([]frame.Column, len(columns))

	for i, column := range columns {
		dtype, err := frame.ParseDType(column.DType)
		if err != nil {
			return nil, err
		}

		out[i] = frame.Column{Name: column.Name, DType: dtype, Values: column.Values}
	}

	data, err := frame.New(out...)
	if err != nil {
		return nil, contract.NewErrorWith(contract.ErrorCodeInvalidParameterValue, "invalid columns", err)
	}

	return data, nil
}

func datasetResponse(ds *dataset.Dataset) (*DatasetResponse, error) {
	canonical, err := ds.Canonical()
	if err != nil {
		return nil, contract.NewErrorWith(contract.ErrorCodeInternalError, "failed to decode dataset", err)
	}

	return &DatasetResponse{Metadata: ds.Metadata, Data: canonical}, nil
}

func deployableResponse(d *deployable.Deployable) *DeployableResponse {
	response := &DeployableResponse{Metadata: d.Metadata}
	if pipeline, ok := d.Pipeline.(*estimator.Pipeline); ok {
		response.Pipeline = pipeline.Spec()
	}

	return response
}

func (h *handlers) registerDataset(c *fiber.Ctx) error {
	var input RegisterDataset
	if err := h.parser.ParseBody(c, &input); err != nil {
		return err
	}

	data, err := toFrame(input.Columns)
	if err != nil {
		return err
	}

	ds, err := h.service.RegisterDataset(c.UserContext(), data, input.Name, input.Description)
	if err != nil {
		return err
	}

	response, err := datasetResponse(ds)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(response)
}

func (h *handlers) searchDatasets(c *fiber.Ctx) error {
	var input Search
	if err := h.parser.ParseQuery(c, &input); err != nil {
		return err
	}

	page, err := h.service.SearchDatasets(c.UserContext(), input.Filter, input.MaxResults, input.PageToken)
	if err != nil {
		return err
	}

	return c.JSON(page)
}

func (h *handlers) getDataset(c *fiber.Ctx) error {
	id, err := h.id(c)
	if err != nil {
		return err
	}

	ds, err := h.service.LoadDataset(c.UserContext(), id)
	if err != nil {
		return err
	}

	response, err := datasetResponse(ds)
	if err != nil {
		return err
	}

	return c.JSON(response)
}

func (h *handlers) deleteDataset(c *fiber.Ctx) error {
	id, err := h.id(c)
	if err != nil {
		return err
	}

	if err := h.service.DeleteDataset(c.UserContext(), id); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handlers) registerDeployable(c *fiber.Ctx) error {
	var input RegisterDeployable
	if err := h.parser.ParseBody(c, &input); err != nil {
		return err
	}

	pipeline, err := estimator.FromSpec(input.Pipeline)
	if err != nil {
		return contract.NewErrorWith(contract.ErrorCodeInvalidArtifact, "invalid pipeline", err)
	}

	opts := []deployable.CreateOption{deployable.WithDescription(input.Description)}
	if input.TargetMapping != nil {
		opts = append(opts, deployable.WithTargetMapping(input.TargetMapping))
	}

	d, err := h.service.RegisterDeployable(c.UserContext(), pipeline, input.DatasetID, input.Name, input.Target, opts...)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(deployableResponse(d))
}

func (h *handlers) searchDeployables(c *fiber.Ctx) error {
	var input Search
	if err := h.parser.ParseQuery(c, &input); err != nil {
		return err
	}

	page, err := h.service.SearchDeployables(c.UserContext(), input.Filter, input.MaxResults, input.PageToken)
	if err != nil {
		return err
	}

	return c.JSON(page)
}

func (h *handlers) getDeployable(c *fiber.Ctx) error {
	id, err := h.id(c)
	if err != nil {
		return err
	}

	d, err := h.service.LoadDeployable(c.UserContext(), id)
	if err != nil {
		return err
	}

	return c.JSON(deployableResponse(d))
}

func (h *handlers) predict(c *fiber.Ctx) error {
	id, err := h.id(c)
	if err != nil {
		return err
	}

	var input Predict
	if err := h.parser.ParseBody(c, &input); err != nil {
		return err
	}

	prediction, err := h.service.Predict(c.UserContext(), id, input.Rows, input.Log)
	if err != nil {
		return err
	}

	return c.JSON(prediction)
}

func (h *handlers) listExecutions(c *fiber.Ctx) error {
	id, err := h.id(c)
	if err != nil {
		return err
	}

	var input Search
	if err := h.parser.ParseQuery(c, &input); err != nil {
		return err
	}

	page, err := h.service.ListExecutionLogs(c.UserContext(), id, input.MaxResults, input.PageToken)
	if err != nil {
		return err
	}

	return c.JSON(page)
}

func (h *handlers) getExecution(c *fiber.Ctx) error {
	id, err := h.id(c)
	if err != nil {
		return err
	}

	log, err := h.service.GetExecutionLog(c.UserContext(), id)
	if err != nil {
		return err
	}

	return c.JSON(log)
}

// Endpoint is one route of the API.
type Endpoint struct {
	Method string
	Path   string
}

// Endpoints lists every route mounted under /api/1.0.
func Endpoints() []Endpoint {
	return []Endpoint{
		{Method: fiber.MethodPost, Path: "/datasets"},
		{Method: fiber.MethodGet, Path: "/datasets"},
		{Method: fiber.MethodGet, Path: "/datasets/:id"},
		{Method: fiber.MethodDelete, Path: "/datasets/:id"},
		{Method: fiber.MethodPost, Path: "/deployables"},
		{Method: fiber.MethodGet, Path: "/deployables"},
		{Method: fiber.MethodGet, Path: "/deployables/:id"},
		{Method: fiber.MethodPost, Path: "/deployables/:id/predict"},
		{Method: fiber.MethodGet, Path: "/deployables/:id/executions"},
		{Method: fiber.MethodGet, Path: "/executions/:id"},
	}
}

func registerRoutes(app fiber.Router, h *handlers) {
	routes := map[Endpoint]fiber.Handler{
		{Method: fiber.MethodPost, Path: "/datasets"}:                  h.registerDataset,
		{Method: fiber.MethodGet, Path: "/datasets"}:                   h.searchDatasets,
		{Method: fiber.MethodGet, Path: "/datasets/:id"}:               h.getDataset,
		{Method: fiber.MethodDelete, Path: "/datasets/:id"}:            h.deleteDataset,
		{Method: fiber.MethodPost, Path: "/deployables"}:               h.registerDeployable,
		{Method: fiber.MethodGet, Path: "/deployables"}:                h.searchDeployables,
		{Method: fiber.MethodGet, Path: "/deployables/:id"}:            h.getDeployable,
		{Method: fiber.MethodPost, Path: "/deployables/:id/predict"}:   h.predict,
		{Method: fiber.MethodGet, Path: "/deployables/:id/executions"}: h.listExecutions,
		{Method: fiber.MethodGet, Path: "/executions/:id"}:             h.getExecution,
	}

	for _, endpoint := range Endpoints() {
		app.Add(endpoint.Method, endpoint.Path, routes[endpoint])
	}
}

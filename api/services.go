package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// CollectionServiceAPI lists and reads collections.
type CollectionServiceAPI interface {
	ListCollections(ctx context.Context, p ListParams) (ListResponse[Collection], error)
	GetCollection(ctx context.Context, id string) (*Collection, error)
}

// DatasetServiceAPI lists and reads source datasets.
type DatasetServiceAPI interface {
	ListDatasets(ctx context.Context, p ListParams) (ListResponse[Dataset], error)
	GetDataset(ctx context.Context, id string) (*Dataset, error)
	GetDatasetStats(ctx context.Context, id string) (*DatasetStats, error)
}

// EmbeddingServiceAPI covers embedded datasets and their records.
type EmbeddingServiceAPI interface {
	ListEmbeddedDatasets(ctx context.Context, p ListParams) (ListResponse[EmbeddedDataset], error)
	GetEmbeddedDataset(ctx context.Context, id string) (*EmbeddedDataset, error)
	GetEmbeddingStats(ctx context.Context, id string) (*EmbeddingStats, error)
	ListRecords(ctx context.Context, id string, p ListParams) (ListResponse[Record], error)
	GetVector(ctx context.Context, id, recordID string) (*Vector, error)
	DeleteRecord(ctx context.Context, id, recordID string) error
}

// LLMConfigServiceAPI lists and reads language-model configurations.
type LLMConfigServiceAPI interface {
	ListLLMConfigs(ctx context.Context, p ListParams) (ListResponse[LLMConfig], error)
	GetLLMConfig(ctx context.Context, id string) (*LLMConfig, error)
}

// CollectionService implements CollectionServiceAPI over a Client.
type CollectionService struct{ c *Client }

// NewCollectionService returns a CollectionService.
func NewCollectionService(c *Client) *CollectionService { return &CollectionService{c: c} }

func (s *CollectionService) ListCollections(ctx context.Context, p ListParams) (ListResponse[Collection], error) {
	var out ListResponse[Collection]
	if err := s.c.do(ctx, http.MethodGet, "/api/v1/collections", p.query(), &out); err != nil {
		return out, fmt.Errorf("collections.list: %w", err)
	}
	return out, nil
}

func (s *CollectionService) GetCollection(ctx context.Context, id string) (*Collection, error) {
	var out Collection
	if err := s.c.do(ctx, http.MethodGet, "/api/v1/collections/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, fmt.Errorf("collections.get: %w", err)
	}
	return &out, nil
}

// DatasetService implements DatasetServiceAPI over a Client.
type DatasetService struct{ c *Client }

// NewDatasetService returns a DatasetService.
func NewDatasetService(c *Client) *DatasetService { return &DatasetService{c: c} }

func (s *DatasetService) ListDatasets(ctx context.Context, p ListParams) (ListResponse[Dataset], error) {
	var out ListResponse[Dataset]
	if err := s.c.do(ctx, http.MethodGet, "/api/v1/datasets", p.query(), &out); err != nil {
		return out, fmt.Errorf("datasets.list: %w", err)
	}
	return out, nil
}

func (s *DatasetService) GetDataset(ctx context.Context, id string) (*Dataset, error) {
	var out Dataset
	if err := s.c.do(ctx, http.MethodGet, "/api/v1/datasets/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, fmt.Errorf("datasets.get: %w", err)
	}
	return &out, nil
}

func (s *DatasetService) GetDatasetStats(ctx context.Context, id string) (*DatasetStats, error) {
	var out DatasetStats
	if err := s.c.do(ctx, http.MethodGet, "/api/v1/datasets/"+url.PathEscape(id)+"/stats", nil, &out); err != nil {
		return nil, fmt.Errorf("datasets.stats: %w", err)
	}
	return &out, nil
}

// EmbeddingService implements EmbeddingServiceAPI over a Client.
type EmbeddingService struct{ c *Client }

// NewEmbeddingService returns an EmbeddingService.
func NewEmbeddingService(c *Client) *EmbeddingService { return &EmbeddingService{c: c} }

func embeddedPath(id string) string {
	return "/api/v1/embedded-datasets/" + url.PathEscape(id)
}

func (s *EmbeddingService) ListEmbeddedDatasets(ctx context.Context, p ListParams) (ListResponse[EmbeddedDataset], error) {
	var out ListResponse[EmbeddedDataset]
	if err := s.c.do(ctx, http.MethodGet, "/api/v1/embedded-datasets", p.query(), &out); err != nil {
		return out, fmt.Errorf("embedded_datasets.list: %w", err)
	}
	return out, nil
}

func (s *EmbeddingService) GetEmbeddedDataset(ctx context.Context, id string) (*EmbeddedDataset, error) {
	var out EmbeddedDataset
	if err := s.c.do(ctx, http.MethodGet, embeddedPath(id), nil, &out); err != nil {
		return nil, fmt.Errorf("embedded_datasets.get: %w", err)
	}
	return &out, nil
}

func (s *EmbeddingService) GetEmbeddingStats(ctx context.Context, id string) (*EmbeddingStats, error) {
	var out EmbeddingStats
	if err := s.c.do(ctx, http.MethodGet, embeddedPath(id)+"/stats", nil, &out); err != nil {
		return nil, fmt.Errorf("embedded_datasets.stats: %w", err)
	}
	return &out, nil
}

func (s *EmbeddingService) ListRecords(ctx context.Context, id string, p ListParams) (ListResponse[Record], error) {
	var out ListResponse[Record]
	if err := s.c.do(ctx, http.MethodGet, embeddedPath(id)+"/records", p.query(), &out); err != nil {
		return out, fmt.Errorf("records.list: %w", err)
	}
	return out, nil
}

func (s *EmbeddingService) GetVector(ctx context.Context, id, recordID string) (*Vector, error) {
	var out Vector
	path := embeddedPath(id) + "/records/" + url.PathEscape(recordID) + "/vector"
	if err := s.c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("records.vector: %w", err)
	}
	return &out, nil
}

func (s *EmbeddingService) DeleteRecord(ctx context.Context, id, recordID string) error {
	path := embeddedPath(id) + "/records/" + url.PathEscape(recordID)
	if err := s.c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("records.delete: %w", err)
	}
	return nil
}

// LLMConfigService implements LLMConfigServiceAPI over a Client.
type LLMConfigService struct{ c *Client }

// NewLLMConfigService returns an LLMConfigService.
func NewLLMConfigService(c *Client) *LLMConfigService { return &LLMConfigService{c: c} }

func (s *LLMConfigService) ListLLMConfigs(ctx context.Context, p ListParams) (ListResponse[LLMConfig], error) {
	var out ListResponse[LLMConfig]
	if err := s.c.do(ctx, http.MethodGet, "/api/v1/llm-configs", p.query(), &out); err != nil {
		return out, fmt.Errorf("llm_configs.list: %w", err)
	}
	return out, nil
}

func (s *LLMConfigService) GetLLMConfig(ctx context.Context, id string) (*LLMConfig, error) {
	var out LLMConfig
	if err := s.c.do(ctx, http.MethodGet, "/api/v1/llm-configs/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, fmt.Errorf("llm_configs.get: %w", err)
	}
	return &out, nil
}

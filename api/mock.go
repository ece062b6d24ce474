package api

import "context"

// MockCollectionService is a CollectionServiceAPI for tests. Nil funcs
// return zero values.
type MockCollectionService struct {
	ListCollectionsFunc func(ctx context.Context, p ListParams) (ListResponse[Collection], error)
	GetCollectionFunc   func(ctx context.Context, id string) (*Collection, error)
}

func (m *MockCollectionService) ListCollections(ctx context.Context, p ListParams) (ListResponse[Collection], error) {
	if m.ListCollectionsFunc != nil {
		return m.ListCollectionsFunc(ctx, p)
	}
	return ListResponse[Collection]{}, nil
}

func (m *MockCollectionService) GetCollection(ctx context.Context, id string) (*Collection, error) {
	if m.GetCollectionFunc != nil {
		return m.GetCollectionFunc(ctx, id)
	}
	return nil, nil
}

// MockDatasetService is a DatasetServiceAPI for tests.
type MockDatasetService struct {
	ListDatasetsFunc    func(ctx context.Context, p ListParams) (ListResponse[Dataset], error)
	GetDatasetFunc      func(ctx context.Context, id string) (*Dataset, error)
	GetDatasetStatsFunc func(ctx context.Context, id string) (*DatasetStats, error)
}

func (m *MockDatasetService) ListDatasets(ctx context.Context, p ListParams) (ListResponse[Dataset], error) {
	if m.ListDatasetsFunc != nil {
		return m.ListDatasetsFunc(ctx, p)
	}
	return ListResponse[Dataset]{}, nil
}

func (m *MockDatasetService) GetDataset(ctx context.Context, id string) (*Dataset, error) {
	if m.GetDatasetFunc != nil {
		return m.GetDatasetFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockDatasetService) GetDatasetStats(ctx context.Context, id string) (*DatasetStats, error) {
	if m.GetDatasetStatsFunc != nil {
		return m.GetDatasetStatsFunc(ctx, id)
	}
	return nil, nil
}

// MockEmbeddingService is an EmbeddingServiceAPI for tests.
type MockEmbeddingService struct {
	ListEmbeddedDatasetsFunc func(ctx context.Context, p ListParams) (ListResponse[EmbeddedDataset], error)
	GetEmbeddedDatasetFunc   func(ctx context.Context, id string) (*EmbeddedDataset, error)
	GetEmbeddingStatsFunc    func(ctx context.Context, id string) (*EmbeddingStats, error)
	ListRecordsFunc          func(ctx context.Context, id string, p ListParams) (ListResponse[Record], error)
	GetVectorFunc            func(ctx context.Context, id, recordID string) (*Vector, error)
	DeleteRecordFunc         func(ctx context.Context, id, recordID string) error
}

func (m *MockEmbeddingService) ListEmbeddedDatasets(ctx context.Context, p ListParams) (ListResponse[EmbeddedDataset], error) {
	if m.ListEmbeddedDatasetsFunc != nil {
		return m.ListEmbeddedDatasetsFunc(ctx, p)
	}
	return ListResponse[EmbeddedDataset]{}, nil
}

func (m *MockEmbeddingService) GetEmbeddedDataset(ctx context.Context, id string) (*EmbeddedDataset, error) {
	if m.GetEmbeddedDatasetFunc != nil {
		return m.GetEmbeddedDatasetFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockEmbeddingService) GetEmbeddingStats(ctx context.Context, id string) (*EmbeddingStats, error) {
	if m.GetEmbeddingStatsFunc != nil {
		return m.GetEmbeddingStatsFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockEmbeddingService) ListRecords(ctx context.Context, id string, p ListParams) (ListResponse[Record], error) {
	if m.ListRecordsFunc != nil {
		return m.ListRecordsFunc(ctx, id, p)
	}
	return ListResponse[Record]{}, nil
}

func (m *MockEmbeddingService) GetVector(ctx context.Context, id, recordID string) (*Vector, error) {
	if m.GetVectorFunc != nil {
		return m.GetVectorFunc(ctx, id, recordID)
	}
	return nil, nil
}

func (m *MockEmbeddingService) DeleteRecord(ctx context.Context, id, recordID string) error {
	if m.DeleteRecordFunc != nil {
		return m.DeleteRecordFunc(ctx, id, recordID)
	}
	return nil
}

// MockLLMConfigService is an LLMConfigServiceAPI for tests.
type MockLLMConfigService struct {
	ListLLMConfigsFunc func(ctx context.Context, p ListParams) (ListResponse[LLMConfig], error)
	GetLLMConfigFunc   func(ctx context.Context, id string) (*LLMConfig, error)
}

func (m *MockLLMConfigService) ListLLMConfigs(ctx context.Context, p ListParams) (ListResponse[LLMConfig], error) {
	if m.ListLLMConfigsFunc != nil {
		return m.ListLLMConfigsFunc(ctx, p)
	}
	return ListResponse[LLMConfig]{}, nil
}

func (m *MockLLMConfigService) GetLLMConfig(ctx context.Context, id string) (*LLMConfig, error) {
	if m.GetLLMConfigFunc != nil {
		return m.GetLLMConfigFunc(ctx, id)
	}
	return nil, nil
}

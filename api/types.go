package api

import (
	"net/url"
	"strconv"
	"time"
)

// Embedding job states reported by the backend.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// ListParams selects one page of a list endpoint.
type ListParams struct {
	Limit  int
	Offset int
	Search string
}

func (p ListParams) query() url.Values {
	q := url.Values{}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		q.Set("offset", strconv.Itoa(p.Offset))
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	return q
}

// ListResponse is the envelope every list endpoint returns.
type ListResponse[T any] struct {
	Items      []T `json:"items"`
	TotalCount int `json:"total_count"`
	Limit      int `json:"limit"`
	Offset     int `json:"offset"`
}

// Collection groups datasets under one retrieval namespace.
type Collection struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	DatasetCount  int       `json:"dataset_count"`
	DocumentCount int       `json:"document_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Dataset is a set of source documents.
type Dataset struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	CollectionID string    `json:"collection_id"`
	SourceType   string    `json:"source_type"`
	RecordCount  int       `json:"record_count"`
	SizeBytes    int64     `json:"size_bytes"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DatasetStats summarizes ingestion of a dataset.
type DatasetStats struct {
	DatasetID      string     `json:"dataset_id"`
	RecordCount    int        `json:"record_count"`
	SizeBytes      int64      `json:"size_bytes"`
	TokenCount     int64      `json:"token_count"`
	LastIngestedAt *time.Time `json:"last_ingested_at,omitempty"`
}

// EmbeddedDataset is a dataset run through an embedding model.
type EmbeddedDataset struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	DatasetID       string    `json:"dataset_id"`
	Model           string    `json:"model"`
	Dimensions      int       `json:"dimensions"`
	Status          string    `json:"status"`
	TotalRecords    int       `json:"total_records"`
	EmbeddedRecords int       `json:"embedded_records"`
	FailedRecords   int       `json:"failed_records"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// EmbeddingStats is the live progress of an embedding job.
type EmbeddingStats struct {
	EmbeddedDatasetID string    `json:"embedded_dataset_id"`
	Status            string    `json:"status"`
	TotalRecords      int       `json:"total_records"`
	EmbeddedRecords   int       `json:"embedded_records"`
	FailedRecords     int       `json:"failed_records"`
	RecordsPerSecond  float64   `json:"records_per_second"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Progress returns the embedded share of all records as a percentage.
func (s EmbeddingStats) Progress() float64 {
	if s.TotalRecords <= 0 {
		return 0
	}
	return float64(s.EmbeddedRecords) / float64(s.TotalRecords) * 100
}

// Record is one embedded chunk. Its vector is fetched separately.
type Record struct {
	ID         string     `json:"id"`
	SourceID   string     `json:"source_id"`
	Text       string     `json:"text"`
	Status     string     `json:"status"`
	TokenCount int        `json:"token_count"`
	EmbeddedAt *time.Time `json:"embedded_at,omitempty"`
}

// Vector is the embedding of one record.
type Vector struct {
	RecordID   string    `json:"record_id"`
	Dimensions int       `json:"dimensions"`
	Values     []float32 `json:"values"`
}

// LLMConfig is a language-model configuration used for generation.
type LLMConfig struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Provider    string    `json:"provider"`
	Model       string    `json:"model"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	IsDefault   bool      `json:"is_default"`
	UpdatedAt   time.Time `json:"updated_at"`
}

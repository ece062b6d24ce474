package mockserver

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"time"

	"github.com/deevus/ragdeck-tui/api"
)

// Data is the backend's in-memory state. Records are keyed by embedded
// dataset id.
type Data struct {
	Owner            string
	Collections      []api.Collection
	Datasets         []api.Dataset
	EmbeddedDatasets []api.EmbeddedDataset
	Records          map[string][]api.Record
	LLMConfigs       []api.LLMConfig
}

var sampleText = []string{
	"Retrieval quality depends on chunk boundaries more than on model size.",
	"The ingestion worker splits documents on headings before tokenizing.",
	"Vectors are normalized to unit length before they are indexed.",
	"Stale embeddings are re-queued when the source document changes.",
	"Hybrid search blends keyword scores with cosine similarity.",
	"Each collection keeps its own embedding model and dimension.",
}

// DemoData builds a small but realistic data set owned by owner.
func DemoData(owner string, now time.Time) *Data {
	d := &Data{
		Owner:   owner,
		Records: make(map[string][]api.Record),
	}

	d.Collections = []api.Collection{
		{ID: "col-docs", Name: "product-docs", Description: "Public product documentation", DatasetCount: 2, DocumentCount: 1840, CreatedAt: now.Add(-90 * 24 * time.Hour), UpdatedAt: now.Add(-2 * time.Hour)},
		{ID: "col-support", Name: "support-tickets", Description: "Resolved support tickets", DatasetCount: 1, DocumentCount: 12650, CreatedAt: now.Add(-30 * 24 * time.Hour), UpdatedAt: now.Add(-20 * time.Minute)},
	}
	d.Datasets = []api.Dataset{
		{ID: "ds-manual", Name: "manual-v4", CollectionID: "col-docs", SourceType: "markdown", RecordCount: 640, SizeBytes: 12 << 20, Status: api.StatusCompleted, CreatedAt: now.Add(-60 * 24 * time.Hour), UpdatedAt: now.Add(-3 * time.Hour)},
		{ID: "ds-api", Name: "api-reference", CollectionID: "col-docs", SourceType: "openapi", RecordCount: 1200, SizeBytes: 4 << 20, Status: api.StatusCompleted, CreatedAt: now.Add(-45 * 24 * time.Hour), UpdatedAt: now.Add(-26 * time.Hour)},
		{ID: "ds-tickets", Name: "tickets-2025", CollectionID: "col-support", SourceType: "jsonl", RecordCount: 12650, SizeBytes: 310 << 20, Status: api.StatusProcessing, CreatedAt: now.Add(-7 * 24 * time.Hour), UpdatedAt: now.Add(-5 * time.Minute)},
	}
	d.EmbeddedDatasets = []api.EmbeddedDataset{
		{ID: "ed-manual-minilm", Name: "manual-v4/minilm", DatasetID: "ds-manual", Model: "all-MiniLM-L6-v2", Dimensions: 384, Status: api.StatusCompleted, TotalRecords: 42, EmbeddedRecords: 42, CreatedAt: now.Add(-59 * 24 * time.Hour), UpdatedAt: now.Add(-3 * time.Hour)},
		{ID: "ed-tickets-bge", Name: "tickets-2025/bge", DatasetID: "ds-tickets", Model: "bge-base-en-v1.5", Dimensions: 768, Status: api.StatusProcessing, TotalRecords: 57, EmbeddedRecords: 12, CreatedAt: now.Add(-6 * 24 * time.Hour), UpdatedAt: now.Add(-time.Minute)},
	}
	for _, ed := range d.EmbeddedDatasets {
		d.Records[ed.ID] = makeRecords(ed, now)
	}
	d.LLMConfigs = []api.LLMConfig{
		{ID: "llm-default", Name: "default", Provider: "openai", Model: "gpt-4o-mini", Temperature: 0.2, MaxTokens: 1024, IsDefault: true, UpdatedAt: now.Add(-10 * 24 * time.Hour)},
		{ID: "llm-local", Name: "local", Provider: "ollama", Model: "llama3.1:8b", Temperature: 0.7, MaxTokens: 2048, UpdatedAt: now.Add(-2 * 24 * time.Hour)},
	}
	return d
}

func makeRecords(ed api.EmbeddedDataset, now time.Time) []api.Record {
	recs := make([]api.Record, ed.TotalRecords)
	for i := range recs {
		text := sampleText[i%len(sampleText)]
		recs[i] = api.Record{
			ID:         fmt.Sprintf("%s-r%04d", ed.ID, i),
			SourceID:   fmt.Sprintf("doc-%03d", i/3),
			Text:       text,
			Status:     api.StatusPending,
			TokenCount: len(text) / 4,
		}
		if i < ed.EmbeddedRecords {
			at := now.Add(-time.Duration(ed.TotalRecords-i) * time.Minute)
			recs[i].Status = api.StatusCompleted
			recs[i].EmbeddedAt = &at
		}
	}
	return recs
}

// vectorFor derives a stable pseudo-embedding from the record id.
func vectorFor(recordID string, dims int) api.Vector {
	h := fnv.New64a()
	_, _ = h.Write([]byte(recordID))
	rng := rand.New(rand.NewPCG(h.Sum64(), uint64(dims)))
	values := make([]float32, dims)
	for i := range values {
		values[i] = float32(rng.NormFloat64() * 0.05)
	}
	return api.Vector{RecordID: recordID, Dimensions: dims, Values: values}
}

// Package mockserver is an in-memory stand-in for the retrieval backend:
// the REST endpoints the console reads and the owner-scoped event stream
// it listens on.
package mockserver

import (
	"context"
	"io"
	"net"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/deevus/ragdeck-tui/api"
	"github.com/gin-gonic/gin"
)

const (
	defaultLimit = 20
	maxLimit     = 100

	// DefaultHeartbeat is the interval between heartbeat frames.
	DefaultHeartbeat = 15 * time.Second
)

// Params configures a Server.
type Params struct {
	Addr string
	// APIKey, when set, is required as a bearer token on every request.
	APIKey    string
	Heartbeat time.Duration
	Data      *Data
	Logger    *log.Logger
}

// Event is one frame pushed to subscribers.
type Event struct {
	Name string
	Data any
}

// Server serves Data over HTTP.
type Server struct {
	addr      string
	apiKey    string
	heartbeat time.Duration
	logger    *log.Logger
	engine    *gin.Engine
	server    *http.Server
	ctx       context.Context
	cancel    context.CancelFunc

	mu   sync.RWMutex
	data *Data

	subMu sync.Mutex
	subs  map[string]map[chan Event]struct{}
}

// New builds a Server and its routes. Call Start to listen, or use
// Handler directly.
func New(p Params) *Server {
	if p.Addr == "" {
		p.Addr = "127.0.0.1:8088"
	}
	if p.Heartbeat <= 0 {
		p.Heartbeat = DefaultHeartbeat
	}
	if p.Data == nil {
		p.Data = &Data{Records: make(map[string][]api.Record)}
	}
	if p.Data.Records == nil {
		p.Data.Records = make(map[string][]api.Record)
	}
	if p.Logger == nil {
		p.Logger = log.New(io.Discard)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		addr:      p.Addr,
		apiKey:    p.APIKey,
		heartbeat: p.Heartbeat,
		logger:    p.Logger,
		data:      p.Data,
		ctx:       ctx,
		cancel:    cancel,
		subs:      make(map[string]map[chan Event]struct{}),
	}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog(), s.auth())

	v1 := r.Group("/api/v1")
	v1.GET("/health", s.handleHealth)
	v1.GET("/collections", s.handleListCollections)
	v1.GET("/collections/:id", s.handleGetCollection)
	v1.GET("/datasets", s.handleListDatasets)
	v1.GET("/datasets/:id", s.handleGetDataset)
	v1.GET("/datasets/:id/stats", s.handleDatasetStats)
	v1.GET("/embedded-datasets", s.handleListEmbedded)
	v1.GET("/embedded-datasets/:id", s.handleGetEmbedded)
	v1.GET("/embedded-datasets/:id/stats", s.handleEmbeddingStats)
	v1.GET("/embedded-datasets/:id/records", s.handleListRecords)
	v1.GET("/embedded-datasets/:id/records/:rid/vector", s.handleVector)
	v1.DELETE("/embedded-datasets/:id/records/:rid", s.handleDeleteRecord)
	v1.GET("/llm-configs", s.handleListLLMConfigs)
	v1.GET("/llm-configs/:id", s.handleGetLLMConfig)
	v1.GET("/events/:owner", s.handleEvents)
	return r
}

// Handler returns the HTTP handler, for httptest servers.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start begins serving on the configured address.
func (s *Server) Start() error {
	s.server = &http.Server{
		Handler:           s.engine,
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.addr = listener.Addr().String()
	s.logger.Info("mock backend listening", "addr", s.addr)

	go s.server.Serve(listener)
	return nil
}

// Addr returns the listen address, resolved after Start.
func (s *Server) Addr() string {
	return s.addr
}

// Stop closes every event stream and shuts the server down.
func (s *Server) Stop() error {
	s.cancel()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"took", time.Since(start))
	}
}

func (s *Server) auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.apiKey == "" {
			c.Next()
			return
		}
		if c.GetHeader("Authorization") != "Bearer "+s.apiKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
			return
		}
		c.Next()
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// listParams reads limit, offset and search, clamping limit to
// [1, maxLimit].
func listParams(c *gin.Context) (limit, offset int, search string) {
	limit = defaultLimit
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		limit = min(v, maxLimit)
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset, strings.ToLower(strings.TrimSpace(c.Query("search")))
}

// page filters items by search and slices out one window.
func page[T any](c *gin.Context, items []T, text func(T) string) api.ListResponse[T] {
	limit, offset, search := listParams(c)
	filtered := items
	if search != "" {
		filtered = make([]T, 0, len(items))
		for _, it := range items {
			if strings.Contains(strings.ToLower(text(it)), search) {
				filtered = append(filtered, it)
			}
		}
	}
	out := api.ListResponse[T]{
		Items:      []T{},
		TotalCount: len(filtered),
		Limit:      limit,
		Offset:     offset,
	}
	if offset < len(filtered) {
		out.Items = slices.Clone(filtered[offset:min(offset+limit, len(filtered))])
	}
	return out
}

func notFound(c *gin.Context, what string) {
	c.JSON(http.StatusNotFound, gin.H{"error": what + " not found"})
}

func find[T any](items []T, match func(T) bool) (T, bool) {
	for _, it := range items {
		if match(it) {
			return it, true
		}
	}
	var zero T
	return zero, false
}

func (s *Server) handleListCollections(c *gin.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c.JSON(http.StatusOK, page(c, s.data.Collections, func(x api.Collection) string { return x.Name }))
}

func (s *Server) handleGetCollection(c *gin.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	col, ok := find(s.data.Collections, func(x api.Collection) bool { return x.ID == c.Param("id") })
	if !ok {
		notFound(c, "collection")
		return
	}
	c.JSON(http.StatusOK, col)
}

func (s *Server) handleListDatasets(c *gin.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c.JSON(http.StatusOK, page(c, s.data.Datasets, func(x api.Dataset) string { return x.Name }))
}

func (s *Server) handleGetDataset(c *gin.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ds, ok := find(s.data.Datasets, func(x api.Dataset) bool { return x.ID == c.Param("id") })
	if !ok {
		notFound(c, "dataset")
		return
	}
	c.JSON(http.StatusOK, ds)
}

func (s *Server) handleDatasetStats(c *gin.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ds, ok := find(s.data.Datasets, func(x api.Dataset) bool { return x.ID == c.Param("id") })
	if !ok {
		notFound(c, "dataset")
		return
	}
	updated := ds.UpdatedAt
	c.JSON(http.StatusOK, api.DatasetStats{
		DatasetID:      ds.ID,
		RecordCount:    ds.RecordCount,
		SizeBytes:      ds.SizeBytes,
		TokenCount:     ds.SizeBytes / 4,
		LastIngestedAt: &updated,
	})
}

func (s *Server) handleListEmbedded(c *gin.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c.JSON(http.StatusOK, page(c, s.data.EmbeddedDatasets, func(x api.EmbeddedDataset) string { return x.Name }))
}

func (s *Server) embedded(id string) (int, bool) {
	i := slices.IndexFunc(s.data.EmbeddedDatasets, func(x api.EmbeddedDataset) bool { return x.ID == id })
	return i, i >= 0
}

func (s *Server) handleGetEmbedded(c *gin.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.embedded(c.Param("id"))
	if !ok {
		notFound(c, "embedded dataset")
		return
	}
	c.JSON(http.StatusOK, s.data.EmbeddedDatasets[i])
}

func (s *Server) handleEmbeddingStats(c *gin.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.embedded(c.Param("id"))
	if !ok {
		notFound(c, "embedded dataset")
		return
	}
	c.JSON(http.StatusOK, statsOf(s.data.EmbeddedDatasets[i]))
}

func statsOf(ed api.EmbeddedDataset) api.EmbeddingStats {
	rps := 0.0
	if ed.Status == api.StatusProcessing {
		rps = float64(simulatorBatch)
	}
	return api.EmbeddingStats{
		EmbeddedDatasetID: ed.ID,
		Status:            ed.Status,
		TotalRecords:      ed.TotalRecords,
		EmbeddedRecords:   ed.EmbeddedRecords,
		FailedRecords:     ed.FailedRecords,
		RecordsPerSecond:  rps,
		UpdatedAt:         ed.UpdatedAt,
	}
}

func (s *Server) handleListRecords(c *gin.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id := c.Param("id")
	if _, ok := s.embedded(id); !ok {
		notFound(c, "embedded dataset")
		return
	}
	c.JSON(http.StatusOK, page(c, s.data.Records[id], func(x api.Record) string { return x.Text }))
}

func (s *Server) handleVector(c *gin.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.embedded(c.Param("id"))
	if !ok {
		notFound(c, "embedded dataset")
		return
	}
	ed := s.data.EmbeddedDatasets[i]
	rec, ok := find(s.data.Records[ed.ID], func(x api.Record) bool { return x.ID == c.Param("rid") })
	if !ok {
		notFound(c, "record")
		return
	}
	if rec.Status != api.StatusCompleted {
		c.JSON(http.StatusConflict, gin.H{"error": "record is not embedded yet"})
		return
	}
	c.JSON(http.StatusOK, vectorFor(rec.ID, ed.Dimensions))
}

func (s *Server) handleDeleteRecord(c *gin.Context) {
	s.mu.Lock()
	id, rid := c.Param("id"), c.Param("rid")
	i, ok := s.embedded(id)
	if !ok {
		s.mu.Unlock()
		notFound(c, "embedded dataset")
		return
	}
	recs := s.data.Records[id]
	j := slices.IndexFunc(recs, func(x api.Record) bool { return x.ID == rid })
	if j < 0 {
		s.mu.Unlock()
		notFound(c, "record")
		return
	}
	removed := recs[j]
	s.data.Records[id] = slices.Delete(recs, j, j+1)
	ed := &s.data.EmbeddedDatasets[i]
	ed.TotalRecords--
	switch removed.Status {
	case api.StatusCompleted:
		ed.EmbeddedRecords--
	case api.StatusFailed:
		ed.FailedRecords--
	}
	ed.UpdatedAt = time.Now()
	status := ed.Status
	owner := s.data.Owner
	s.mu.Unlock()

	s.PublishStatus(owner, id, status)
	c.Status(http.StatusNoContent)
}

func (s *Server) handleListLLMConfigs(c *gin.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c.JSON(http.StatusOK, page(c, s.data.LLMConfigs, func(x api.LLMConfig) string { return x.Name + " " + x.Model }))
}

func (s *Server) handleGetLLMConfig(c *gin.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := find(s.data.LLMConfigs, func(x api.LLMConfig) bool { return x.ID == c.Param("id") })
	if !ok {
		notFound(c, "llm config")
		return
	}
	c.JSON(http.StatusOK, cfg)
}

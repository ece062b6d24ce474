package mockserver

import (
	"context"
	"time"

	"github.com/deevus/ragdeck-tui/api"
)

// simulatorBatch is how many records one Step embeds per job.
const simulatorBatch = 5

// Step advances every processing embedding job by one batch and
// publishes a status event for each job that moved. It returns the ids
// of the jobs that changed.
func (s *Server) Step() []string {
	now := time.Now()
	s.mu.Lock()
	var changed []string
	for i := range s.data.EmbeddedDatasets {
		ed := &s.data.EmbeddedDatasets[i]
		if ed.Status != api.StatusProcessing {
			continue
		}
		recs := s.data.Records[ed.ID]
		n := 0
		for j := range recs {
			if n == simulatorBatch {
				break
			}
			if recs[j].Status == api.StatusPending {
				at := now
				recs[j].Status = api.StatusCompleted
				recs[j].EmbeddedAt = &at
				n++
			}
		}
		ed.EmbeddedRecords += n
		if ed.EmbeddedRecords+ed.FailedRecords >= ed.TotalRecords {
			ed.Status = api.StatusCompleted
		}
		ed.UpdatedAt = now
		changed = append(changed, ed.ID)
	}
	owner := s.data.Owner
	statuses := make(map[string]string, len(changed))
	for _, id := range changed {
		if i, ok := s.embedded(id); ok {
			statuses[id] = s.data.EmbeddedDatasets[i].Status
		}
	}
	s.mu.Unlock()

	for _, id := range changed {
		s.PublishStatus(owner, id, statuses[id])
	}
	return changed
}

// Simulate calls Step every interval until ctx is done.
func (s *Server) Simulate(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if ids := s.Step(); len(ids) > 0 {
				s.logger.Debug("simulator step", "jobs", ids)
			}
		}
	}
}

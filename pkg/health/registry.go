package health

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Registry holds the checkers behind the readiness probe.
type Registry struct {
	mu       sync.RWMutex
	checkers []Checker
}

func NewRegistry(checkers ...Checker) *Registry {
	return &Registry{checkers: checkers}
}

func (r *Registry) Register(c Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers = append(r.checkers, c)
}

type CheckResult struct {
	Name      string `json:"name"`
	Status    Status `json:"status"`
	Message   string `json:"message,omitempty"`
	LatencyMs int64  `json:"latency_ms"`
}

type ReadinessResponse struct {
	Status Status        `json:"status"`
	Checks []CheckResult `json:"checks,omitempty"`
}

// CheckAll runs every checker concurrently. The service is down if any check is.
func (r *Registry) CheckAll(ctx context.Context) ReadinessResponse {
	r.mu.RLock()
	checkers := append([]Checker(nil), r.checkers...)
	r.mu.RUnlock()

	results := make([]CheckResult, len(checkers))
	var g errgroup.Group
	for i, c := range checkers {
		g.Go(func() error {
			started := time.Now()
			res := c.Check(ctx)
			results[i] = CheckResult{
				Name:      c.Name(),
				Status:    res.Status,
				Message:   res.Message,
				LatencyMs: time.Since(started).Milliseconds(),
			}
			return nil
		})
	}
	_ = g.Wait()

	response := ReadinessResponse{Status: StatusUp, Checks: results}
	for _, res := range results {
		if res.Status != StatusUp {
			response.Status = StatusDown
		}
	}
	return response
}

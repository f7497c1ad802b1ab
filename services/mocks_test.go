// services/mocks_test.go
package services_test

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/GeoRank-AI/georank-workflows/internal/models"
	"github.com/GeoRank-AI/georank-workflows/services"
)

// mockAnswerService scripts per-query answers and tracks concurrency.
type mockAnswerService struct {
	fetchFunc func(ctx context.Context, query *models.Query) (*services.AnswerResult, error)

	calls       int64
	inFlight    int64
	maxInFlight int64
}

func (m *mockAnswerService) FetchAnswer(ctx context.Context, query *models.Query) (*services.AnswerResult, error) {
	atomic.AddInt64(&m.calls, 1)
	cur := atomic.AddInt64(&m.inFlight, 1)
	for {
		max := atomic.LoadInt64(&m.maxInFlight)
		if cur <= max || atomic.CompareAndSwapInt64(&m.maxInFlight, max, cur) {
			break
		}
	}
	defer atomic.AddInt64(&m.inFlight, -1)

	if m.fetchFunc != nil {
		return m.fetchFunc(ctx, query)
	}
	return &services.AnswerResult{
		AnswerText:      "answer",
		BrandsMentioned: []string{},
		CitedURLs:       []string{},
	}, nil
}

func (m *mockAnswerService) Calls() int { return int(atomic.LoadInt64(&m.calls)) }

func (m *mockAnswerService) MaxInFlight() int { return int(atomic.LoadInt64(&m.maxInFlight)) }

// mockRankService returns a scripted rank per brand list.
type mockRankService struct {
	resolveFunc func(ctx context.Context, brands []string, focus string) (*services.RankResult, error)
	calls       int64
}

func (m *mockRankService) ResolveRank(ctx context.Context, brands []string, focus string) (*services.RankResult, error) {
	atomic.AddInt64(&m.calls, 1)
	if m.resolveFunc != nil {
		return m.resolveFunc(ctx, brands, focus)
	}
	return &services.RankResult{}, nil
}

func (m *mockRankService) Calls() int { return int(atomic.LoadInt64(&m.calls)) }

// mockTopicService returns a fixed generation plan.
type mockTopicService struct {
	plan *models.GenerationPlan
	err  error
}

func (m *mockTopicService) GeneratePlan(ctx context.Context, institutionName string) (*models.GenerationPlan, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.plan, nil
}

// syncDispatcher runs the pipeline inline so tests stay deterministic.
type syncDispatcher struct {
	run func(ctx context.Context, analysisID uuid.UUID) error

	mu         sync.Mutex
	dispatched []uuid.UUID
}

func (d *syncDispatcher) Dispatch(ctx context.Context, analysisID uuid.UUID) error {
	d.mu.Lock()
	d.dispatched = append(d.dispatched, analysisID)
	d.mu.Unlock()
	if d.run != nil {
		return d.run(ctx, analysisID)
	}
	return nil
}

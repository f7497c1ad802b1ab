// services/fakes_test.go
package services_test

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/GeoRank-AI/georank-workflows/internal/models"
	"github.com/GeoRank-AI/georank-workflows/internal/store"
)

// memStore is an in-memory implementation of the repository interfaces.
// Error-injection hooks let tests simulate store failures.
type memStore struct {
	mu          sync.Mutex
	analyses    map[uuid.UUID]*models.Analysis
	queries     map[uuid.UUID]*models.Query
	competitors []*models.Competitor
	sources     []*models.Source

	progressUpdates []int

	saveResultErr     func(q *models.Query) error
	markProcessingErr func(ids []uuid.UUID) error
	getByAnalysisErr  error
}

func newMemStore() *memStore {
	return &memStore{
		analyses: map[uuid.UUID]*models.Analysis{},
		queries:  map[uuid.UUID]*models.Query{},
	}
}

// AnalysisRepo

func (m *memStore) Create(ctx context.Context, analysis *models.Analysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *analysis
	m.analyses[analysis.ID] = &cp
	return nil
}

func (m *memStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Analysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.analyses[id]
	if !ok {
		return nil, fmt.Errorf("analysis %s not found", id)
	}
	cp := *a
	return &cp, nil
}

func (m *memStore) UpdateStatus(ctx context.Context, id uuid.UUID, status models.AnalysisStatus, errorMessage *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.analyses[id]
	if !ok {
		return fmt.Errorf("analysis %s not found", id)
	}
	a.Status = status
	a.ErrorMessage = errorMessage
	return nil
}

func (m *memStore) UpdateProgress(ctx context.Context, id uuid.UUID, progress int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.analyses[id]
	if !ok {
		return fmt.Errorf("analysis %s not found", id)
	}
	if progress > a.Progress {
		a.Progress = progress
	}
	m.progressUpdates = append(m.progressUpdates, a.Progress)
	return nil
}

func (m *memStore) Complete(ctx context.Context, id uuid.UUID, visibilityScore float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.analyses[id]
	if !ok {
		return fmt.Errorf("analysis %s not found", id)
	}
	a.Status = models.AnalysisStatusCompleted
	a.Progress = 100
	a.VisibilityScore = &visibilityScore
	return nil
}

// QueryRepo

func (m *memStore) CreateBatch(ctx context.Context, queries []*models.Query) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range queries {
		cp := *q
		m.queries[q.ID] = &cp
	}
	return nil
}

func (m *memStore) GetByAnalysis(ctx context.Context, analysisID uuid.UUID) ([]*models.Query, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getByAnalysisErr != nil {
		return nil, m.getByAnalysisErr
	}
	var out []*models.Query
	for _, q := range m.queries {
		if q.AnalysisID == analysisID {
			cp := *q
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (m *memStore) MarkProcessing(ctx context.Context, ids []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.markProcessingErr != nil {
		if err := m.markProcessingErr(ids); err != nil {
			return err
		}
	}
	for _, id := range ids {
		if q, ok := m.queries[id]; ok && !q.Status.Terminal() {
			q.Status = models.QueryStatusProcessing
		}
	}
	return nil
}

func (m *memStore) SaveResult(ctx context.Context, query *models.Query) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveResultErr != nil {
		if err := m.saveResultErr(query); err != nil {
			return err
		}
	}
	cp := *query
	m.queries[query.ID] = &cp
	return nil
}

func (m *memStore) MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.queries[id]
	if !ok {
		return fmt.Errorf("query %s not found", id)
	}
	if q.Status.Terminal() {
		return nil
	}
	q.Status = models.QueryStatusFailed
	q.Rank = 0
	q.Weight = 0
	q.BrandsMentioned = models.StringSlice{}
	q.CitedURLs = models.StringSlice{}
	q.ErrorMessage = &errorMessage
	return nil
}

func (m *memStore) CountByStatus(ctx context.Context, analysisID uuid.UUID) (store.StatusCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var counts store.StatusCounts
	for _, q := range m.queries {
		if q.AnalysisID != analysisID {
			continue
		}
		counts.Total++
		switch q.Status {
		case models.QueryStatusPending:
			counts.Pending++
		case models.QueryStatusProcessing:
			counts.Processing++
		case models.QueryStatusCompleted:
			counts.Completed++
		case models.QueryStatusFailed:
			counts.Failed++
		}
	}
	return counts, nil
}

// ReportRepo

func (m *memStore) ReplaceCompetitors(ctx context.Context, analysisID uuid.UUID, competitors []*models.Competitor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.competitors = competitors
	return nil
}

func (m *memStore) ReplaceSources(ctx context.Context, analysisID uuid.UUID, sources []*models.Source) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources = sources
	return nil
}

func (m *memStore) query(id uuid.UUID) *models.Query {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *m.queries[id]
	return &cp
}

func (m *memStore) analysis(id uuid.UUID) *models.Analysis {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *m.analyses[id]
	return &cp
}

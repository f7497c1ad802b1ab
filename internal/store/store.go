// internal/store/store.go
package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/GeoRank-AI/georank-workflows/internal/models"
)

// AnalysisRepo persists Analysis rows.
type AnalysisRepo interface {
	Create(ctx context.Context, analysis *models.Analysis) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Analysis, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.AnalysisStatus, errorMessage *string) error
	UpdateProgress(ctx context.Context, id uuid.UUID, progress int) error
	Complete(ctx context.Context, id uuid.UUID, visibilityScore float64) error
}

// QueryRepo persists Query rows. Each row has exactly one writer at a time,
// so per-row atomicity from Postgres is all the locking needed.
type QueryRepo interface {
	CreateBatch(ctx context.Context, queries []*models.Query) error
	GetByAnalysis(ctx context.Context, analysisID uuid.UUID) ([]*models.Query, error)
	MarkProcessing(ctx context.Context, ids []uuid.UUID) error
	SaveResult(ctx context.Context, query *models.Query) error
	MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string) error
	CountByStatus(ctx context.Context, analysisID uuid.UUID) (StatusCounts, error)
}

// ReportRepo persists the derived competitor and source aggregates.
type ReportRepo interface {
	ReplaceCompetitors(ctx context.Context, analysisID uuid.UUID, competitors []*models.Competitor) error
	ReplaceSources(ctx context.Context, analysisID uuid.UUID, sources []*models.Source) error
}

// StatusCounts summarizes query states for one analysis.
type StatusCounts struct {
	Total      int
	Pending    int
	Processing int
	Completed  int
	Failed     int
}

// Terminal is the count of queries that reached a final state.
func (c StatusCounts) Terminal() int {
	return c.Completed + c.Failed
}

// ProgressPercent is terminal queries over total, as an integer percentage.
func (c StatusCounts) ProgressPercent() int {
	if c.Total == 0 {
		return 0
	}
	return c.Terminal() * 100 / c.Total
}

// Manager aggregates all repositories over one database handle.
type Manager struct {
	Analyses AnalysisRepo
	Queries  QueryRepo
	Reports  ReportRepo
}

func NewManager(db *sqlx.DB) *Manager {
	return &Manager{
		Analyses: NewAnalysisRepo(db),
		Queries:  NewQueryRepo(db),
		Reports:  NewReportRepo(db),
	}
}

// internal/store/analyses.go
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/GeoRank-AI/georank-workflows/internal/models"
)

type analysisRepo struct {
	db *sqlx.DB
}

func NewAnalysisRepo(db *sqlx.DB) AnalysisRepo {
	return &analysisRepo{db: db}
}

func (r *analysisRepo) Create(ctx context.Context, analysis *models.Analysis) error {
	query := `
		INSERT INTO analyses (id, institution_name, canonical_name, location, status, progress, created_at)
		VALUES (:id, :institution_name, :canonical_name, :location, :status, :progress, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, analysis); err != nil {
		return fmt.Errorf("failed to create analysis: %w", err)
	}
	return nil
}

func (r *analysisRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Analysis, error) {
	var analysis models.Analysis
	err := r.db.GetContext(ctx, &analysis, `SELECT * FROM analyses WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("analysis %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return &analysis, nil
}

func (r *analysisRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.AnalysisStatus, errorMessage *string) error {
	query := `
		UPDATE analyses
		SET status = $2,
		    error_message = $3,
		    completed_at = CASE WHEN $2 IN ('completed', 'failed') THEN NOW() ELSE completed_at END
		WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, errorMessage); err != nil {
		return fmt.Errorf("failed to update analysis status: %w", err)
	}
	return nil
}

func (r *analysisRepo) UpdateProgress(ctx context.Context, id uuid.UUID, progress int) error {
	// Progress never goes backwards even if a stale round reports late.
	query := `UPDATE analyses SET progress = GREATEST(progress, $2) WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, progress); err != nil {
		return fmt.Errorf("failed to update analysis progress: %w", err)
	}
	return nil
}

func (r *analysisRepo) Complete(ctx context.Context, id uuid.UUID, visibilityScore float64) error {
	query := `
		UPDATE analyses
		SET status = 'completed', progress = 100, visibility_score = $2, completed_at = NOW()
		WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, visibilityScore); err != nil {
		return fmt.Errorf("failed to complete analysis: %w", err)
	}
	return nil
}

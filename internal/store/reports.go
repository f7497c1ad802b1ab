// internal/store/reports.go
package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/GeoRank-AI/georank-workflows/internal/models"
)

type reportRepo struct {
	db *sqlx.DB
}

func NewReportRepo(db *sqlx.DB) ReportRepo {
	return &reportRepo{db: db}
}

// ReplaceCompetitors rewrites the competitor table for one analysis.
// Aggregation always recomputes from scratch, so replace beats merge.
func (r *reportRepo) ReplaceCompetitors(ctx context.Context, analysisID uuid.UUID, competitors []*models.Competitor) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM competitors WHERE analysis_id = $1`, analysisID); err != nil {
		return fmt.Errorf("failed to clear competitors: %w", err)
	}
	if len(competitors) > 0 {
		insert := `
			INSERT INTO competitors (id, analysis_id, brand_name, mention_count, average_rank, canonical_brand)
			VALUES (:id, :analysis_id, :brand_name, :mention_count, :average_rank, :canonical_brand)`
		if _, err := tx.NamedExecContext(ctx, insert, competitors); err != nil {
			return fmt.Errorf("failed to insert competitors: %w", err)
		}
	}
	return tx.Commit()
}

// ReplaceSources rewrites the source table for one analysis.
func (r *reportRepo) ReplaceSources(ctx context.Context, analysisID uuid.UUID, sources []*models.Source) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sources WHERE analysis_id = $1`, analysisID); err != nil {
		return fmt.Errorf("failed to clear sources: %w", err)
	}
	if len(sources) > 0 {
		insert := `
			INSERT INTO sources (id, analysis_id, domain, citation_count)
			VALUES (:id, :analysis_id, :domain, :citation_count)`
		if _, err := tx.NamedExecContext(ctx, insert, sources); err != nil {
			return fmt.Errorf("failed to insert sources: %w", err)
		}
	}
	return tx.Commit()
}

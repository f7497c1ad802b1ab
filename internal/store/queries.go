// internal/store/queries.go
package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/GeoRank-AI/georank-workflows/internal/models"
)

type queryRepo struct {
	db *sqlx.DB
}

func NewQueryRepo(db *sqlx.DB) QueryRepo {
	return &queryRepo{db: db}
}

func (r *queryRepo) CreateBatch(ctx context.Context, queries []*models.Query) error {
	if len(queries) == 0 {
		return nil
	}
	insert := `
		INSERT INTO queries (id, analysis_id, topic, text, position, force_mention, focus_name,
		                     status, answer_text, brands_mentioned, cited_urls, rank, weight, cost, created_at)
		VALUES (:id, :analysis_id, :topic, :text, :position, :force_mention, :focus_name,
		        :status, :answer_text, :brands_mentioned, :cited_urls, :rank, :weight, :cost, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, insert, queries); err != nil {
		return fmt.Errorf("failed to create queries: %w", err)
	}
	return nil
}

func (r *queryRepo) GetByAnalysis(ctx context.Context, analysisID uuid.UUID) ([]*models.Query, error) {
	var queries []*models.Query
	err := r.db.SelectContext(ctx, &queries,
		`SELECT * FROM queries WHERE analysis_id = $1 ORDER BY position`, analysisID)
	if err != nil {
		return nil, fmt.Errorf("failed to get queries for analysis %s: %w", analysisID, err)
	}
	return queries, nil
}

func (r *queryRepo) MarkProcessing(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	// Terminal rows are left untouched so batch retries can never revive
	// already-settled work.
	_, err := r.db.ExecContext(ctx,
		`UPDATE queries SET status = 'processing'
		 WHERE id = ANY($1) AND status NOT IN ('completed', 'failed')`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to mark queries processing: %w", err)
	}
	return nil
}

func (r *queryRepo) SaveResult(ctx context.Context, query *models.Query) error {
	update := `
		UPDATE queries
		SET status = :status,
		    answer_text = :answer_text,
		    brands_mentioned = :brands_mentioned,
		    cited_urls = :cited_urls,
		    rank = :rank,
		    weight = :weight,
		    cost = :cost,
		    error_message = :error_message,
		    processed_at = :processed_at
		WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, update, query); err != nil {
		return fmt.Errorf("failed to save query result: %w", err)
	}
	return nil
}

func (r *queryRepo) MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string) error {
	update := `
		UPDATE queries
		SET status = 'failed',
		    rank = 0,
		    weight = 0,
		    brands_mentioned = '[]',
		    cited_urls = '[]',
		    error_message = $2,
		    processed_at = NOW()
		WHERE id = $1 AND status NOT IN ('completed', 'failed')`
	if _, err := r.db.ExecContext(ctx, update, id, errorMessage); err != nil {
		return fmt.Errorf("failed to mark query failed: %w", err)
	}
	return nil
}

func (r *queryRepo) CountByStatus(ctx context.Context, analysisID uuid.UUID) (StatusCounts, error) {
	rows := []struct {
		Status models.QueryStatus `db:"status"`
		Count  int                `db:"count"`
	}{}
	err := r.db.SelectContext(ctx, &rows,
		`SELECT status, COUNT(*) AS count FROM queries WHERE analysis_id = $1 GROUP BY status`, analysisID)
	if err != nil {
		return StatusCounts{}, fmt.Errorf("failed to count queries: %w", err)
	}

	var counts StatusCounts
	for _, row := range rows {
		counts.Total += row.Count
		switch row.Status {
		case models.QueryStatusPending:
			counts.Pending = row.Count
		case models.QueryStatusProcessing:
			counts.Processing = row.Count
		case models.QueryStatusCompleted:
			counts.Completed = row.Count
		case models.QueryStatusFailed:
			counts.Failed = row.Count
		}
	}
	return counts, nil
}

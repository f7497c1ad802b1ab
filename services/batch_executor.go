// services/batch_executor.go
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GeoRank-AI/georank-workflows/internal/config"
	"github.com/GeoRank-AI/georank-workflows/internal/models"
	"github.com/GeoRank-AI/georank-workflows/internal/store"
)

type batchExecutor struct {
	answers  AnswerService
	ranks    RankService
	queries  store.QueryRepo
	analyses store.AnalysisRepo
	cfg      config.PipelineConfig
	logger   *zap.Logger
}

// NewBatchExecutor wires the fetch+resolve pipeline to the store. Tunables
// come from cfg rather than package constants so tests can shrink them.
func NewBatchExecutor(answers AnswerService, ranks RankService, queries store.QueryRepo, analyses store.AnalysisRepo, cfg config.PipelineConfig) BatchExecutor {
	return &batchExecutor{
		answers:  answers,
		ranks:    ranks,
		queries:  queries,
		analyses: analyses,
		cfg:      cfg,
		logger:   zap.L().Named("executor"),
	}
}

// Partition splits queries into fixed-size batches preserving order. The
// last batch may be short.
func Partition(queries []*models.Query, size int) [][]*models.Query {
	if size <= 0 {
		size = 1
	}
	batches := make([][]*models.Query, 0, (len(queries)+size-1)/size)
	for i := 0; i < len(queries); i += size {
		end := i + size
		if end > len(queries) {
			end = len(queries)
		}
		batches = append(batches, queries[i:end])
	}
	return batches
}

// Execute runs every query to a terminal state. Batches proceed in rounds
// of at most ConcurrencyLimit; a round settles fully before the next one
// starts. Individual batch exhaustion is recorded against its queries and
// does not abort sibling batches or the run.
func (e *batchExecutor) Execute(ctx context.Context, analysisID uuid.UUID, queries []*models.Query) error {
	if len(queries) == 0 {
		return nil
	}

	batches := Partition(queries, e.cfg.BatchSize)
	e.logger.Info("starting execution",
		zap.String("analysis_id", analysisID.String()),
		zap.Int("queries", len(queries)),
		zap.Int("batches", len(batches)),
		zap.Int("concurrency_limit", e.cfg.ConcurrencyLimit))

	limit := e.cfg.ConcurrencyLimit
	if limit <= 0 {
		limit = 1
	}

	for roundStart := 0; roundStart < len(batches); roundStart += limit {
		// Operator abort: stop dispatching new rounds; already-settled
		// work stays persisted.
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("execution canceled before round: %w", err)
		}

		roundEnd := roundStart + limit
		if roundEnd > len(batches) {
			roundEnd = len(batches)
		}

		var wg sync.WaitGroup
		for i, batch := range batches[roundStart:roundEnd] {
			wg.Add(1)
			go func(seq int, batch []*models.Query) {
				defer wg.Done()
				if err := e.runBatchWithRetry(ctx, seq, batch); err != nil {
					e.logger.Error("batch exhausted retries",
						zap.String("analysis_id", analysisID.String()),
						zap.Int("batch", seq),
						zap.Error(err))
				}
			}(roundStart+i, batch)
		}
		wg.Wait()

		if err := e.updateProgress(ctx, analysisID); err != nil {
			return err
		}
	}

	return nil
}

// runBatchWithRetry retries the batch with linear backoff when the dispatch
// itself fails. Each attempt touches only queries that have not reached a
// terminal status; settled work stays persisted and is never re-executed.
// Per-query answer failures are already persisted inside the dispatch and
// never bubble up here.
func (e *batchExecutor) runBatchWithRetry(ctx context.Context, seq int, batch []*models.Query) error {
	var lastErr error
	maxRetries := e.cfg.BatchMaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if attempt > 1 {
			if err := sleepCtx(ctx, time.Duration(attempt)*e.cfg.BatchRetryDelay); err != nil {
				lastErr = err
				break
			}
		}

		remaining := unsettled(batch)
		if len(remaining) == 0 {
			return nil
		}
		ids := make([]uuid.UUID, len(remaining))
		for i, q := range remaining {
			ids[i] = q.ID
		}

		if err := e.queries.MarkProcessing(ctx, ids); err != nil {
			lastErr = fmt.Errorf("failed to mark batch %d processing: %w", seq, err)
			continue
		}

		if err := e.dispatchBatch(ctx, remaining); err != nil {
			lastErr = err
			continue
		}
		return nil
	}

	// All attempts exhausted: record the cause on the queries still not
	// settled before surfacing the error.
	msg := "batch dispatch failed"
	if lastErr != nil {
		msg = lastErr.Error()
	}
	for _, q := range unsettled(batch) {
		if err := e.queries.MarkFailed(context.WithoutCancel(ctx), q.ID, msg); err != nil {
			e.logger.Error("failed to record batch failure on query",
				zap.String("query_id", q.ID.String()),
				zap.Error(err))
			continue
		}
		q.Status = models.QueryStatusFailed
	}
	return fmt.Errorf("batch %d exhausted %d attempts: %w", seq, maxRetries, lastErr)
}

// unsettled filters the batch down to queries still awaiting a persisted
// terminal outcome.
func unsettled(batch []*models.Query) []*models.Query {
	out := make([]*models.Query, 0, len(batch))
	for _, q := range batch {
		if !q.Status.Terminal() {
			out = append(out, q)
		}
	}
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return fmt.Errorf("canceled during batch retry backoff: %w", ctx.Err())
	}
}

// dispatchBatch runs every query in the batch concurrently. The returned
// error means per-query results could not be captured (store failure), not
// that some query's answer call failed.
func (e *batchExecutor) dispatchBatch(ctx context.Context, batch []*models.Query) error {
	var wg sync.WaitGroup
	errs := make([]error, len(batch))

	for i, q := range batch {
		wg.Add(1)
		go func(i int, q *models.Query) {
			defer wg.Done()
			errs[i] = e.processQuery(ctx, q)
		}(i, q)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// processQuery runs one query's fetch+resolve pipeline and persists the
// outcome immediately. Answer failures become the query's own terminal
// failure; only persistence errors propagate.
func (e *batchExecutor) processQuery(ctx context.Context, q *models.Query) error {
	answer, err := e.answers.FetchAnswer(ctx, q)
	if err != nil {
		e.logger.Warn("query answer failed",
			zap.String("query_id", q.ID.String()),
			zap.Error(err))
		if mErr := e.queries.MarkFailed(context.WithoutCancel(ctx), q.ID, err.Error()); mErr != nil {
			return fmt.Errorf("failed to persist query failure: %w", mErr)
		}
		q.Status = models.QueryStatusFailed
		return nil
	}

	rank := &RankResult{}
	resolved, err := e.ranks.ResolveRank(ctx, answer.BrandsMentioned, q.FocusName)
	if err == nil && resolved != nil {
		rank = resolved
	}
	// A resolver error degrades to rank 0; the query still completes with
	// its answer.

	now := time.Now()
	q.Status = models.QueryStatusCompleted
	q.AnswerText = answer.AnswerText
	q.BrandsMentioned = answer.BrandsMentioned
	q.CitedURLs = answer.CitedURLs
	q.Rank = rank.Rank
	q.Weight = rank.Weight
	q.Cost = answer.Cost
	q.ErrorMessage = nil
	q.ProcessedAt = &now

	if err := e.queries.SaveResult(context.WithoutCancel(ctx), q); err != nil {
		// The result never reached the store, so the query is not settled
		// and the retry path may pick it up again.
		q.Status = models.QueryStatusProcessing
		return fmt.Errorf("failed to persist query result: %w", err)
	}
	return nil
}

// updateProgress recomputes progress from a fresh status count rather than
// incrementing, so concurrent rounds can never lose updates.
func (e *batchExecutor) updateProgress(ctx context.Context, analysisID uuid.UUID) error {
	counts, err := e.queries.CountByStatus(ctx, analysisID)
	if err != nil {
		return fmt.Errorf("failed to count query statuses: %w", err)
	}
	if err := e.analyses.UpdateProgress(ctx, analysisID, counts.ProgressPercent()); err != nil {
		return fmt.Errorf("failed to update analysis progress: %w", err)
	}
	e.logger.Info("round settled",
		zap.String("analysis_id", analysisID.String()),
		zap.Int("completed", counts.Completed),
		zap.Int("failed", counts.Failed),
		zap.Int("total", counts.Total),
		zap.Int("progress", counts.ProgressPercent()))
	return nil
}

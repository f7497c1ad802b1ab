// services/pipeline_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GeoRank-AI/georank-workflows/internal/models"
	"github.com/GeoRank-AI/georank-workflows/internal/store"
)

// Dispatcher hands a freshly created analysis to whatever executes the
// pipeline asynchronously (an event queue in production, a supervised
// goroutine otherwise).
type Dispatcher interface {
	Dispatch(ctx context.Context, analysisID uuid.UUID) error
}

// PipelineRunner drives the analysis state machine from creation through
// batch execution to aggregation.
type PipelineRunner struct {
	analyses   store.AnalysisRepo
	queries    store.QueryRepo
	topics     TopicService
	executor   BatchExecutor
	aggregator AggregationService
	dispatcher Dispatcher
	logger     *zap.Logger
}

// NewPipelineService wires the top-level controller. Call SetDispatcher
// before StartAnalysis; without one, runs are supervised in-process.
func NewPipelineService(analyses store.AnalysisRepo, queries store.QueryRepo, topics TopicService, executor BatchExecutor, aggregator AggregationService) *PipelineRunner {
	return &PipelineRunner{
		analyses:   analyses,
		queries:    queries,
		topics:     topics,
		executor:   executor,
		aggregator: aggregator,
		logger:     zap.L().Named("pipeline"),
	}
}

// SetDispatcher installs the async kickoff mechanism. Separate from the
// constructor because dispatchers typically wrap this same service.
func (s *PipelineRunner) SetDispatcher(d Dispatcher) { s.dispatcher = d }

// StartAnalysis creates the analysis and its query battery, kicks off the
// pipeline asynchronously and returns immediately.
func (s *PipelineRunner) StartAnalysis(ctx context.Context, institutionName string) (uuid.UUID, error) {
	plan, err := s.topics.GeneratePlan(ctx, institutionName)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to generate query plan: %w", err)
	}

	analysis := &models.Analysis{
		ID:              uuid.New(),
		InstitutionName: institutionName,
		CanonicalName:   plan.CanonicalName,
		Location:        plan.Location,
		Status:          models.AnalysisStatusPending,
		CreatedAt:       time.Now(),
	}
	if err := s.analyses.Create(ctx, analysis); err != nil {
		return uuid.Nil, err
	}

	var queries []*models.Query
	position := 0
	for _, topic := range plan.Topics {
		for _, text := range topic.Queries {
			queries = append(queries, &models.Query{
				ID:              uuid.New(),
				AnalysisID:      analysis.ID,
				Topic:           topic.Name,
				Text:            text,
				Position:        position,
				FocusName:       plan.CanonicalName,
				Status:          models.QueryStatusPending,
				BrandsMentioned: models.StringSlice{},
				CitedURLs:       models.StringSlice{},
				CreatedAt:       time.Now(),
			})
			position++
		}
	}
	if err := s.queries.CreateBatch(ctx, queries); err != nil {
		return uuid.Nil, err
	}

	s.logger.Info("analysis created",
		zap.String("analysis_id", analysis.ID.String()),
		zap.String("institution", institutionName),
		zap.Int("queries", len(queries)))

	dispatcher := s.dispatcher
	if dispatcher == nil {
		dispatcher = NewSupervisedDispatcher(s.RunPipeline, s.analyses)
	}
	if err := dispatcher.Dispatch(ctx, analysis.ID); err != nil {
		return uuid.Nil, fmt.Errorf("failed to dispatch pipeline run: %w", err)
	}
	return analysis.ID, nil
}

// RunPipeline executes one analysis end to end. Intended to run once per
// analysis; a non-pending analysis is refused.
func (s *PipelineRunner) RunPipeline(ctx context.Context, analysisID uuid.UUID) error {
	analysis, err := s.analyses.GetByID(ctx, analysisID)
	if err != nil {
		return err
	}
	if analysis.Status != models.AnalysisStatusPending {
		s.logger.Warn("refusing to reprocess analysis",
			zap.String("analysis_id", analysisID.String()),
			zap.String("status", string(analysis.Status)))
		return fmt.Errorf("%w: analysis %s is %s", ErrAnalysisNotPending, analysisID, analysis.Status)
	}

	if err := s.analyses.UpdateStatus(ctx, analysisID, models.AnalysisStatusProcessing, nil); err != nil {
		return err
	}

	if err := s.run(ctx, analysisID); err != nil {
		msg := err.Error()
		if uErr := s.analyses.UpdateStatus(context.WithoutCancel(ctx), analysisID, models.AnalysisStatusFailed, &msg); uErr != nil {
			s.logger.Error("failed to record analysis failure",
				zap.String("analysis_id", analysisID.String()),
				zap.Error(uErr))
		}
		return err
	}
	return nil
}

func (s *PipelineRunner) run(ctx context.Context, analysisID uuid.UUID) error {
	all, err := s.queries.GetByAnalysis(ctx, analysisID)
	if err != nil {
		return err
	}
	pending := make([]*models.Query, 0, len(all))
	for _, q := range all {
		if q.Status == models.QueryStatusPending {
			pending = append(pending, q)
		}
	}
	if len(pending) == 0 {
		return ErrNoQueries
	}

	if err := s.executor.Execute(ctx, analysisID, pending); err != nil {
		return err
	}

	score, err := s.aggregator.Aggregate(ctx, analysisID)
	if err != nil {
		return err
	}
	if err := s.analyses.Complete(ctx, analysisID, score); err != nil {
		return err
	}

	s.logger.Info("analysis completed",
		zap.String("analysis_id", analysisID.String()),
		zap.Float64("visibility_score", score))
	return nil
}

// GetProgress reports the polling view for the UI layer.
func (s *PipelineRunner) GetProgress(ctx context.Context, analysisID uuid.UUID) (*Progress, error) {
	analysis, err := s.analyses.GetByID(ctx, analysisID)
	if err != nil {
		return nil, err
	}
	return &Progress{
		AnalysisID:      analysis.ID,
		Status:          analysis.Status,
		ProgressPercent: analysis.Progress,
		IsComplete:      analysis.Status == models.AnalysisStatusCompleted,
		IsFailed:        analysis.Status == models.AnalysisStatusFailed,
	}, nil
}

// supervisedDispatcher runs the pipeline in a background goroutine. The
// supervisor records panics and terminal errors against the analysis so a
// failed run can never vanish silently.
type supervisedDispatcher struct {
	run      func(ctx context.Context, analysisID uuid.UUID) error
	analyses store.AnalysisRepo
	logger   *zap.Logger
}

func NewSupervisedDispatcher(run func(ctx context.Context, analysisID uuid.UUID) error, analyses store.AnalysisRepo) Dispatcher {
	return &supervisedDispatcher{
		run:      run,
		analyses: analyses,
		logger:   zap.L().Named("supervisor"),
	}
}

func (d *supervisedDispatcher) Dispatch(_ context.Context, analysisID uuid.UUID) error {
	go func() {
		ctx := context.Background()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("pipeline run panicked",
					zap.String("analysis_id", analysisID.String()),
					zap.Any("panic", r))
				msg := fmt.Sprintf("pipeline panic: %v", r)
				if err := d.analyses.UpdateStatus(ctx, analysisID, models.AnalysisStatusFailed, &msg); err != nil {
					d.logger.Error("failed to mark panicked analysis failed", zap.Error(err))
				}
			}
		}()
		if err := d.run(ctx, analysisID); err != nil {
			d.logger.Error("pipeline run failed",
				zap.String("analysis_id", analysisID.String()),
				zap.Error(err))
		}
	}()
	return nil
}

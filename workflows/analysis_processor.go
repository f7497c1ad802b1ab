// workflows/analysis_processor.go
package workflows

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/inngest/inngestgo"
	"github.com/inngest/inngestgo/step"
	"go.uber.org/zap"

	"github.com/GeoRank-AI/georank-workflows/internal/config"
	"github.com/GeoRank-AI/georank-workflows/services"
)

// AnalysisRunEventName triggers a pipeline run for one created analysis.
const AnalysisRunEventName = "analysis/run.requested"

type AnalysisProcessor struct {
	pipeline services.PipelineService
	client   inngestgo.Client
	cfg      *config.Config
	logger   *zap.Logger
}

func NewAnalysisProcessor(pipeline services.PipelineService, cfg *config.Config) *AnalysisProcessor {
	return &AnalysisProcessor{
		pipeline: pipeline,
		cfg:      cfg,
		logger:   zap.L().Named("workflow.analysis"),
	}
}

func (p *AnalysisProcessor) SetClient(client inngestgo.Client) {
	p.client = client
}

// AnalysisRunEvent is the event payload for analysis pipeline runs.
type AnalysisRunEvent struct {
	AnalysisID  string `json:"analysis_id"`
	TriggeredBy string `json:"triggered_by,omitempty"`
}

// RunAnalysisPipeline registers the durable function that drives one analysis
// from pending to its terminal state. A duplicate or replayed event finds the
// analysis no longer pending and is reported as skipped rather than retried.
func (p *AnalysisProcessor) RunAnalysisPipeline() inngestgo.ServableFunction {
	fn, err := inngestgo.CreateFunction(
		p.client,
		inngestgo.FunctionOpts{
			ID:      "run-analysis-pipeline",
			Name:    "Run Visibility Analysis Pipeline",
			Retries: inngestgo.IntPtr(3),
		},
		inngestgo.EventTrigger(AnalysisRunEventName, nil),
		func(ctx context.Context, input inngestgo.Input[AnalysisRunEvent]) (any, error) {
			analysisID, err := uuid.Parse(input.Event.Data.AnalysisID)
			if err != nil {
				return nil, fmt.Errorf("invalid analysis ID %q: %w", input.Event.Data.AnalysisID, err)
			}
			p.logger.Info("analysis run requested",
				zap.String("analysis_id", analysisID.String()),
				zap.String("triggered_by", input.Event.Data.TriggeredBy))

			result, err := step.Run(ctx, "run-pipeline", func(ctx context.Context) (any, error) {
				if err := p.pipeline.RunPipeline(ctx, analysisID); err != nil {
					if errors.Is(err, services.ErrAnalysisNotPending) {
						return map[string]any{
							"analysis_id": analysisID.String(),
							"status":      "skipped",
							"reason":      err.Error(),
						}, nil
					}
					if alertErr := ReportPipelineFailure(ctx, p.cfg, analysisID, err); alertErr != nil {
						p.logger.Warn("failed to deliver failure alert", zap.Error(alertErr))
					}
					return nil, err
				}
				return nil, nil
			})
			if err != nil {
				return nil, fmt.Errorf("pipeline run failed: %w", err)
			}
			if result != nil {
				return result, nil
			}

			summary, err := step.Run(ctx, "report-summary", func(ctx context.Context) (any, error) {
				progress, err := p.pipeline.GetProgress(ctx, analysisID)
				if err != nil {
					return nil, fmt.Errorf("failed to load final progress: %w", err)
				}
				return map[string]any{
					"analysis_id": analysisID.String(),
					"status":      string(progress.Status),
					"progress":    progress.ProgressPercent,
				}, nil
			})
			if err != nil {
				return nil, err
			}
			return summary, nil
		},
	)
	if err != nil {
		panic(fmt.Sprintf("Failed to create RunAnalysisPipeline function: %v", err))
	}
	return fn
}

// EventDispatcher kicks pipelines off through the event queue so runs are
// durable across process restarts.
type EventDispatcher struct {
	client inngestgo.Client
}

func NewEventDispatcher(client inngestgo.Client) *EventDispatcher {
	return &EventDispatcher{client: client}
}

func (d *EventDispatcher) Dispatch(ctx context.Context, analysisID uuid.UUID) error {
	evt := inngestgo.Event{
		Name: AnalysisRunEventName,
		Data: map[string]interface{}{
			"analysis_id":  analysisID.String(),
			"triggered_by": "api",
		},
	}
	if _, err := d.client.Send(ctx, evt); err != nil {
		return fmt.Errorf("failed to send %s event: %w", AnalysisRunEventName, err)
	}
	return nil
}

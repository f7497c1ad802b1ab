// services/pipeline_service_test.go
package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GeoRank-AI/georank-workflows/internal/models"
	"github.com/GeoRank-AI/georank-workflows/internal/providers/testutil"
	"github.com/GeoRank-AI/georank-workflows/services"
)

// answersByQueryText scripts the brand list returned for each query text.
func answersByQueryText(brands map[string][]string) *mockAnswerService {
	return &mockAnswerService{fetchFunc: func(ctx context.Context, q *models.Query) (*services.AnswerResult, error) {
		mentioned := brands[q.Text]
		if mentioned == nil {
			mentioned = []string{}
		}
		return &services.AnswerResult{
			AnswerText:      "answer to " + q.Text,
			BrandsMentioned: mentioned,
			CitedURLs:       []string{"https://rankings.example.com/list"},
		}, nil
	}}
}

func newPipeline(st *memStore, answers services.AnswerService, plan *models.GenerationPlan) *services.PipelineRunner {
	ranks := services.NewRankService(testutil.NewMockProvider(), services.BandedWeightPolicy(), false)
	executor := services.NewBatchExecutor(answers, ranks, st, st, executorConfig(5, 10))
	aggregator := services.NewAggregationService(st, st)
	return services.NewPipelineService(st, st, &mockTopicService{plan: plan}, executor, aggregator)
}

func twoTopicPlan() *models.GenerationPlan {
	return &models.GenerationPlan{
		CanonicalName: "Example University",
		Location:      "Springfield, US",
		Topics: []models.TopicGroup{
			{Name: "rankings", Queries: []string{"best universities in springfield", "top ranked business schools"}},
			{Name: "admissions", Queries: []string{"easiest universities to get into", "university application deadlines"}},
		},
	}
}

func TestPipelineEndToEnd(t *testing.T) {
	st := newMemStore()
	answers := answersByQueryText(map[string][]string{
		"best universities in springfield": {"Example University", "Rival College"},
		"top ranked business schools":      {"Rival College", "Other School"},
	})
	pipeline := newPipeline(st, answers, twoTopicPlan())
	dispatcher := &syncDispatcher{run: pipeline.RunPipeline}
	pipeline.SetDispatcher(dispatcher)

	analysisID, err := pipeline.StartAnalysis(context.Background(), "example univ")
	require.NoError(t, err)
	require.Len(t, dispatcher.dispatched, 1)

	analysis := st.analysis(analysisID)
	assert.Equal(t, models.AnalysisStatusCompleted, analysis.Status)
	assert.Equal(t, 100, analysis.Progress)
	require.NotNil(t, analysis.VisibilityScore)
	// Ranks: 100 + 0 + 0 + 0 over four completed queries.
	assert.InDelta(t, 25.0, *analysis.VisibilityScore, 0.001)

	queries, err := st.GetByAnalysis(context.Background(), analysisID)
	require.NoError(t, err)
	require.Len(t, queries, 4)

	byText := map[string]*models.Query{}
	for _, q := range queries {
		assert.Equal(t, models.QueryStatusCompleted, q.Status)
		assert.Equal(t, "Example University", q.FocusName)
		byText[q.Text] = q
	}
	assert.Equal(t, 1, byText["best universities in springfield"].Rank)
	assert.Equal(t, 100.0, byText["best universities in springfield"].Weight)
	assert.Equal(t, 0, byText["top ranked business schools"].Rank)
	assert.Equal(t, 0.0, byText["top ranked business schools"].Weight)
	assert.Equal(t, 0, byText["easiest universities to get into"].Rank)
	assert.Equal(t, 0, byText["university application deadlines"].Rank)

	// Derived tables were rebuilt.
	require.NotEmpty(t, st.competitors)
	names := map[string]int{}
	for _, c := range st.competitors {
		names[c.BrandName] = c.MentionCount
	}
	assert.Equal(t, 2, names["Rival College"])
	assert.Equal(t, 1, names["Example University"])
	require.NotEmpty(t, st.sources)
	assert.Equal(t, "example.com", st.sources[0].Domain)
}

func TestRunPipelineIdempotencyGuard(t *testing.T) {
	st := newMemStore()
	answers := answersByQueryText(nil)
	pipeline := newPipeline(st, answers, twoTopicPlan())
	dispatcher := &syncDispatcher{run: pipeline.RunPipeline}
	pipeline.SetDispatcher(dispatcher)

	analysisID, err := pipeline.StartAnalysis(context.Background(), "example univ")
	require.NoError(t, err)

	err = pipeline.RunPipeline(context.Background(), analysisID)
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrAnalysisNotPending)
	assert.Equal(t, models.AnalysisStatusCompleted, st.analysis(analysisID).Status)
}

func TestRunPipelineMarksFailedOnStoreError(t *testing.T) {
	st := newMemStore()
	pipeline := newPipeline(st, answersByQueryText(nil), twoTopicPlan())
	pipeline.SetDispatcher(&syncDispatcher{}) // do not run inline

	analysisID, err := pipeline.StartAnalysis(context.Background(), "example univ")
	require.NoError(t, err)

	st.getByAnalysisErr = errors.New("store unreachable")
	err = pipeline.RunPipeline(context.Background(), analysisID)
	require.Error(t, err)

	analysis := st.analysis(analysisID)
	assert.Equal(t, models.AnalysisStatusFailed, analysis.Status)
	require.NotNil(t, analysis.ErrorMessage)
	assert.Contains(t, *analysis.ErrorMessage, "store unreachable")
}

func TestStartAnalysisCreatesQueryBattery(t *testing.T) {
	st := newMemStore()
	pipeline := newPipeline(st, answersByQueryText(nil), twoTopicPlan())
	dispatcher := &syncDispatcher{} // capture only
	pipeline.SetDispatcher(dispatcher)

	analysisID, err := pipeline.StartAnalysis(context.Background(), "example univ")
	require.NoError(t, err)
	require.Len(t, dispatcher.dispatched, 1)
	assert.Equal(t, analysisID, dispatcher.dispatched[0])

	analysis := st.analysis(analysisID)
	assert.Equal(t, models.AnalysisStatusPending, analysis.Status)
	assert.Equal(t, "Example University", analysis.CanonicalName)

	queries, err := st.GetByAnalysis(context.Background(), analysisID)
	require.NoError(t, err)
	require.Len(t, queries, 4)
	for i, q := range queries {
		assert.Equal(t, i, q.Position)
		assert.Equal(t, models.QueryStatusPending, q.Status)
	}
}

func TestStartAnalysisFailsWhenPlanFails(t *testing.T) {
	st := newMemStore()
	ranks := services.NewRankService(testutil.NewMockProvider(), services.BandedWeightPolicy(), false)
	executor := services.NewBatchExecutor(answersByQueryText(nil), ranks, st, st, executorConfig(5, 10))
	aggregator := services.NewAggregationService(st, st)
	pipeline := services.NewPipelineService(st, st, &mockTopicService{err: errors.New("model unavailable")}, executor, aggregator)

	_, err := pipeline.StartAnalysis(context.Background(), "example univ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to generate query plan")
}

func TestGetProgress(t *testing.T) {
	st := newMemStore()
	pipeline := newPipeline(st, answersByQueryText(nil), twoTopicPlan())
	pipeline.SetDispatcher(&syncDispatcher{})

	analysisID, err := pipeline.StartAnalysis(context.Background(), "example univ")
	require.NoError(t, err)

	progress, err := pipeline.GetProgress(context.Background(), analysisID)
	require.NoError(t, err)
	assert.Equal(t, models.AnalysisStatusPending, progress.Status)
	assert.Equal(t, 0, progress.ProgressPercent)
	assert.False(t, progress.IsComplete)
	assert.False(t, progress.IsFailed)

	require.NoError(t, pipeline.RunPipeline(context.Background(), analysisID))
	progress, err = pipeline.GetProgress(context.Background(), analysisID)
	require.NoError(t, err)
	assert.Equal(t, models.AnalysisStatusCompleted, progress.Status)
	assert.Equal(t, 100, progress.ProgressPercent)
	assert.True(t, progress.IsComplete)

	_, err = pipeline.GetProgress(context.Background(), uuid.New())
	require.Error(t, err)
}

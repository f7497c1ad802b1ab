// workflows/alerts.go
package workflows

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/GeoRank-AI/georank-workflows/internal/config"
	"github.com/GeoRank-AI/georank-workflows/internal/providers/common"
)

// AlertPayload is the generic webhook body; Slack and compatible receivers
// render the text field directly.
type AlertPayload struct {
	Text string `json:"text"`
}

// ReportError posts an error message to the configured alert webhook. A
// missing webhook URL disables alerting rather than failing the caller.
func ReportError(ctx context.Context, cfg *config.Config, err error) error {
	if err == nil {
		return nil
	}
	if cfg.AlertWebhookURL == "" {
		return nil
	}

	payload := AlertPayload{
		Text: fmt.Sprintf(
			":rotating_light: *Analysis Pipeline Error*\n"+
				"*Time:* %s\n"+
				"*Error:* ```%s```",
			time.Now().UTC().Format(time.RFC3339),
			err.Error(),
		),
	}

	client := common.NewRetryClient(5*time.Second, 2, time.Second, 0)
	return client.PostJSON(ctx, cfg.AlertWebhookURL, nil, payload, nil)
}

// ReportPipelineFailure reports a failed analysis run with its identifier.
func ReportPipelineFailure(ctx context.Context, cfg *config.Config, analysisID uuid.UUID, err error) error {
	if err == nil {
		return nil
	}
	return ReportError(ctx, cfg, fmt.Errorf("pipeline failed: analysis_id=%s error=%v", analysisID, err))
}

package pipeline

import (
	"context"

	"sevenms-trading-bot/internal/approval"
	"sevenms-trading-bot/internal/broker"
)

// Journal records analysis runs and their outcomes. The engine accepts a
// nil journal and skips recording.
type Journal interface {
	RecordRun(ctx context.Context, result *AnalysisResult) error
	RecordDecision(ctx context.Context, req *approval.Request, decision approval.Decision) error
	RecordExecution(ctx context.Context, requestID string, result *broker.ExecutionResult, execErr error) error
}

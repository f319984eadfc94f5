package database

import (
	"context"
	"encoding/json"
	"fmt"

	"sevenms-trading-bot/internal/approval"
	"sevenms-trading-bot/internal/broker"
	"sevenms-trading-bot/internal/logging"
	"sevenms-trading-bot/internal/pipeline"
)

// Journal persists analysis runs, approval decisions and execution
// results to PostgreSQL
type Journal struct {
	db *DB
}

var _ pipeline.Journal = (*Journal)(nil)

// NewJournal creates a journal backed by the given database
func NewJournal(db *DB) *Journal {
	return &Journal{db: db}
}

// HealthCheck performs a database health check
func (j *Journal) HealthCheck(ctx context.Context) error {
	return j.db.Pool.Ping(ctx)
}

// RecordRun inserts one analysis run. Detection details are stored as
// JSONB so the schema survives detector changes.
func (j *Journal) RecordRun(ctx context.Context, result *pipeline.AnalysisResult) error {
	var sweep, shift, pois, params []byte
	var err error
	if result.Sweep != nil {
		if sweep, err = json.Marshal(result.Sweep); err != nil {
			return fmt.Errorf("encoding sweep: %w", err)
		}
	}
	if result.Shift != nil {
		if shift, err = json.Marshal(result.Shift); err != nil {
			return fmt.Errorf("encoding shift: %w", err)
		}
	}
	if len(result.POIs) > 0 {
		if pois, err = json.Marshal(result.POIs); err != nil {
			return fmt.Errorf("encoding pois: %w", err)
		}
	}
	if result.Parameters != nil {
		if params, err = json.Marshal(result.Parameters); err != nil {
			return fmt.Errorf("encoding parameters: %w", err)
		}
	}

	var requestID *string
	if result.Request != nil {
		requestID = &result.Request.ID
	}

	query := `
		INSERT INTO analysis_runs (run_id, thread_id, symbol, status, bias, current_price,
			sweep, shift, pois, parameters, request_id, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = j.db.Pool.Exec(ctx, query,
		result.RunID, result.ThreadID, result.Symbol, string(result.Status),
		string(result.Bias), result.CurrentPrice,
		sweep, shift, pois, params, requestID,
		result.StartedAt, result.FinishedAt,
	)
	if err == nil {
		logging.DatabaseContext("insert", "analysis_runs").
			Debug("Run journaled", "run_id", result.RunID, "status", string(result.Status))
	}
	return err
}

// RecordDecision inserts one approval resolution
func (j *Journal) RecordDecision(ctx context.Context, req *approval.Request, decision approval.Decision) error {
	params := req.Proposed
	if req.Final != nil {
		params = *req.Final
	}

	query := `
		INSERT INTO approval_decisions (request_id, thread_id, symbol, state, decision_type,
			reject_reason, entry_price, stop_loss, take_profit, volume, resolved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := j.db.Pool.Exec(ctx, query,
		req.ID, req.ThreadID, req.Symbol, string(req.State), string(decision.Type),
		req.RejectReason, params.EntryPrice, params.StopLoss, params.TakeProfit,
		req.Volume, req.ResolvedAt,
	)
	return err
}

// RecordExecution inserts one execution attempt, failed or not
func (j *Journal) RecordExecution(ctx context.Context, requestID string, result *broker.ExecutionResult, execErr error) error {
	var errText *string
	if execErr != nil {
		s := execErr.Error()
		errText = &s
	}

	if result == nil {
		query := `
			INSERT INTO executions (request_id, success, error)
			VALUES ($1, FALSE, $2)
		`
		_, err := j.db.Pool.Exec(ctx, query, requestID, errText)
		return err
	}

	query := `
		INSERT INTO executions (request_id, retcode, description, deal, order_ticket,
			price, volume, success, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := j.db.Pool.Exec(ctx, query,
		requestID, result.Retcode, result.Description, result.Deal, result.Order,
		result.Price, result.Volume, result.Success(), errText,
	)
	return err
}

// RecentRuns returns the latest journaled runs for a symbol, newest first
func (j *Journal) RecentRuns(ctx context.Context, symbol string, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT run_id, thread_id, symbol, status, bias, current_price, request_id,
		       started_at, finished_at
		FROM analysis_runs
		WHERE symbol = $1
		ORDER BY started_at DESC
		LIMIT $2
	`
	rows, err := j.db.Pool.Query(ctx, query, symbol, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		if err := rows.Scan(&rec.RunID, &rec.ThreadID, &rec.Symbol, &rec.Status,
			&rec.Bias, &rec.CurrentPrice, &rec.RequestID,
			&rec.StartedAt, &rec.FinishedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

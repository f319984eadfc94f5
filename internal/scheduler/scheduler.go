package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"sevenms-trading-bot/internal/logging"
	"sevenms-trading-bot/internal/pipeline"
)

// Config holds scheduler settings. Spec is a six-field cron expression;
// the default re-analyzes every five minutes on the minute.
type Config struct {
	Enabled bool     `json:"enabled"`
	Spec    string   `json:"spec"`
	Symbols []string `json:"symbols"`
}

// Scheduler re-runs the analysis pipeline on a cron cadence. A symbol
// whose approval request is still pending is skipped, not queued.
type Scheduler struct {
	cron   *cron.Cron
	engine *pipeline.Engine
	cfg    Config
	ctx    context.Context
	logger *logging.Logger
}

// New creates a scheduler for the given engine
func New(ctx context.Context, engine *pipeline.Engine, cfg Config) *Scheduler {
	if cfg.Spec == "" {
		cfg.Spec = "0 */5 * * * *"
	}
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		engine: engine,
		cfg:    cfg,
		ctx:    ctx,
		logger: logging.WithComponent("scheduler"),
	}
}

// Register adds the periodic analysis job for every configured symbol
func (s *Scheduler) Register() error {
	if _, err := s.cron.AddFunc(s.cfg.Spec, s.analyzeAll); err != nil {
		return fmt.Errorf("register analysis job: %w", err)
	}
	return nil
}

// Start starts the cron scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	logging.SchedulerContext("analyze", s.cfg.Spec).Info("Scheduler started")
}

// Stop stops the cron scheduler gracefully
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info("Scheduler stopped")
}

// RunNow executes the analysis job immediately
func (s *Scheduler) RunNow() {
	s.analyzeAll()
}

func (s *Scheduler) analyzeAll() {
	symbols := s.cfg.Symbols
	if len(symbols) == 0 {
		symbols = []string{""}
	}

	for _, symbol := range symbols {
		if s.ctx.Err() != nil {
			return
		}

		result, err := s.engine.Analyze(s.ctx, symbol)
		if err != nil {
			s.logger.Error("Scheduled analysis failed", "symbol", symbol, "error", err)
			continue
		}

		switch result.Status {
		case pipeline.StatusAwaitingDecision:
			s.logger.Debug("Symbol blocked on approval", "symbol", result.Symbol,
				"request_id", result.Request.ID)
		case pipeline.StatusProposed:
			s.logger.Info("Scheduled run proposed a trade", "symbol", result.Symbol,
				"request_id", result.Request.ID)
		default:
			s.logger.Debug("Scheduled run found no setup", "symbol", result.Symbol,
				"status", string(result.Status))
		}
	}
}

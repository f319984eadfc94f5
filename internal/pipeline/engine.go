package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sevenms-trading-bot/internal/approval"
	"sevenms-trading-bot/internal/broker"
	"sevenms-trading-bot/internal/events"
	"sevenms-trading-bot/internal/logging"
	"sevenms-trading-bot/internal/market"
	"sevenms-trading-bot/internal/risk"
	"sevenms-trading-bot/internal/strategy"
)

// Status classifies the outcome of an analysis run. A run that finds no
// setup is a legitimate negative result, not an error; the caller
// re-polls when more candles exist.
type Status string

const (
	// StatusProposed means a full setup was found and an approval
	// request is pending
	StatusProposed Status = "proposed"
	// StatusAwaitingDecision means an earlier run's request is still
	// unresolved, so this thread cannot progress
	StatusAwaitingDecision Status = "awaiting_decision"
	StatusNoTrend          Status = "no_trend"
	StatusNoSweep          Status = "no_sweep"
	StatusNoShift          Status = "no_shift"
)

// Config holds per-invocation pipeline settings
type Config struct {
	Symbol     string  `json:"symbol"`
	Volume     float64 `json:"volume"`
	BufferPips float64 `json:"buffer_pips"`
	Comment    string  `json:"comment"`
	TrendBars  int     `json:"trend_bars"`
	SetupBars  int     `json:"setup_bars"`
	EntryBars  int     `json:"entry_bars"`
}

// DefaultConfig returns the 7MS defaults for XAUUSD
func DefaultConfig() Config {
	return Config{
		Symbol:     "XAUUSD",
		Volume:     0.01,
		BufferPips: 20,
		Comment:    "7MS Strategy",
		TrendBars:  200,
		SetupBars:  200,
		EntryBars:  500,
	}
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Symbol == "" {
		c.Symbol = def.Symbol
	}
	if c.Volume <= 0 {
		c.Volume = def.Volume
	}
	if c.BufferPips <= 0 {
		c.BufferPips = def.BufferPips
	}
	if c.Comment == "" {
		c.Comment = def.Comment
	}
	if c.TrendBars <= 0 {
		c.TrendBars = def.TrendBars
	}
	if c.SetupBars <= 0 {
		c.SetupBars = def.SetupBars
	}
	if c.EntryBars <= 0 {
		c.EntryBars = def.EntryBars
	}
}

// AnalysisResult is the chain of findings from one analysis run
type AnalysisResult struct {
	RunID        string                                     `json:"run_id"`
	ThreadID     string                                     `json:"thread_id"`
	Symbol       string                                     `json:"symbol"`
	StartedAt    time.Time                                  `json:"started_at"`
	FinishedAt   time.Time                                  `json:"finished_at"`
	Status       Status                                     `json:"status"`
	CurrentPrice float64                                    `json:"current_price"`
	Bias         strategy.Direction                         `json:"bias,omitempty"`
	TrendBlocks  map[market.Timeframe][]strategy.OrderBlock `json:"trend_blocks,omitempty"`
	Sweep        *strategy.LiquiditySweep                   `json:"sweep,omitempty"`
	Shift        *strategy.StructureShift                   `json:"shift,omitempty"`
	POIs         []strategy.PointOfInterest                 `json:"pois,omitempty"`
	Parameters   *risk.Parameters                           `json:"parameters,omitempty"`
	Request      *approval.Request                          `json:"request,omitempty"`
}

// DecisionOutcome is the result of resolving an approval request
type DecisionOutcome struct {
	Request   *approval.Request       `json:"request"`
	Intent    *approval.OrderIntent   `json:"intent,omitempty"`
	Execution *broker.ExecutionResult `json:"execution,omitempty"`
}

// trendTimeframes in bias priority order, highest first
var trendTimeframes = []market.Timeframe{
	market.TimeframeD1,
	market.Timeframe4H,
	market.Timeframe1H,
}

// Engine runs the 7MS analysis chain: order blocks for trend, a 15M
// liquidity sweep for the setup, a 1M structure shift and POI for the
// entry, risk parameters, then the human approval gate. Each run is
// synchronous; runs for different symbols are independent threads.
type Engine struct {
	cfg     Config
	data    market.DataSource
	exec    broker.ExecutionClient
	gate    *approval.Gate
	bus     *events.Bus
	journal Journal
	logger  *logging.Logger

	blocks *strategy.OrderBlockDetector
	sweeps *strategy.LiquiditySweepDetector
	shifts *strategy.StructureShiftLocator
}

// NewEngine creates a pipeline engine. bus and journal may be nil.
func NewEngine(cfg Config, data market.DataSource, exec broker.ExecutionClient, gate *approval.Gate, bus *events.Bus, journal Journal) *Engine {
	cfg.applyDefaults()
	return &Engine{
		cfg:     cfg,
		data:    data,
		exec:    exec,
		gate:    gate,
		bus:     bus,
		journal: journal,
		logger:  logging.WithComponent("pipeline"),
		blocks:  strategy.NewOrderBlockDetector(),
		sweeps:  strategy.NewLiquiditySweepDetector(),
		shifts:  strategy.NewStructureShiftLocator(),
	}
}

// Analyze runs the full detection chain for the symbol. A result with
// StatusProposed carries the pending approval request; the not-found
// statuses are normal outcomes, not errors.
func (e *Engine) Analyze(ctx context.Context, symbol string) (*AnalysisResult, error) {
	if symbol == "" {
		symbol = e.cfg.Symbol
	}

	result := &AnalysisResult{
		RunID:     uuid.New().String(),
		ThreadID:  symbol,
		Symbol:    symbol,
		StartedAt: time.Now().UTC(),
	}
	log := logging.AnalysisContext(ctx, result.RunID, symbol)

	// An unresolved request blocks only this symbol's thread
	pending, err := e.gate.Pending(ctx, result.ThreadID)
	if err != nil {
		return nil, fmt.Errorf("checking pending approval: %w", err)
	}
	if pending != nil {
		result.Status = StatusAwaitingDecision
		result.Request = pending
		result.FinishedAt = time.Now().UTC()
		log.Info("Analysis skipped, approval pending", "request_id", pending.ID)
		return result, nil
	}

	e.publish(events.Event{Type: events.EventAnalysisStarted, Data: map[string]interface{}{
		"run_id": result.RunID,
		"symbol": symbol,
	}})

	price, err := e.data.GetCurrentPrice(symbol)
	if err != nil {
		e.publishError(err)
		return nil, fmt.Errorf("fetching current price: %w", err)
	}
	result.CurrentPrice = price

	bias, blocks, err := e.trendBias(symbol)
	if err != nil {
		e.publishError(err)
		return nil, err
	}
	result.TrendBlocks = blocks
	if bias == "" {
		return e.finish(ctx, result, StatusNoTrend, log)
	}
	result.Bias = bias

	sweep, err := e.latestSweep(symbol, bias)
	if err != nil {
		e.publishError(err)
		return nil, err
	}
	if sweep == nil {
		return e.finish(ctx, result, StatusNoSweep, log)
	}
	result.Sweep = sweep
	e.publishSignal(symbol, "liquidity_sweep", string(bias), sweep.SweptLevel)
	logging.SweepContext(symbol, string(sweep.Direction), string(sweep.Condition)).
		Info("Liquidity sweep confirmed", "level", sweep.SweptLevel)

	entrySeries, err := e.data.GetCandles(symbol, market.Timeframe1M, e.cfg.EntryBars)
	if err != nil {
		e.publishError(err)
		return nil, fmt.Errorf("fetching 1M candles: %w", err)
	}
	window := entrySeries.Since(sweep.ConfirmationTime)

	shift, found := e.shifts.Locate(window, bias)
	if !found {
		return e.finish(ctx, result, StatusNoShift, log)
	}
	result.Shift = &shift
	e.publishSignal(symbol, "structure_shift", string(bias), shift.Level)

	result.POIs = e.shifts.FindPOIs(window, shift)

	params, err := e.computeParameters(symbol, bias, price, &shift, result.POIs)
	if err != nil {
		e.publishError(err)
		return nil, err
	}
	result.Parameters = &params
	logging.RiskContext(symbol, params.StopLoss, params.TakeProfit).
		Debug("Trade levels computed", "entry", params.EntryPrice, "ratio", params.RiskRewardRatio)

	req, err := e.gate.Submit(ctx, result.ThreadID, symbol, params, e.cfg.Volume, e.cfg.Comment)
	if err != nil {
		e.publishError(err)
		return nil, fmt.Errorf("submitting approval request: %w", err)
	}
	result.Request = req

	if e.bus != nil {
		e.bus.PublishApprovalPending(req.ID, symbol, string(params.Side),
			params.EntryPrice, params.StopLoss, params.TakeProfit)
	}

	log.Info("Trade proposed",
		"request_id", req.ID,
		"side", string(params.Side),
		"entry", params.EntryPrice,
		"stop", params.StopLoss,
		"target", params.TakeProfit)

	return e.finish(ctx, result, StatusProposed, log)
}

// Decide resolves a pending approval request. An approved or edited
// request produces exactly one order submission; a rejected one produces
// none. Execution failures are surfaced, never retried.
func (e *Engine) Decide(ctx context.Context, requestID string, decision approval.Decision) (*DecisionOutcome, error) {
	intent, req, err := e.gate.Resolve(ctx, requestID, decision)
	if err != nil {
		return nil, err
	}

	outcome := &DecisionOutcome{Request: req, Intent: intent}
	logging.ApprovalContext(req.ID, req.ThreadID, req.Symbol).
		Info("Approval resolved", "decision", string(decision.Type))

	if e.bus != nil {
		e.bus.PublishApprovalResolved(req.ID, string(decision.Type), req.RejectReason)
	}
	if e.journal != nil {
		if err := e.journal.RecordDecision(ctx, req, decision); err != nil {
			e.logger.Warn("Journal decision write failed", "error", err)
		}
	}

	if intent == nil {
		return outcome, nil
	}

	execResult, execErr := e.exec.PlaceOrder(ctx, broker.OrderRequest{
		Symbol:     intent.Symbol,
		Side:       intent.Side,
		Volume:     intent.Volume,
		EntryPrice: intent.EntryPrice,
		StopLoss:   intent.StopLoss,
		TakeProfit: intent.TakeProfit,
		Comment:    intent.Comment,
	})
	outcome.Execution = execResult

	if e.journal != nil {
		if err := e.journal.RecordExecution(ctx, req.ID, execResult, execErr); err != nil {
			e.logger.Warn("Journal execution write failed", "error", err)
		}
	}

	if execErr != nil {
		e.publish(events.Event{Type: events.EventOrderRejected, Data: map[string]interface{}{
			"request_id": req.ID,
			"symbol":     intent.Symbol,
			"error":      execErr.Error(),
		}})
		return outcome, fmt.Errorf("order for request %s: %w", req.ID, execErr)
	}

	e.publish(events.Event{Type: events.EventOrderSubmitted, Data: map[string]interface{}{
		"request_id": req.ID,
		"symbol":     intent.Symbol,
		"deal":       execResult.Deal,
		"price":      execResult.Price,
	}})

	logging.OrderContext(intent.Symbol, string(intent.Side), intent.Volume, intent.EntryPrice).
		Info("Order executed", "deal", execResult.Deal, "price", execResult.Price)

	return outcome, nil
}

// Cancel aborts the symbol's run thread, resolving any pending request
// as an implicit reject
func (e *Engine) Cancel(ctx context.Context, symbol, reason string) (*approval.Request, error) {
	req, err := e.gate.Cancel(ctx, symbol, reason)
	if err != nil || req == nil {
		return req, err
	}
	if e.bus != nil {
		e.bus.PublishApprovalResolved(req.ID, string(approval.DecisionReject), req.RejectReason)
	}
	return req, nil
}

// PendingRequest returns the unresolved approval request for the symbol,
// or nil
func (e *Engine) PendingRequest(ctx context.Context, symbol string) (*approval.Request, error) {
	if symbol == "" {
		symbol = e.cfg.Symbol
	}
	return e.gate.Pending(ctx, symbol)
}

// OpenPositions is a read-through to the execution client
func (e *Engine) OpenPositions(ctx context.Context, symbol string) ([]broker.PositionSnapshot, error) {
	return e.exec.OpenPositions(ctx, symbol)
}

// trendBias detects order blocks on the trend timeframes and derives the
// bias from the most recently formed block, higher timeframes winning
// ties
func (e *Engine) trendBias(symbol string) (strategy.Direction, map[market.Timeframe][]strategy.OrderBlock, error) {
	all := make(map[market.Timeframe][]strategy.OrderBlock, len(trendTimeframes))

	var bias strategy.Direction
	var biasTF market.Timeframe
	var latest time.Time

	for _, tf := range trendTimeframes {
		series, err := e.data.GetCandles(symbol, tf, e.cfg.TrendBars)
		if err != nil {
			return "", nil, fmt.Errorf("fetching %s candles: %w", tf, err)
		}

		blocks := e.blocks.Detect(series, strategy.FilterBoth)
		if len(blocks) == 0 {
			continue
		}
		all[tf] = blocks

		last := blocks[len(blocks)-1]
		if last.Time.After(latest) {
			latest = last.Time
			bias = last.Direction
			biasTF = tf
		}
	}

	if bias != "" {
		logging.PatternContext(symbol, string(biasTF), "order_block").
			Debug("Trend bias resolved", "direction", string(bias))
	}

	return bias, all, nil
}

// latestSweep returns the most recent confirmed 15M sweep matching the
// bias, or nil
func (e *Engine) latestSweep(symbol string, bias strategy.Direction) (*strategy.LiquiditySweep, error) {
	series, err := e.data.GetCandles(symbol, market.Timeframe15M, e.cfg.SetupBars)
	if err != nil {
		return nil, fmt.Errorf("fetching 15M candles: %w", err)
	}

	sweeps := e.sweeps.Detect(series)
	for i := len(sweeps) - 1; i >= 0; i-- {
		if sweeps[i].Valid && sweeps[i].Direction == bias {
			sweep := sweeps[i]
			return &sweep, nil
		}
	}
	return nil, nil
}

// computeParameters derives the trade levels. The stop references the
// most recent POI boundary when one sits on the correct side of the
// entry, otherwise the structure-shift anchor.
func (e *Engine) computeParameters(symbol string, bias strategy.Direction, price float64, shift *strategy.StructureShift, pois []strategy.PointOfInterest) (risk.Parameters, error) {
	instrument, err := e.data.GetInstrument(symbol)
	if err != nil {
		e.logger.Warn("Instrument lookup failed, using defaults", "symbol", symbol, "error", err)
		instrument = market.DefaultInstrument()
		instrument.Symbol = symbol
	}
	calc := risk.NewCalculator(instrument)

	side := risk.Buy
	if bias == strategy.Bearish {
		side = risk.Sell
	}

	if len(pois) > 0 {
		poi := pois[len(pois)-1]
		reference := poi.ZoneLow
		if side == risk.Sell {
			reference = poi.ZoneHigh
		}
		params, err := calc.Compute(side, price, reference, false, e.cfg.BufferPips)
		if err == nil {
			return params, nil
		}
		if !errors.Is(err, risk.ErrInvalidReference) {
			return risk.Parameters{}, err
		}
		// POI sits on the wrong side of the entry; fall back to structure
	}

	return calc.Compute(side, price, shift.ZoneStart, true, e.cfg.BufferPips)
}

func (e *Engine) finish(ctx context.Context, result *AnalysisResult, status Status, log *logging.Logger) (*AnalysisResult, error) {
	result.Status = status
	result.FinishedAt = time.Now().UTC()

	e.publish(events.Event{Type: events.EventAnalysisCompleted, Data: map[string]interface{}{
		"run_id": result.RunID,
		"symbol": result.Symbol,
		"status": string(status),
	}})

	if e.journal != nil {
		if err := e.journal.RecordRun(ctx, result); err != nil {
			e.logger.Warn("Journal run write failed", "error", err)
		}
	}

	log.Info("Analysis completed", "status", string(status), "price", result.CurrentPrice)
	return result, nil
}

func (e *Engine) publish(event events.Event) {
	if e.bus != nil {
		e.bus.Publish(event)
	}
}

func (e *Engine) publishSignal(symbol, signalType, direction string, level float64) {
	if e.bus != nil {
		e.bus.PublishSignal(symbol, signalType, direction, level)
	}
}

func (e *Engine) publishError(err error) {
	if e.bus != nil {
		e.bus.PublishError("pipeline", err)
	}
}

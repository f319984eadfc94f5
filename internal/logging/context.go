package logging

import (
	"context"
	"crypto/rand"
	"encoding/hex"
)

type contextKey string

const loggerKey contextKey = "logger"

// GenerateTraceID generates a new trace ID
func GenerateTraceID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// FromContext retrieves the logger from context
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerKey).(*Logger); ok {
		return l
	}
	return Default()
}

// NewContext creates a new context with the logger
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// AnalysisContext creates a logger context for strategy analysis runs.
// The logger is derived from ctx so HTTP-triggered runs keep their trace ID.
func AnalysisContext(ctx context.Context, runID, symbol string) *Logger {
	return FromContext(ctx).WithFields(map[string]interface{}{
		"run_id": runID,
		"symbol": symbol,
	}).WithComponent("analysis")
}

// PatternContext creates a logger context for pattern detection
func PatternContext(symbol, timeframe, patternType string) *Logger {
	return Default().WithFields(map[string]interface{}{
		"symbol":       symbol,
		"timeframe":    timeframe,
		"pattern_type": patternType,
	}).WithComponent("pattern")
}

// SweepContext creates a logger context for liquidity sweep detection
func SweepContext(symbol, direction, condition string) *Logger {
	return Default().WithFields(map[string]interface{}{
		"symbol":    symbol,
		"direction": direction,
		"condition": condition,
	}).WithComponent("sweep")
}

// ApprovalContext creates a logger context for approval gate operations
func ApprovalContext(requestID, threadID, symbol string) *Logger {
	return Default().WithFields(map[string]interface{}{
		"request_id": requestID,
		"thread_id":  threadID,
		"symbol":     symbol,
	}).WithComponent("approval")
}

// OrderContext creates a logger context for order operations
func OrderContext(symbol, side string, volume, entryPrice float64) *Logger {
	return Default().WithFields(map[string]interface{}{
		"symbol":      symbol,
		"side":        side,
		"volume":      volume,
		"entry_price": entryPrice,
	}).WithComponent("order")
}

// RiskContext creates a logger context for risk calculations
func RiskContext(symbol string, stopLoss, takeProfit float64) *Logger {
	return Default().WithFields(map[string]interface{}{
		"symbol":      symbol,
		"stop_loss":   stopLoss,
		"take_profit": takeProfit,
	}).WithComponent("risk")
}

// BridgeContext creates a logger context for MT5 bridge calls
func BridgeContext(endpoint string, params map[string]interface{}) *Logger {
	l := Default().WithFields(map[string]interface{}{
		"endpoint": endpoint,
	}).WithComponent("bridge")

	// Exclude sensitive data
	for k, v := range params {
		if k != "token" && k != "password" {
			l = l.WithField(k, v)
		}
	}

	return l
}

// DatabaseContext creates a logger context for database operations
func DatabaseContext(operation, table string) *Logger {
	return Default().WithFields(map[string]interface{}{
		"operation": operation,
		"table":     table,
	}).WithComponent("database")
}

// SchedulerContext creates a logger context for scheduled analysis jobs
func SchedulerContext(job, schedule string) *Logger {
	return Default().WithFields(map[string]interface{}{
		"job":      job,
		"schedule": schedule,
	}).WithComponent("scheduler")
}

// WebSocketContext creates a logger context for WebSocket operations
func WebSocketContext(clientAddr string) *Logger {
	return Default().WithFields(map[string]interface{}{
		"client": clientAddr,
	}).WithComponent("websocket")
}

package broker

import (
	"context"
	"sync"

	"sevenms-trading-bot/internal/risk"
)

// MockClient simulates order execution for development and tests. Every
// order fills at its requested entry price and appears as an open position.
type MockClient struct {
	mu         sync.Mutex
	nextTicket int64
	positions  []PositionSnapshot

	// RejectWith, when non-zero, makes PlaceOrder fail with that retcode
	RejectWith int
}

var _ ExecutionClient = (*MockClient)(nil)

// NewMockClient creates a simulated execution client
func NewMockClient() *MockClient {
	return &MockClient{nextTicket: 100000}
}

func (m *MockClient) PlaceOrder(_ context.Context, order OrderRequest) (*ExecutionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.RejectWith != 0 {
		result := &ExecutionResult{
			Retcode:     m.RejectWith,
			Description: RetcodeDescription(m.RejectWith),
		}
		return result, ErrExecutionRejected
	}

	m.nextTicket++
	spread := 0.20
	bid := order.EntryPrice - spread/2
	ask := order.EntryPrice + spread/2

	fill := ask
	if order.Side == risk.Sell {
		fill = bid
	}

	m.positions = append(m.positions, PositionSnapshot{
		Ticket:       m.nextTicket,
		Symbol:       order.Symbol,
		Side:         order.Side,
		Volume:       order.Volume,
		PriceOpen:    fill,
		StopLoss:     order.StopLoss,
		TakeProfit:   order.TakeProfit,
		PriceCurrent: fill,
		Comment:      order.Comment,
	})

	return &ExecutionResult{
		Retcode:     RetcodeDone,
		Description: RetcodeDescription(RetcodeDone),
		Deal:        m.nextTicket,
		Order:       m.nextTicket,
		Volume:      order.Volume,
		Price:       fill,
		Bid:         bid,
		Ask:         ask,
		Comment:     order.Comment,
	}, nil
}

func (m *MockClient) OpenPositions(_ context.Context, symbol string) ([]PositionSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if symbol == "" {
		out := make([]PositionSnapshot, len(m.positions))
		copy(out, m.positions)
		return out, nil
	}

	var out []PositionSnapshot
	for _, pos := range m.positions {
		if pos.Symbol == symbol {
			out = append(out, pos)
		}
	}
	return out, nil
}

package broker

import (
	"context"
	"errors"

	"sevenms-trading-bot/internal/risk"
)

// ErrExecutionRejected marks an order the bridge accepted over the wire but
// the trade server refused. The result still carries the retcode detail.
var ErrExecutionRejected = errors.New("order rejected by trade server")

// OrderRequest is a market order handed to the execution client. Entry price
// is advisory: the bridge fills at the current market price and keeps the
// stop and target as given.
type OrderRequest struct {
	Symbol     string    `json:"symbol"`
	Side       risk.Side `json:"side"`
	Volume     float64   `json:"volume"`
	EntryPrice float64   `json:"entryPrice"`
	StopLoss   float64   `json:"stopLoss"`
	TakeProfit float64   `json:"takeProfit"`
	Comment    string    `json:"comment"`
}

// ExecutionResult reports the outcome of an order submission
type ExecutionResult struct {
	Retcode     int     `json:"retcode"`
	Description string  `json:"description"`
	Deal        int64   `json:"deal"`
	Order       int64   `json:"order"`
	Volume      float64 `json:"volume"`
	Price       float64 `json:"price"`
	Bid         float64 `json:"bid"`
	Ask         float64 `json:"ask"`
	Comment     string  `json:"comment"`
}

// Success reports whether the trade server completed the request
func (r *ExecutionResult) Success() bool {
	return r.Retcode == RetcodeDone || r.Retcode == RetcodeDonePartial
}

// PositionSnapshot describes an open position on the account
type PositionSnapshot struct {
	Ticket       int64     `json:"ticket"`
	Symbol       string    `json:"symbol"`
	Side         risk.Side `json:"side"`
	Volume       float64   `json:"volume"`
	PriceOpen    float64   `json:"priceOpen"`
	StopLoss     float64   `json:"stopLoss"`
	TakeProfit   float64   `json:"takeProfit"`
	PriceCurrent float64   `json:"priceCurrent"`
	Profit       float64   `json:"profit"`
	Comment      string    `json:"comment"`
}

// ExecutionClient places orders and reads account state
type ExecutionClient interface {
	PlaceOrder(ctx context.Context, order OrderRequest) (*ExecutionResult, error)
	OpenPositions(ctx context.Context, symbol string) ([]PositionSnapshot, error)
}

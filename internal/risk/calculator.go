package risk

import (
	"errors"
	"fmt"

	"sevenms-trading-bot/internal/market"
)

// Side is the trade direction of a proposed order
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// ErrInvalidReference is returned when the stop reference level sits on
// the wrong side of the entry price for the given direction
var ErrInvalidReference = errors.New("reference level on wrong side of entry")

// Parameters holds the computed entry, stop and target for one trade
// proposal. Produced once per Compute invocation; immutable.
type Parameters struct {
	Side            Side    `json:"side"`
	EntryPrice      float64 `json:"entry_price"`
	StopLoss        float64 `json:"stop_loss"`
	TakeProfit      float64 `json:"take_profit"`
	RiskPoints      float64 `json:"risk_points"`
	RewardPoints    float64 `json:"reward_points"`
	RiskRewardRatio float64 `json:"risk_reward_ratio"`
	RiskPips        float64 `json:"risk_pips"`
	RewardPips      float64 `json:"reward_pips"`
	BufferPoints    float64 `json:"buffer_points"`
	StructureStop   bool    `json:"structure_stop"` // stop anchored to the MSS level rather than a POI
}

// Calculator derives stop and target prices from a reference level.
// The 2:1 reward-to-risk ratio is the computed value, not a check: the
// target is always placed at twice the stop distance.
type Calculator struct {
	instrument market.Instrument
}

// NewCalculator creates a calculator for the given instrument
func NewCalculator(instrument market.Instrument) *Calculator {
	return &Calculator{instrument: instrument}
}

// Compute derives stop loss and take profit for a trade.
//
// referenceLevel is the POI boundary under (buy) or over (sell) the
// entry, or the structure-shift level when useStructureLevel is set.
// bufferPips widens the stop past the reference (20 pips by default in
// the 7MS rules). Price fields are rounded to the instrument precision;
// point and pip fields are reported unrounded for diagnostics.
func (c *Calculator) Compute(side Side, entryPrice, referenceLevel float64, useStructureLevel bool, bufferPips float64) (Parameters, error) {
	if entryPrice <= 0 {
		return Parameters{}, fmt.Errorf("entry price must be positive, got %v", entryPrice)
	}

	buffer := c.instrument.PipsToPrice(bufferPips)

	var stop, target, riskDistance float64
	switch side {
	case Buy:
		if referenceLevel > entryPrice {
			return Parameters{}, fmt.Errorf("%w: buy stop reference %v above entry %v", ErrInvalidReference, referenceLevel, entryPrice)
		}
		stop = referenceLevel - buffer
		riskDistance = entryPrice - stop
		target = entryPrice + 2*riskDistance
	case Sell:
		if referenceLevel < entryPrice {
			return Parameters{}, fmt.Errorf("%w: sell stop reference %v below entry %v", ErrInvalidReference, referenceLevel, entryPrice)
		}
		stop = referenceLevel + buffer
		riskDistance = stop - entryPrice
		target = entryPrice - 2*riskDistance
	default:
		return Parameters{}, fmt.Errorf("unknown side %q", side)
	}

	riskPoints := c.instrument.PriceToPoints(riskDistance)
	rewardPoints := riskPoints * 2

	ratio := 0.0
	if riskPoints > 0 {
		ratio = rewardPoints / riskPoints
	}

	return Parameters{
		Side:            side,
		EntryPrice:      c.instrument.Round(entryPrice),
		StopLoss:        c.instrument.Round(stop),
		TakeProfit:      c.instrument.Round(target),
		RiskPoints:      riskPoints,
		RewardPoints:    rewardPoints,
		RiskRewardRatio: ratio,
		RiskPips:        riskPoints / 10,
		RewardPips:      rewardPoints / 10,
		BufferPoints:    c.instrument.PriceToPoints(buffer),
		StructureStop:   useStructureLevel,
	}, nil
}

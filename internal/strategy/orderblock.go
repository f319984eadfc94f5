package strategy

import (
	"time"

	"sevenms-trading-bot/internal/market"
)

// Direction represents the bias of a detected signal
type Direction string

const (
	Bullish Direction = "bullish"
	Bearish Direction = "bearish"
)

// Filter selects which signal directions a detector reports
type Filter string

const (
	FilterBullish Filter = "bullish"
	FilterBearish Filter = "bearish"
	FilterBoth    Filter = "both"
)

// Classification marks how an order block is expected to behave.
// Daily and 4H blocks give heavy reversals; 1H and 15M blocks act as
// continuation zones.
type Classification string

const (
	Reversal     Classification = "reversal"
	Continuation Classification = "continuation"
)

// OrderBlock is a candle range preceding a strong directional move with a
// gap, acting as a supply or demand zone
type OrderBlock struct {
	Direction         Direction        `json:"direction"`
	Timeframe         market.Timeframe `json:"timeframe"`
	Time              time.Time        `json:"time"`
	ZoneLow           float64          `json:"zone_low"`
	ZoneHigh          float64          `json:"zone_high"`
	GapSize           float64          `json:"gap_size"`
	Classification    Classification   `json:"classification"`
	DistanceFromPrice float64          `json:"distance_from_price"`
}

// OrderBlockDetector scans candle history for bullish and bearish
// order-block zones
type OrderBlockDetector struct{}

// NewOrderBlockDetector creates an order block detector
func NewOrderBlockDetector() *OrderBlockDetector {
	return &OrderBlockDetector{}
}

// Detect scans the series for order blocks, most recent last.
//
// A bullish block forms when the middle candle of a triple closes above the
// first candle's high with a positive open gap, and the third candle's low
// later taps back into the first candle's range. Bearish is the mirror
// image. Later re-detections of the same physical zone from a shifted
// window are expected; reconciling them is the caller's responsibility.
func (d *OrderBlockDetector) Detect(series *market.Series, filter Filter) []OrderBlock {
	if series.Len() < 3 {
		return nil
	}

	candles := series.Candles
	lastClose := series.LastClose()
	class := classify(series.Timeframe)

	var blocks []OrderBlock

	for i := 2; i < len(candles); i++ {
		c1, c2, c3 := candles[i-2], candles[i-1], candles[i]

		if filter == FilterBullish || filter == FilterBoth {
			if c2.Close > c1.High {
				gap := c2.Open - c1.High
				if gap > 0 && c3.Low <= c1.High {
					blocks = append(blocks, OrderBlock{
						Direction:         Bullish,
						Timeframe:         series.Timeframe,
						Time:              c1.Time,
						ZoneLow:           c1.Low,
						ZoneHigh:          c1.High,
						GapSize:           gap,
						Classification:    class,
						DistanceFromPrice: lastClose - c1.High,
					})
				}
			}
		}

		if filter == FilterBearish || filter == FilterBoth {
			if c2.Close < c1.Low {
				gap := c1.Low - c2.Open
				if gap > 0 && c3.High >= c1.Low {
					blocks = append(blocks, OrderBlock{
						Direction:         Bearish,
						Timeframe:         series.Timeframe,
						Time:              c1.Time,
						ZoneLow:           c1.Low,
						ZoneHigh:          c1.High,
						GapSize:           gap,
						Classification:    class,
						DistanceFromPrice: lastClose - c1.Low,
					})
				}
			}
		}
	}

	return blocks
}

func classify(tf market.Timeframe) Classification {
	if tf == market.Timeframe4H || tf == market.TimeframeD1 {
		return Reversal
	}
	return Continuation
}

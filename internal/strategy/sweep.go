package strategy

import (
	"time"

	"sevenms-trading-bot/internal/market"
)

// SweepCondition names which rule confirmed a liquidity sweep
type SweepCondition string

const (
	WickSweep          SweepCondition = "wick_sweep"
	TwoCandleRejection SweepCondition = "two_candle_rejection"
)

// LiquiditySweep is a brief excursion past a prior extreme that reverses,
// taking out resting orders. A sweep is only ever reported once its
// confirming candle exists.
type LiquiditySweep struct {
	Direction        Direction      `json:"direction"`
	Condition        SweepCondition `json:"condition"`
	SweepTime        time.Time      `json:"sweep_time"`
	SweptLevel       float64        `json:"swept_level"`
	SweepExtreme     float64        `json:"sweep_extreme"` // sweep candle low (bullish) or high (bearish)
	ClosePrice       float64        `json:"close_price"`
	ConfirmationTime time.Time      `json:"confirmation_time"`
	BodyRatio        float64        `json:"body_ratio,omitempty"`    // first candle body/range, two-candle rule only
	InverseRatio     float64        `json:"inverse_ratio,omitempty"` // second/first body ratio, two-candle rule only
	Valid            bool           `json:"valid"`
}

// LiquiditySweepDetector detects 15M liquidity sweep setups.
// recentWindow is the number of preceding candles whose extreme defines
// the swept level.
type LiquiditySweepDetector struct {
	recentWindow  int
	maxBodyRatio  float64 // first candle body/range ceiling for two-candle rejection
	minInverseLen float64 // second candle body floor relative to the first
}

// NewLiquiditySweepDetector creates a sweep detector with the 7MS defaults:
// 5-candle extreme window, 30% body ceiling, 40% inverse floor
func NewLiquiditySweepDetector() *LiquiditySweepDetector {
	return &LiquiditySweepDetector{
		recentWindow:  5,
		maxBodyRatio:  0.30,
		minInverseLen: 0.40,
	}
}

// Detect scans the series for confirmed sweeps, most recent last.
// Both conditions may fire at the same index; both are reported.
func (d *LiquiditySweepDetector) Detect(series *market.Series) []LiquiditySweep {
	n := series.Len()
	if n < d.recentWindow+3 {
		return nil
	}

	candles := series.Candles
	var sweeps []LiquiditySweep

	for i := d.recentWindow; i < n-2; i++ {
		current := candles[i]
		next := candles[i+1]

		recentLow := lowestLow(candles[i-d.recentWindow : i])
		recentHigh := highestHigh(candles[i-d.recentWindow : i])

		// Bullish wick sweep: dip below the recent low, close back above it,
		// confirmation candle closes and stays above the swept level.
		if current.Low < recentLow && current.Close > recentLow {
			if next.Close > recentLow && next.Low > recentLow {
				sweeps = append(sweeps, LiquiditySweep{
					Direction:        Bullish,
					Condition:        WickSweep,
					SweepTime:        current.Time,
					SweptLevel:       recentLow,
					SweepExtreme:     current.Low,
					ClosePrice:       current.Close,
					ConfirmationTime: next.Time,
					Valid:            true,
				})
			}
		}

		// Bullish two-candle rejection: thin-bodied bearish candle closes
		// below the recent low, then a bullish candle closes back above it
		// with a body at least 40% of the first candle's.
		bodyRatio := current.BodyRatio()
		if current.Bearish() && bodyRatio <= d.maxBodyRatio && current.Close < recentLow {
			if next.Bullish() && next.Close > recentLow && next.Body() >= current.Body()*d.minInverseLen {
				sweeps = append(sweeps, LiquiditySweep{
					Direction:        Bullish,
					Condition:        TwoCandleRejection,
					SweepTime:        current.Time,
					SweptLevel:       recentLow,
					SweepExtreme:     current.Low,
					ClosePrice:       current.Close,
					ConfirmationTime: next.Time,
					BodyRatio:        bodyRatio,
					InverseRatio:     inverseRatio(next.Body(), current.Body()),
					Valid:            true,
				})
			}
		}

		// Bearish wick sweep
		if current.High > recentHigh && current.Close < recentHigh {
			if next.Close < recentHigh && next.High < recentHigh {
				sweeps = append(sweeps, LiquiditySweep{
					Direction:        Bearish,
					Condition:        WickSweep,
					SweepTime:        current.Time,
					SweptLevel:       recentHigh,
					SweepExtreme:     current.High,
					ClosePrice:       current.Close,
					ConfirmationTime: next.Time,
					Valid:            true,
				})
			}
		}

		// Bearish two-candle rejection
		if current.Bullish() && bodyRatio <= d.maxBodyRatio && current.Close > recentHigh {
			if next.Bearish() && next.Close < recentHigh && next.Body() >= current.Body()*d.minInverseLen {
				sweeps = append(sweeps, LiquiditySweep{
					Direction:        Bearish,
					Condition:        TwoCandleRejection,
					SweepTime:        current.Time,
					SweptLevel:       recentHigh,
					SweepExtreme:     current.High,
					ClosePrice:       current.Close,
					ConfirmationTime: next.Time,
					BodyRatio:        bodyRatio,
					InverseRatio:     inverseRatio(next.Body(), current.Body()),
					Valid:            true,
				})
			}
		}
	}

	return sweeps
}

func lowestLow(candles []market.Candle) float64 {
	low := candles[0].Low
	for _, c := range candles[1:] {
		if c.Low < low {
			low = c.Low
		}
	}
	return low
}

func highestHigh(candles []market.Candle) float64 {
	high := candles[0].High
	for _, c := range candles[1:] {
		if c.High > high {
			high = c.High
		}
	}
	return high
}

func inverseRatio(second, first float64) float64 {
	if first <= 0 {
		return 0
	}
	return second / first
}

package market

import "time"

// Timeframe represents a chart timeframe supported by the MT5 bridge
type Timeframe string

const (
	Timeframe1M  Timeframe = "1M"
	Timeframe15M Timeframe = "15M"
	Timeframe1H  Timeframe = "1H"
	Timeframe4H  Timeframe = "4H"
	TimeframeD1  Timeframe = "D1"
)

// Duration returns the bar duration for the timeframe
func (tf Timeframe) Duration() time.Duration {
	switch tf {
	case Timeframe1M:
		return time.Minute
	case Timeframe15M:
		return 15 * time.Minute
	case Timeframe1H:
		return time.Hour
	case Timeframe4H:
		return 4 * time.Hour
	case TimeframeD1:
		return 24 * time.Hour
	default:
		return time.Minute
	}
}

// Valid reports whether the timeframe is one the bridge can serve
func (tf Timeframe) Valid() bool {
	switch tf {
	case Timeframe1M, Timeframe15M, Timeframe1H, Timeframe4H, TimeframeD1:
		return true
	}
	return false
}

// Candle represents a single OHLC bar. Immutable once produced.
type Candle struct {
	Time  time.Time `json:"time"`
	Open  float64   `json:"open"`
	High  float64   `json:"high"`
	Low   float64   `json:"low"`
	Close float64   `json:"close"`
}

// Body returns the absolute candle body size
func (c Candle) Body() float64 {
	if c.Close >= c.Open {
		return c.Close - c.Open
	}
	return c.Open - c.Close
}

// Range returns the high-to-low extent of the candle
func (c Candle) Range() float64 {
	return c.High - c.Low
}

// BodyRatio returns body/range. A zero-range candle yields 0, never a fault.
func (c Candle) BodyRatio() float64 {
	r := c.Range()
	if r <= 0 {
		return 0
	}
	return c.Body() / r
}

// Bullish reports whether the candle closed above its open
func (c Candle) Bullish() bool {
	return c.Close > c.Open
}

// Bearish reports whether the candle closed below its open
func (c Candle) Bearish() bool {
	return c.Close < c.Open
}

package market

import "time"

// Series is an ordered OHLC history for one (symbol, timeframe) pair.
// Detectors only read it; the data source owns it.
type Series struct {
	Symbol    string    `json:"symbol"`
	Timeframe Timeframe `json:"timeframe"`
	Candles   []Candle  `json:"candles"`
}

// Len returns the number of candles in the series
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Candles)
}

// Last returns the most recent candle, or false when the series is empty
func (s *Series) Last() (Candle, bool) {
	if s.Len() == 0 {
		return Candle{}, false
	}
	return s.Candles[len(s.Candles)-1], true
}

// LastClose returns the close of the most recent candle, 0 when empty
func (s *Series) LastClose() float64 {
	c, ok := s.Last()
	if !ok {
		return 0
	}
	return c.Close
}

// Since returns a sub-series containing only candles at or after t.
// The returned series shares the underlying candle slice.
func (s *Series) Since(t time.Time) *Series {
	if s == nil {
		return nil
	}
	for i, c := range s.Candles {
		if !c.Time.Before(t) {
			return &Series{Symbol: s.Symbol, Timeframe: s.Timeframe, Candles: s.Candles[i:]}
		}
	}
	return &Series{Symbol: s.Symbol, Timeframe: s.Timeframe}
}

// HighestHigh returns the index and value of the highest high in the series.
// Returns index -1 for an empty series.
func (s *Series) HighestHigh() (int, float64) {
	idx, best := -1, 0.0
	for i, c := range s.Candles {
		if idx == -1 || c.High > best {
			idx, best = i, c.High
		}
	}
	return idx, best
}

// LowestLow returns the index and value of the lowest low in the series.
// Returns index -1 for an empty series.
func (s *Series) LowestLow() (int, float64) {
	idx, best := -1, 0.0
	for i, c := range s.Candles {
		if idx == -1 || c.Low < best {
			idx, best = i, c.Low
		}
	}
	return idx, best
}

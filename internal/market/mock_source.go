package market

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// MockSource provides simulated market data for development and testing.
// Data is generated by a seeded random walk so repeated calls within a
// run are reproducible.
type MockSource struct {
	mu     sync.Mutex
	prices map[string]float64
	rng    *rand.Rand
}

// NewMockSource creates a mock data source with realistic base prices
func NewMockSource() *MockSource {
	return &MockSource{
		prices: map[string]float64{
			"XAUUSD": 4190.00,
			"XAGUSD": 48.50,
			"EURUSD": 1.0850,
			"GBPUSD": 1.2700,
			"USDJPY": 148.50,
		},
		rng: rand.New(rand.NewSource(7)),
	}
}

// GetCandles returns a simulated candle series, oldest first
func (m *MockSource) GetCandles(symbol string, timeframe Timeframe, bars int) (*Series, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	basePrice, ok := m.prices[symbol]
	if !ok {
		basePrice = 100.0
	}

	interval := timeframe.Duration()
	now := time.Now().UTC().Truncate(interval)

	series := &Series{
		Symbol:    symbol,
		Timeframe: timeframe,
		Candles:   make([]Candle, bars),
	}

	price := basePrice
	for i := 0; i < bars; i++ {
		openTime := now.Add(-time.Duration(bars-i) * interval)

		volatility := 0.002
		open := price
		change := (m.rng.Float64() - 0.5) * volatility * 2
		close := open * (1 + change)
		high := math.Max(open, close) * (1 + m.rng.Float64()*volatility*0.5)
		low := math.Min(open, close) * (1 - m.rng.Float64()*volatility*0.5)

		series.Candles[i] = Candle{
			Time:  openTime,
			Open:  open,
			High:  high,
			Low:   low,
			Close: close,
		}
		price = close
	}

	return series, nil
}

// GetCurrentPrice returns the latest simulated price for the symbol
func (m *MockSource) GetCurrentPrice(symbol string) (float64, error) {
	series, err := m.GetCandles(symbol, Timeframe1M, 1)
	if err != nil {
		return 0, err
	}
	return series.LastClose(), nil
}

// GetInstrument returns static metadata for the simulated symbol
func (m *MockSource) GetInstrument(symbol string) (Instrument, error) {
	inst := DefaultInstrument()
	inst.Symbol = symbol
	return inst, nil
}

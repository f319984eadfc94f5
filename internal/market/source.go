package market

import "errors"

// ErrDataUnavailable is returned when the feed cannot supply the requested
// history. A short or empty series is not an error; callers treat it as a
// "nothing found" input.
var ErrDataUnavailable = errors.New("market data unavailable")

// DataSource supplies candle history and quotes for the strategy pipeline
type DataSource interface {
	GetCandles(symbol string, timeframe Timeframe, bars int) (*Series, error)
	GetCurrentPrice(symbol string) (float64, error)
	GetInstrument(symbol string) (Instrument, error)
}

// Ensure both implementations satisfy DataSource
var _ DataSource = (*BridgeClient)(nil)
var _ DataSource = (*MockSource)(nil)

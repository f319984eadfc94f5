package market

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// BridgeClient fetches market data from the MT5 bridge REST service.
// The bridge wraps a MetaTrader 5 terminal and serves OHLC history,
// ticks and symbol metadata over HTTP.
type BridgeClient struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
}

// NewBridgeClient creates a market data client for the given bridge endpoint
func NewBridgeClient(baseURL, authToken string) *BridgeClient {
	return &BridgeClient{
		baseURL:    baseURL,
		authToken:  authToken,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type bridgeCandle struct {
	Time  int64   `json:"time"` // unix seconds
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

type bridgeCandleResponse struct {
	Symbol    string         `json:"symbol"`
	Timeframe string         `json:"timeframe"`
	Candles   []bridgeCandle `json:"candles"`
}

// GetCandles fetches up to bars candles for the symbol and timeframe,
// oldest first
func (c *BridgeClient) GetCandles(symbol string, timeframe Timeframe, bars int) (*Series, error) {
	if !timeframe.Valid() {
		return nil, fmt.Errorf("invalid timeframe %q", timeframe)
	}

	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("timeframe", string(timeframe))
	params.Set("bars", strconv.Itoa(bars))

	var payload bridgeCandleResponse
	if err := c.getJSON("/api/v1/candles?"+params.Encode(), &payload); err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrDataUnavailable, symbol, timeframe, err)
	}

	series := &Series{
		Symbol:    symbol,
		Timeframe: timeframe,
		Candles:   make([]Candle, len(payload.Candles)),
	}
	for i, raw := range payload.Candles {
		series.Candles[i] = Candle{
			Time:  time.Unix(raw.Time, 0).UTC(),
			Open:  raw.Open,
			High:  raw.High,
			Low:   raw.Low,
			Close: raw.Close,
		}
	}

	return series, nil
}

// GetCurrentPrice returns the last tick price for the symbol
func (c *BridgeClient) GetCurrentPrice(symbol string) (float64, error) {
	var payload struct {
		Symbol string  `json:"symbol"`
		Bid    float64 `json:"bid"`
		Ask    float64 `json:"ask"`
		Last   float64 `json:"last"`
	}

	if err := c.getJSON("/api/v1/tick?symbol="+url.QueryEscape(symbol), &payload); err != nil {
		return 0, fmt.Errorf("%w: tick for %s: %v", ErrDataUnavailable, symbol, err)
	}

	if payload.Last > 0 {
		return payload.Last, nil
	}
	// Some brokers do not publish a last price; fall back to mid
	return (payload.Bid + payload.Ask) / 2, nil
}

// GetInstrument returns symbol metadata (point size, digits, minimum volume)
func (c *BridgeClient) GetInstrument(symbol string) (Instrument, error) {
	var payload Instrument
	if err := c.getJSON("/api/v1/symbols/"+url.PathEscape(symbol), &payload); err != nil {
		return Instrument{}, fmt.Errorf("%w: symbol info for %s: %v", ErrDataUnavailable, symbol, err)
	}
	return payload, nil
}

func (c *BridgeClient) getJSON(path string, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("error building request: %w", err)
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error calling bridge: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bridge error: %s", string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("error parsing response: %w", err)
	}

	return nil
}

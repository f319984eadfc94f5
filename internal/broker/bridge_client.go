package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"sevenms-trading-bot/internal/logging"
)

// BridgeClient submits orders through the MT5 bridge REST service, the
// same gateway the market data client talks to
type BridgeClient struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
}

var _ ExecutionClient = (*BridgeClient)(nil)

// NewBridgeClient creates an execution client for the given bridge endpoint
func NewBridgeClient(baseURL, authToken string) *BridgeClient {
	return &BridgeClient{
		baseURL:    baseURL,
		authToken:  authToken,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// PlaceOrder submits a market order. A non-nil result with
// ErrExecutionRejected means the bridge reached the trade server but the
// server refused the request; the retcode in the result says why.
func (c *BridgeClient) PlaceOrder(ctx context.Context, order OrderRequest) (*ExecutionResult, error) {
	logging.BridgeContext("/api/v1/orders", map[string]interface{}{
		"symbol": order.Symbol,
		"side":   string(order.Side),
		"volume": order.Volume,
	}).Debug("Submitting order to bridge")

	var result ExecutionResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/orders", order, &result); err != nil {
		return nil, err
	}

	if result.Description == "" {
		result.Description = RetcodeDescription(result.Retcode)
	}
	if !result.Success() {
		return &result, fmt.Errorf("%w: %s (retcode %d)", ErrExecutionRejected, result.Description, result.Retcode)
	}
	return &result, nil
}

// OpenPositions lists the open positions for the symbol, or all positions
// when symbol is empty
func (c *BridgeClient) OpenPositions(ctx context.Context, symbol string) ([]PositionSnapshot, error) {
	path := "/api/v1/positions"
	if symbol != "" {
		path += "?symbol=" + url.QueryEscape(symbol)
	}

	var payload struct {
		Positions []PositionSnapshot `json:"positions"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Positions, nil
}

func (c *BridgeClient) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("error encoding request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("error building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error calling bridge: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bridge error: %s", string(raw))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("error parsing response: %w", err)
	}
	return nil
}

package broker

import (
	"context"
	"errors"
	"strings"
	"testing"

	"sevenms-trading-bot/internal/risk"
)

func TestMockOrderFillsAndOpensPosition(t *testing.T) {
	client := NewMockClient()

	result, err := client.PlaceOrder(context.Background(), OrderRequest{
		Symbol:     "XAUUSD",
		Side:       risk.Buy,
		Volume:     0.01,
		EntryPrice: 4190.0,
		StopLoss:   4178.0,
		TakeProfit: 4214.0,
		Comment:    "7MS Strategy",
	})
	if err != nil {
		t.Fatalf("place order failed: %v", err)
	}
	if !result.Success() {
		t.Errorf("expected success, got retcode %d", result.Retcode)
	}
	if result.Price <= 4190.0 {
		t.Errorf("buy should fill at the ask, got %v", result.Price)
	}

	positions, err := client.OpenPositions(context.Background(), "XAUUSD")
	if err != nil {
		t.Fatalf("open positions failed: %v", err)
	}
	if len(positions) != 1 {
		t.Fatalf("expected 1 position, got %d", len(positions))
	}
	if positions[0].StopLoss != 4178.0 || positions[0].TakeProfit != 4214.0 {
		t.Errorf("position must keep the requested stops, got sl=%v tp=%v",
			positions[0].StopLoss, positions[0].TakeProfit)
	}

	if positions, _ := client.OpenPositions(context.Background(), "EURUSD"); len(positions) != 0 {
		t.Errorf("unrelated symbol should have no positions, got %d", len(positions))
	}
}

func TestMockRejection(t *testing.T) {
	client := NewMockClient()
	client.RejectWith = RetcodeNoMoney

	result, err := client.PlaceOrder(context.Background(), OrderRequest{
		Symbol: "XAUUSD",
		Side:   risk.Sell,
		Volume: 0.01,
	})
	if !errors.Is(err, ErrExecutionRejected) {
		t.Fatalf("expected ErrExecutionRejected, got %v", err)
	}
	if result == nil || result.Retcode != RetcodeNoMoney {
		t.Error("rejection result should carry the retcode")
	}

	if positions, _ := client.OpenPositions(context.Background(), ""); len(positions) != 0 {
		t.Error("rejected order must not open a position")
	}
}

func TestRetcodeDescriptions(t *testing.T) {
	if got := RetcodeDescription(RetcodeDone); got != "Request completed" {
		t.Errorf("unexpected description for done: %q", got)
	}
	if got := RetcodeDescription(RetcodeInvalidStops); got != "Invalid stops in the request" {
		t.Errorf("unexpected description for invalid stops: %q", got)
	}
	if got := RetcodeDescription(99999); !strings.Contains(got, "99999") {
		t.Errorf("unknown retcode should include the code, got %q", got)
	}
}

func TestResultSuccess(t *testing.T) {
	cases := []struct {
		retcode int
		want    bool
	}{
		{RetcodeDone, true},
		{RetcodeDonePartial, true},
		{RetcodeReject, false},
		{RetcodeRequote, false},
	}
	for _, tc := range cases {
		result := ExecutionResult{Retcode: tc.retcode}
		if result.Success() != tc.want {
			t.Errorf("retcode %d: expected success=%v", tc.retcode, tc.want)
		}
	}
}

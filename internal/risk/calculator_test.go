package risk

import (
	"errors"
	"math"
	"testing"

	"sevenms-trading-bot/internal/market"
)

func xauCalculator() *Calculator {
	return NewCalculator(market.Instrument{Symbol: "XAUUSD", Point: 0.01, Digits: 2, VolumeMin: 0.01})
}

// TestBuyComputation covers the canonical buy: entry 4190.0, POI at
// 4180.0, 20-pip buffer (2.0 price units) gives SL 4178.0 and TP 4214.0
func TestBuyComputation(t *testing.T) {
	calc := xauCalculator()

	params, err := calc.Compute(Buy, 4190.0, 4180.0, false, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if params.StopLoss != 4178.0 {
		t.Errorf("expected stop loss 4178.0, got %v", params.StopLoss)
	}
	if params.TakeProfit != 4214.0 {
		t.Errorf("expected take profit 4214.0, got %v", params.TakeProfit)
	}
	if params.RiskRewardRatio != 2.0 {
		t.Errorf("expected ratio 2.0, got %v", params.RiskRewardRatio)
	}

	// reward distance must be exactly twice the risk distance, within
	// one price unit of rounding tolerance
	risk := params.EntryPrice - params.StopLoss
	reward := params.TakeProfit - params.EntryPrice
	if math.Abs(reward-2*risk) > 0.01 {
		t.Errorf("reward %v should be twice risk %v", reward, risk)
	}
}

// TestSellComputation checks the mirror case
func TestSellComputation(t *testing.T) {
	calc := xauCalculator()

	params, err := calc.Compute(Sell, 4190.0, 4200.0, false, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if params.StopLoss != 4202.0 {
		t.Errorf("expected stop loss 4202.0, got %v", params.StopLoss)
	}
	if params.TakeProfit != 4166.0 {
		t.Errorf("expected take profit 4166.0, got %v", params.TakeProfit)
	}
	if params.RiskRewardRatio != 2.0 {
		t.Errorf("expected ratio 2.0, got %v", params.RiskRewardRatio)
	}
}

// TestInvalidReference ensures geometrically inconsistent levels fail
// immediately with no computation
func TestInvalidReference(t *testing.T) {
	calc := xauCalculator()

	if _, err := calc.Compute(Buy, 4190.0, 4195.0, false, 20); !errors.Is(err, ErrInvalidReference) {
		t.Errorf("buy reference above entry should fail with ErrInvalidReference, got %v", err)
	}
	if _, err := calc.Compute(Sell, 4190.0, 4185.0, false, 20); !errors.Is(err, ErrInvalidReference) {
		t.Errorf("sell reference below entry should fail with ErrInvalidReference, got %v", err)
	}
}

// TestPointDiagnostics verifies the unrounded point and pip fields
func TestPointDiagnostics(t *testing.T) {
	calc := xauCalculator()

	params, err := calc.Compute(Buy, 4190.0, 4180.0, false, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// risk = 4190 - 4178 = 12.0 price units = 1200 points = 120 pips
	if math.Abs(params.RiskPoints-1200) > 1e-9 {
		t.Errorf("expected 1200 risk points, got %v", params.RiskPoints)
	}
	if math.Abs(params.RewardPoints-2400) > 1e-9 {
		t.Errorf("expected 2400 reward points, got %v", params.RewardPoints)
	}
	if math.Abs(params.RiskPips-120) > 1e-9 {
		t.Errorf("expected 120 risk pips, got %v", params.RiskPips)
	}
	if params.BufferPoints != 200 {
		t.Errorf("expected 200 buffer points, got %v", params.BufferPoints)
	}
}

// TestStructureStopFlag checks the MSS-anchored stop is recorded
func TestStructureStopFlag(t *testing.T) {
	calc := xauCalculator()

	params, err := calc.Compute(Buy, 4190.0, 4182.5, true, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !params.StructureStop {
		t.Error("structure stop flag should be carried through")
	}
}

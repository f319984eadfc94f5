package strategy

import (
	"testing"

	"sevenms-trading-bot/internal/market"
)

// flatCandles returns n quiet candles trading just above the given floor
func flatCandles(n int, floor float64) []market.Candle {
	candles := make([]market.Candle, n)
	for i := range candles {
		candles[i] = market.Candle{
			Open:  floor + 2.0,
			High:  floor + 4.0,
			Low:   floor,
			Close: floor + 2.5,
		}
	}
	return candles
}

// TestBullishWickSweep covers the wick-sweep condition: a dip below the
// 5-candle low at 1900.0 closing back at 1901.5, confirmed by a candle
// closing at 1902.0 and holding above the swept level.
func TestBullishWickSweep(t *testing.T) {
	candles := flatCandles(5, 1900.0)
	candles = append(candles,
		market.Candle{Open: 1901.0, High: 1902.0, Low: 1899.0, Close: 1901.5}, // sweep
		market.Candle{Open: 1901.5, High: 1902.5, Low: 1900.5, Close: 1902.0}, // confirmation
		market.Candle{Open: 1902.0, High: 1903.0, Low: 1901.0, Close: 1902.2},
	)
	stamped(candles, market.Timeframe15M)

	detector := NewLiquiditySweepDetector()
	sweeps := detector.Detect(minuteSeries(market.Timeframe15M, candles))

	if len(sweeps) != 1 {
		t.Fatalf("expected 1 sweep, got %d", len(sweeps))
	}

	sw := sweeps[0]
	if sw.Direction != Bullish {
		t.Errorf("expected bullish sweep, got %s", sw.Direction)
	}
	if sw.Condition != WickSweep {
		t.Errorf("expected wick_sweep, got %s", sw.Condition)
	}
	if sw.SweptLevel != 1900.0 {
		t.Errorf("expected swept level 1900.0, got %v", sw.SweptLevel)
	}
	if !sw.Valid {
		t.Error("confirmed sweep should be valid")
	}
}

// TestBearishWickSweep checks the mirror: a spike above the recent high
// that closes back inside, confirmed by the next candle staying below
func TestBearishWickSweep(t *testing.T) {
	candles := make([]market.Candle, 5)
	for i := range candles {
		candles[i] = market.Candle{Open: 1948.0, High: 1950.0, Low: 1946.0, Close: 1947.5}
	}
	candles = append(candles,
		market.Candle{Open: 1948.0, High: 1951.0, Low: 1947.0, Close: 1949.0}, // sweep above 1950
		market.Candle{Open: 1949.0, High: 1949.5, Low: 1946.5, Close: 1947.0}, // confirmation
		market.Candle{Open: 1947.0, High: 1948.0, Low: 1945.0, Close: 1946.0},
	)
	stamped(candles, market.Timeframe15M)

	detector := NewLiquiditySweepDetector()
	sweeps := detector.Detect(minuteSeries(market.Timeframe15M, candles))

	if len(sweeps) != 1 {
		t.Fatalf("expected 1 sweep, got %d", len(sweeps))
	}
	if sweeps[0].Direction != Bearish || sweeps[0].Condition != WickSweep {
		t.Errorf("expected bearish wick_sweep, got %s %s", sweeps[0].Direction, sweeps[0].Condition)
	}
	if sweeps[0].SweptLevel != 1950.0 {
		t.Errorf("expected swept level 1950.0, got %v", sweeps[0].SweptLevel)
	}
}

// TestTwoCandleRejection covers the second condition: a thin-bodied
// bearish close below the lows followed by a bullish candle recovering
// the level with at least 40% of the first candle's body
func TestTwoCandleRejection(t *testing.T) {
	candles := flatCandles(5, 1900.0)
	candles = append(candles,
		// body 1.5 of range 6.0 (25%), closes below 1900
		market.Candle{Open: 1900.5, High: 1903.0, Low: 1897.0, Close: 1899.0},
		// bullish, closes back above 1900, body 2.0 >= 0.4 * 1.5
		market.Candle{Open: 1899.0, High: 1902.0, Low: 1898.5, Close: 1901.0},
		market.Candle{Open: 1901.0, High: 1902.5, Low: 1900.2, Close: 1901.8},
	)
	stamped(candles, market.Timeframe15M)

	detector := NewLiquiditySweepDetector()
	sweeps := detector.Detect(minuteSeries(market.Timeframe15M, candles))

	var rejection *LiquiditySweep
	for i := range sweeps {
		if sweeps[i].Condition == TwoCandleRejection {
			rejection = &sweeps[i]
		}
	}
	if rejection == nil {
		t.Fatal("expected a two_candle_rejection sweep")
	}
	if rejection.Direction != Bullish {
		t.Errorf("expected bullish rejection, got %s", rejection.Direction)
	}
	if rejection.BodyRatio > 0.30 {
		t.Errorf("first candle body ratio should be <= 0.30, got %v", rejection.BodyRatio)
	}
	if rejection.InverseRatio < 0.40 {
		t.Errorf("inverse ratio should be >= 0.40, got %v", rejection.InverseRatio)
	}
}

// TestZeroRangeCandle ensures a zero-range candle never faults the body
// ratio computation
func TestZeroRangeCandle(t *testing.T) {
	candles := flatCandles(5, 1900.0)
	candles = append(candles,
		market.Candle{Open: 1901.0, High: 1901.0, Low: 1901.0, Close: 1901.0},
		market.Candle{Open: 1901.0, High: 1902.0, Low: 1900.5, Close: 1901.5},
		market.Candle{Open: 1901.5, High: 1902.0, Low: 1901.0, Close: 1901.8},
	)
	stamped(candles, market.Timeframe15M)

	detector := NewLiquiditySweepDetector()
	// Must not panic; a zero-range candle has body ratio 0
	sweeps := detector.Detect(minuteSeries(market.Timeframe15M, candles))
	for _, sw := range sweeps {
		if sw.Condition == TwoCandleRejection && sw.SweepTime.Equal(candles[5].Time) {
			t.Error("zero-range candle should not qualify as a rejection sweep")
		}
	}
}

// TestSweepConfirmationBounds verifies no sweep is reported whose
// confirmation candle falls outside the series
func TestSweepConfirmationBounds(t *testing.T) {
	candles := flatCandles(5, 1900.0)
	// Sweep forms on the last candle; no confirmation exists yet, so
	// nothing may be reported.
	candles = append(candles,
		market.Candle{Open: 1901.0, High: 1902.0, Low: 1899.0, Close: 1901.5},
	)
	stamped(candles, market.Timeframe15M)

	detector := NewLiquiditySweepDetector()
	sweeps := detector.Detect(minuteSeries(market.Timeframe15M, candles))

	if len(sweeps) != 0 {
		t.Errorf("unconfirmed sweep must not be reported, got %d", len(sweeps))
	}

	last, _ := minuteSeries(market.Timeframe15M, candles).Last()
	for _, sw := range sweeps {
		if sw.ConfirmationTime.After(last.Time) {
			t.Errorf("confirmation time %v exceeds series end %v", sw.ConfirmationTime, last.Time)
		}
	}
}

// TestSweepShortSeries ensures a short series yields an empty result
func TestSweepShortSeries(t *testing.T) {
	detector := NewLiquiditySweepDetector()
	candles := stamped(flatCandles(6, 1900.0), market.Timeframe15M)
	if got := detector.Detect(minuteSeries(market.Timeframe15M, candles)); len(got) != 0 {
		t.Errorf("short series should yield no sweeps, got %d", len(got))
	}
}

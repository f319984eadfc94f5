package strategy

import (
	"math/rand"
	"testing"
	"time"

	"sevenms-trading-bot/internal/market"
)

func minuteSeries(tf market.Timeframe, candles []market.Candle) *market.Series {
	return &market.Series{Symbol: "XAUUSD", Timeframe: tf, Candles: candles}
}

func stamped(candles []market.Candle, tf market.Timeframe) []market.Candle {
	base := time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC)
	for i := range candles {
		candles[i].Time = base.Add(time.Duration(i) * tf.Duration())
	}
	return candles
}

// TestBullishOrderBlock covers the canonical bullish triple: a swing-low
// candle, a gapped breakout close above its high, and a later tap back
// into the zone.
func TestBullishOrderBlock(t *testing.T) {
	candles := stamped([]market.Candle{
		{Open: 100.0, High: 101.0, Low: 99.0, Close: 100.5},
		{Open: 101.5, High: 103.0, Low: 101.2, Close: 102.8},
		{Open: 102.5, High: 102.9, Low: 99.5, Close: 100.2},
	}, market.Timeframe4H)

	detector := NewOrderBlockDetector()
	blocks := detector.Detect(minuteSeries(market.Timeframe4H, candles), FilterBoth)

	if len(blocks) != 1 {
		t.Fatalf("expected 1 order block, got %d", len(blocks))
	}

	ob := blocks[0]
	if ob.Direction != Bullish {
		t.Errorf("expected bullish block, got %s", ob.Direction)
	}
	if ob.ZoneLow != 99.0 || ob.ZoneHigh != 101.0 {
		t.Errorf("expected zone [99, 101], got [%v, %v]", ob.ZoneLow, ob.ZoneHigh)
	}
	if ob.GapSize <= 0 {
		t.Errorf("gap size should be positive, got %v", ob.GapSize)
	}
	if ob.Classification != Reversal {
		t.Errorf("4H blocks should classify as reversal, got %s", ob.Classification)
	}
}

// TestBearishOrderBlock checks the mirror image on a continuation timeframe
func TestBearishOrderBlock(t *testing.T) {
	candles := stamped([]market.Candle{
		{Open: 100.0, High: 101.0, Low: 99.0, Close: 99.5},
		{Open: 98.5, High: 98.8, Low: 96.0, Close: 96.5},
		{Open: 97.0, High: 99.2, Low: 96.8, Close: 98.0},
	}, market.Timeframe1H)

	detector := NewOrderBlockDetector()
	blocks := detector.Detect(minuteSeries(market.Timeframe1H, candles), FilterBoth)

	if len(blocks) != 1 {
		t.Fatalf("expected 1 order block, got %d", len(blocks))
	}

	ob := blocks[0]
	if ob.Direction != Bearish {
		t.Errorf("expected bearish block, got %s", ob.Direction)
	}
	if ob.Classification != Continuation {
		t.Errorf("1H blocks should classify as continuation, got %s", ob.Classification)
	}
}

// TestOrderBlockDirectionFilter verifies the filter suppresses the
// opposite direction
func TestOrderBlockDirectionFilter(t *testing.T) {
	candles := stamped([]market.Candle{
		{Open: 100.0, High: 101.0, Low: 99.0, Close: 100.5},
		{Open: 101.5, High: 103.0, Low: 101.2, Close: 102.8},
		{Open: 102.5, High: 102.9, Low: 99.5, Close: 100.2},
	}, market.Timeframe4H)

	detector := NewOrderBlockDetector()
	if got := detector.Detect(minuteSeries(market.Timeframe4H, candles), FilterBearish); len(got) != 0 {
		t.Errorf("bearish filter should suppress bullish block, got %d", len(got))
	}
	if got := detector.Detect(minuteSeries(market.Timeframe4H, candles), FilterBullish); len(got) != 1 {
		t.Errorf("bullish filter should report the block, got %d", len(got))
	}
}

// TestOrderBlockShortSeries ensures series shorter than 3 candles yield an
// empty result, not an error
func TestOrderBlockShortSeries(t *testing.T) {
	detector := NewOrderBlockDetector()

	for _, n := range []int{0, 1, 2} {
		candles := stamped(make([]market.Candle, n), market.Timeframe4H)
		if got := detector.Detect(minuteSeries(market.Timeframe4H, candles), FilterBoth); len(got) != 0 {
			t.Errorf("series of %d candles should yield no blocks, got %d", n, len(got))
		}
	}
}

// TestOrderBlockZoneInvariant checks that every returned zone has
// zoneLow < zoneHigh and a positive gap across a generated walk
func TestOrderBlockZoneInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	candles := make([]market.Candle, 300)
	price := 4000.0
	for i := range candles {
		open := price
		close := open + (rng.Float64()-0.5)*8
		high := maxFloat(open, close) + rng.Float64()*3
		low := minFloat(open, close) - rng.Float64()*3
		candles[i] = market.Candle{Open: open, High: high, Low: low, Close: close}
		price = close
	}
	stamped(candles, market.Timeframe15M)

	detector := NewOrderBlockDetector()
	blocks := detector.Detect(minuteSeries(market.Timeframe15M, candles), FilterBoth)

	for _, ob := range blocks {
		if ob.ZoneLow >= ob.ZoneHigh {
			t.Errorf("zone invariant violated: [%v, %v]", ob.ZoneLow, ob.ZoneHigh)
		}
		if ob.GapSize <= 0 {
			t.Errorf("gap invariant violated: %v", ob.GapSize)
		}
	}
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// BenchmarkOrderBlockDetection benchmarks detection over a realistic window
func BenchmarkOrderBlockDetection(b *testing.B) {
	candles := make([]market.Candle, 200)
	for i := range candles {
		base := 4000.0 + float64(i)
		candles[i] = market.Candle{Open: base, High: base + 3, Low: base - 3, Close: base + 1}
	}
	stamped(candles, market.Timeframe4H)
	series := minuteSeries(market.Timeframe4H, candles)

	detector := NewOrderBlockDetector()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		detector.Detect(series, FilterBoth)
	}
}

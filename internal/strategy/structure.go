package strategy

import (
	"time"

	"sevenms-trading-bot/internal/market"
)

// StructureShift marks the first break of a recent swing extreme after a
// liquidity sweep. ZoneStart is the extreme price of the anchor candle;
// Level is the broken swing high (bullish) or low (bearish).
type StructureShift struct {
	Direction   Direction `json:"direction"`
	Level       float64   `json:"level"`
	Time        time.Time `json:"time"`
	ZoneStart   float64   `json:"zone_start"`
	ZoneLow     float64   `json:"zone_low"`
	ZoneHigh    float64   `json:"zone_high"`
	AnchorIndex int       `json:"anchor_index"`
	AnchorTime  time.Time `json:"anchor_time"`
}

// POIType names the kind of point of interest found inside a shift zone
type POIType string

const (
	POIFairValueGap POIType = "FVG"
	POIOrderBlock   POIType = "OrderBlock"
)

// PointOfInterest is a sub-zone within the structure-shift range where
// entries are taken
type PointOfInterest struct {
	Type     POIType   `json:"type"`
	Time     time.Time `json:"time"`
	ZoneLow  float64   `json:"zone_low"`
	ZoneHigh float64   `json:"zone_high"`
	GapSize  float64   `json:"gap_size,omitempty"`
}

// StructureShiftLocator finds the market structure shift on the 1M
// timeframe after a confirmed sweep, and the points of interest inside
// the shift zone
type StructureShiftLocator struct {
	poiScanLimit int // candles past the anchor inspected for POIs
}

// NewStructureShiftLocator creates a locator with the default 50-candle
// POI scan window
func NewStructureShiftLocator() *StructureShiftLocator {
	return &StructureShiftLocator{poiScanLimit: 50}
}

// Locate finds the structure shift in the supplied window.
//
// The anchor is the most extreme candle of the window: lowest low for a
// bullish bias, highest high for bearish. From the next index onward a
// running extreme of the prior candle's high (low) is maintained; the
// first candle to exceed (break below) it defines the shift. A false
// second return means no shift has formed yet; the caller re-invokes
// with more data.
func (l *StructureShiftLocator) Locate(series *market.Series, dir Direction) (StructureShift, bool) {
	if series.Len() < 2 {
		return StructureShift{}, false
	}

	candles := series.Candles

	var anchorIdx int
	if dir == Bullish {
		anchorIdx, _ = series.LowestLow()
	} else {
		anchorIdx, _ = series.HighestHigh()
	}
	anchor := candles[anchorIdx]

	if dir == Bullish {
		runningHigh := anchor.High
		for i := anchorIdx + 1; i < len(candles); i++ {
			if i > anchorIdx+1 && candles[i-1].High > runningHigh {
				runningHigh = candles[i-1].High
			}
			if candles[i].High > runningHigh {
				return StructureShift{
					Direction:   Bullish,
					Level:       runningHigh,
					Time:        candles[i].Time,
					ZoneStart:   anchor.Low,
					ZoneLow:     anchor.Low,
					ZoneHigh:    runningHigh,
					AnchorIndex: anchorIdx,
					AnchorTime:  anchor.Time,
				}, true
			}
		}
		return StructureShift{}, false
	}

	runningLow := anchor.Low
	for i := anchorIdx + 1; i < len(candles); i++ {
		if i > anchorIdx+1 && candles[i-1].Low < runningLow {
			runningLow = candles[i-1].Low
		}
		if candles[i].Low < runningLow {
			return StructureShift{
				Direction:   Bearish,
				Level:       runningLow,
				Time:        candles[i].Time,
				ZoneStart:   anchor.High,
				ZoneLow:     runningLow,
				ZoneHigh:    anchor.High,
				AnchorIndex: anchorIdx,
				AnchorTime:  anchor.Time,
			}, true
		}
	}
	return StructureShift{}, false
}

// FindPOIs scans the candles between the anchor and the shift for fair
// value gaps and order-block signatures inside the zone price band.
// Results are chronological, most recent last; an FVG found at the same
// candle index as an order block is reported first. Callers normally
// retain only the most recent few.
func (l *StructureShiftLocator) FindPOIs(series *market.Series, shift StructureShift) []PointOfInterest {
	candles := series.Candles
	var pois []PointOfInterest

	end := shift.AnchorIndex + l.poiScanLimit
	for i := shift.AnchorIndex; i < end && i < len(candles)-1; i++ {
		c := candles[i]

		if shift.Direction == Bullish {
			if c.Low < shift.ZoneLow || c.Low > shift.ZoneHigh {
				continue
			}
			// 3-candle fair value gap: this candle's low clears the
			// high from two candles back
			if i >= 2 {
				gap := c.Low - candles[i-2].High
				if gap > 0 {
					pois = append(pois, PointOfInterest{
						Type:     POIFairValueGap,
						Time:     c.Time,
						ZoneLow:  candles[i-2].High,
						ZoneHigh: c.Low,
						GapSize:  gap,
					})
				}
			}
			// 1-candle order block signature: close exceeds the prior high
			if i > 0 {
				prev := candles[i-1]
				if c.Close > prev.High {
					pois = append(pois, PointOfInterest{
						Type:     POIOrderBlock,
						Time:     prev.Time,
						ZoneLow:  prev.Low,
						ZoneHigh: prev.High,
					})
				}
			}
			continue
		}

		if c.High < shift.ZoneLow || c.High > shift.ZoneHigh {
			continue
		}
		if i >= 2 {
			gap := candles[i-2].Low - c.High
			if gap > 0 {
				pois = append(pois, PointOfInterest{
					Type:     POIFairValueGap,
					Time:     c.Time,
					ZoneLow:  c.High,
					ZoneHigh: candles[i-2].Low,
					GapSize:  gap,
				})
			}
		}
		if i > 0 {
			prev := candles[i-1]
			if c.Close < prev.Low {
				pois = append(pois, PointOfInterest{
					Type:     POIOrderBlock,
					Time:     prev.Time,
					ZoneLow:  prev.Low,
					ZoneHigh: prev.High,
				})
			}
		}
	}

	return pois
}

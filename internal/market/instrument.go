package market

import "math"

// Instrument holds the symbol metadata the risk calculator needs.
// Point is the minimal price increment (0.01 for XAUUSD); 10 points = 1 pip.
type Instrument struct {
	Symbol    string  `json:"symbol"`
	Point     float64 `json:"point"`
	Digits    int     `json:"digits"`
	VolumeMin float64 `json:"volume_min"`
}

// DefaultInstrument returns the XAUUSD metadata used when the bridge
// does not supply symbol info
func DefaultInstrument() Instrument {
	return Instrument{
		Symbol:    "XAUUSD",
		Point:     0.01,
		Digits:    2,
		VolumeMin: 0.01,
	}
}

// Round rounds a price to the instrument's digit precision
func (i Instrument) Round(price float64) float64 {
	factor := math.Pow(10, float64(i.Digits))
	return math.Round(price*factor) / factor
}

// PipsToPrice converts pips to a price distance (10 points per pip)
func (i Instrument) PipsToPrice(pips float64) float64 {
	return pips * 10 * i.Point
}

// PriceToPoints converts a price distance to points
func (i Instrument) PriceToPoints(distance float64) float64 {
	if i.Point <= 0 {
		return 0
	}
	return distance / i.Point
}

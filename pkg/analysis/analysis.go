// Package analysis computes indicator summaries over a historical
// price series. The indicator math itself is delegated to go-talib;
// this package only shapes inputs and picks the latest readings.
package analysis

import (
	"fmt"
	"io"
	"math"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/markcheno/go-talib"
	"github.com/raykavin/coinwatch/pkg/core"
	"gonum.org/v1/gonum/stat"
)

// Indicator periods follow the common defaults.
const (
	smaPeriod   = 14
	rsiPeriod   = 14
	stochFastK  = 14
	stochSlowK  = 3
	stochSlowD  = 3
	minimumData = 20
)

// RSI bands used for the summary signal.
const (
	rsiOverbought = 70.0
	rsiOversold   = 30.0
)

// Summary is the indicator view of one asset's recent price history.
type Summary struct {
	Symbol     string
	LastPrice  float64
	SMA        float64
	RSI        float64
	StochK     float64
	StochD     float64
	Volatility float64 // stddev of simple daily returns
	Signal     string
	Points     int
}

// Summarize drains the series and computes the indicator summary.
// A series with fewer than minimumData points reports ErrNoData.
func Summarize(symbol string, series *core.Series) (*Summary, error) {
	points := series.Collect()
	if len(points) < minimumData {
		return nil, fmt.Errorf("analysis %s: %d points: %w", symbol, len(points), core.ErrNoData)
	}

	closes := make([]float64, len(points))
	for i, p := range points {
		closes[i] = p.Price
	}

	sma := talib.Sma(closes, smaPeriod)
	rsi := talib.Rsi(closes, rsiPeriod)
	stochK, stochD := talib.Stoch(closes, closes, closes,
		stochFastK, stochSlowK, talib.SMA, stochSlowD, talib.SMA)

	summary := &Summary{
		Symbol:     symbol,
		LastPrice:  closes[len(closes)-1],
		SMA:        last(sma),
		RSI:        last(rsi),
		StochK:     last(stochK),
		StochD:     last(stochD),
		Volatility: stat.StdDev(Returns(closes), nil),
		Points:     len(points),
	}
	summary.Signal = signal(summary.LastPrice, summary.SMA, summary.RSI)

	return summary, nil
}

// Returns computes simple period-over-period returns.
func Returns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}

	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		returns = append(returns, closes[i]/closes[i-1]-1)
	}
	return returns
}

// PrintHistogram renders a terminal histogram of the return
// distribution.
func PrintHistogram(w io.Writer, returns []float64) error {
	if len(returns) == 0 {
		return core.ErrNoData
	}

	hist := histogram.Hist(9, returns)
	return histogram.Fprintf(w, hist, histogram.Linear(40), func(v float64) string {
		return fmt.Sprintf("%.2f%%", v*100)
	})
}

func signal(price, sma, rsi float64) string {
	switch {
	case rsi >= rsiOverbought:
		return "overbought"
	case rsi <= rsiOversold:
		return "oversold"
	case price > sma:
		return "bullish"
	case price < sma:
		return "bearish"
	default:
		return "neutral"
	}
}

// last picks the most recent defined value of an indicator output,
// skipping the NaN/zero warm-up prefix talib produces.
func last(values []float64) float64 {
	for i := len(values) - 1; i >= 0; i-- {
		if !math.IsNaN(values[i]) && values[i] != 0 {
			return values[i]
		}
	}
	return 0
}

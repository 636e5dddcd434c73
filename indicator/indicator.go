// Package indicator implements the pure numeric transforms the strategy
// layer depends on: SMA, EMA, RSI, MACD, Bollinger bands, ATR, Stochastic,
// VWAP, and SuperTrend. Every function returns a slice aligned to its
// input; leading positions where the indicator isn't yet defined carry
// NaN, and IsDefined is the predicate callers must use before branching on
// a value.
package indicator

import "math"

// IsDefined reports whether v is a usable indicator value rather than the
// leading-position sentinel.
func IsDefined(v float64) bool {
	return !math.IsNaN(v)
}

func filledNaN(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// SMA returns the n-period simple moving average of closes, defined for
// index >= n-1.
func SMA(closes []float64, n int) []float64 {
	out := filledNaN(len(closes))
	if n <= 0 {
		return out
	}
	var sum float64
	for i, c := range closes {
		sum += c
		if i >= n {
			sum -= closes[i-n]
		}
		if i >= n-1 {
			out[i] = sum / float64(n)
		}
	}
	return out
}

// EMA returns the exponential moving average with smoothing alpha =
// 2/(n+1), seeded by the first n-bar simple mean.
func EMA(closes []float64, n int) []float64 {
	out := filledNaN(len(closes))
	if n <= 0 || len(closes) < n {
		return out
	}
	alpha := 2.0 / float64(n+1)
	var sum float64
	for i := 0; i < n; i++ {
		sum += closes[i]
	}
	prev := sum / float64(n)
	out[n-1] = prev
	for i := n; i < len(closes); i++ {
		prev = alpha*closes[i] + (1-alpha)*prev
		out[i] = prev
	}
	return out
}

// RSI returns Wilder's RSI, defined for index >= n.
func RSI(closes []float64, n int) []float64 {
	out := filledNaN(len(closes))
	if n <= 0 || len(closes) <= n {
		return out
	}
	var gain, loss float64
	for i := 1; i <= n; i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	avgGain := gain / float64(n)
	avgLoss := loss / float64(n)
	out[n] = rsiFromAvgs(avgGain, avgLoss)

	for i := n + 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		g, l := 0.0, 0.0
		if d > 0 {
			g = d
		} else {
			l = -d
		}
		avgGain = (avgGain*float64(n-1) + g) / float64(n)
		avgLoss = (avgLoss*float64(n-1) + l) / float64(n)
		out[i] = rsiFromAvgs(avgGain, avgLoss)
	}
	return out
}

func rsiFromAvgs(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// MACD returns (line, signal, histogram) for the given fast/slow/signal
// periods. line = EMA(f) - EMA(s); signal = EMA(line, g); hist = line -
// signal.
func MACD(closes []float64, fast, slow, signal int) (line, sig, hist []float64) {
	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)
	line = filledNaN(len(closes))
	for i := range closes {
		if IsDefined(emaFast[i]) && IsDefined(emaSlow[i]) {
			line[i] = emaFast[i] - emaSlow[i]
		}
	}
	// EMA(line, g) must skip the leading NaNs in line before seeding.
	sig = filledNaN(len(closes))
	start := -1
	for i, v := range line {
		if IsDefined(v) {
			start = i
			break
		}
	}
	if start >= 0 && len(line)-start >= signal {
		trimmed := line[start:]
		emaOfLine := EMA(trimmed, signal)
		for i, v := range emaOfLine {
			sig[start+i] = v
		}
	}
	hist = filledNaN(len(closes))
	for i := range closes {
		if IsDefined(line[i]) && IsDefined(sig[i]) {
			hist[i] = line[i] - sig[i]
		}
	}
	return line, sig, hist
}

// Bollinger returns (mid, upper, lower) bands: mid = SMA(n), upper/lower =
// mid +/- k * sample stdev of the last n closes.
func Bollinger(closes []float64, n int, k float64) (mid, upper, lower []float64) {
	mid = SMA(closes, n)
	upper = filledNaN(len(closes))
	lower = filledNaN(len(closes))
	if n <= 1 {
		return mid, upper, lower
	}
	for i := range closes {
		if i < n-1 {
			continue
		}
		window := closes[i-n+1 : i+1]
		sd := stdev(window, mid[i])
		upper[i] = mid[i] + k*sd
		lower[i] = mid[i] - k*sd
	}
	return mid, upper, lower
}

func stdev(values []float64, mean float64) float64 {
	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)-1))
}

// ATR returns Wilder's average true range over n periods, defined once n
// true-range samples have accumulated.
func ATR(high, low, close []float64, n int) []float64 {
	out := filledNaN(len(close))
	if n <= 0 || len(close) <= n {
		return out
	}
	tr := make([]float64, len(close))
	for i := range close {
		if i == 0 {
			tr[i] = high[i] - low[i]
			continue
		}
		tr[i] = trueRange(high[i], low[i], close[i-1])
	}
	var sum float64
	for i := 1; i <= n; i++ {
		sum += tr[i]
	}
	avg := sum / float64(n)
	out[n] = avg
	for i := n + 1; i < len(close); i++ {
		avg = (avg*float64(n-1) + tr[i]) / float64(n)
		out[i] = avg
	}
	return out
}

func trueRange(high, low, prevClose float64) float64 {
	return math.Max(high-low, math.Max(math.Abs(high-prevClose), math.Abs(low-prevClose)))
}

// Stochastic returns the standard %K (smoothed by kSlow) and %D (smoothed
// by dSlow) oscillator over the fast lookback kFast.
func Stochastic(high, low, close []float64, kFast, kSlow, dSlow int) (k, d []float64) {
	n := len(close)
	rawK := filledNaN(n)
	if kFast <= 0 {
		return filledNaN(n), filledNaN(n)
	}
	for i := kFast - 1; i < n; i++ {
		hh, ll := high[i-kFast+1], low[i-kFast+1]
		for j := i - kFast + 2; j <= i; j++ {
			hh = math.Max(hh, high[j])
			ll = math.Min(ll, low[j])
		}
		if hh == ll {
			rawK[i] = 50
		} else {
			rawK[i] = 100 * (close[i] - ll) / (hh - ll)
		}
	}
	k = smoothSeries(rawK, kSlow)
	d = smoothSeries(k, dSlow)
	return k, d
}

// smoothSeries applies a simple moving average to a NaN-sentineled series,
// preserving the leading NaNs instead of treating them as zero.
func smoothSeries(series []float64, n int) []float64 {
	out := filledNaN(len(series))
	if n <= 1 {
		copy(out, series)
		return out
	}
	for i := range series {
		if !IsDefined(series[i]) {
			continue
		}
		start := i - n + 1
		if start < 0 {
			continue
		}
		ok := true
		var sum float64
		for j := start; j <= i; j++ {
			if !IsDefined(series[j]) {
				ok = false
				break
			}
			sum += series[j]
		}
		if ok {
			out[i] = sum / float64(n)
		}
	}
	return out
}

// VWAP returns the cumulative volume-weighted average price:
// running sum(typical*volume)/sum(volume), typical = (H+L+C)/3. Session
// resets are out of scope; this is cumulative over the whole window.
func VWAP(high, low, close, volume []float64) []float64 {
	out := filledNaN(len(close))
	var pvSum, vSum float64
	for i := range close {
		typical := (high[i] + low[i] + close[i]) / 3
		pvSum += typical * volume[i]
		vSum += volume[i]
		if vSum != 0 {
			out[i] = pvSum / vSum
		}
	}
	return out
}

// SuperTrend returns the indicator line and its direction (+1/-1) per
// spec: direction flips to +1 once close exceeds the prior upper band, to
// -1 once it falls below the prior lower band, otherwise holds; the line
// tracks the lower band while bullish and the upper band while bearish.
func SuperTrend(high, low, close []float64, n int, m float64) (line []float64, direction []int) {
	ln := len(close)
	line = filledNaN(ln)
	direction = make([]int, ln)
	atr := ATR(high, low, close, n)
	if ln <= n {
		return line, direction
	}
	upper := make([]float64, ln)
	lower := make([]float64, ln)
	for i := range close {
		hl2 := (high[i] + low[i]) / 2
		if IsDefined(atr[i]) {
			upper[i] = hl2 + m*atr[i]
			lower[i] = hl2 - m*atr[i]
		}
	}
	direction[n] = 1
	line[n] = lower[n]
	for i := n + 1; i < ln; i++ {
		switch {
		case close[i] > upper[i-1]:
			direction[i] = 1
		case close[i] < lower[i-1]:
			direction[i] = -1
		default:
			direction[i] = direction[i-1]
		}
		if direction[i] == 1 {
			line[i] = lower[i]
		} else {
			line[i] = upper[i]
		}
	}
	return line, direction
}

package strategy

import (
	"github.com/evdnx/equiscan/indicator"
	"github.com/evdnx/equiscan/types"
)

const vwapVolumeLookback = 20

// VWAP buys when price crosses above the volume-weighted average price
// on above-average volume, and sells on a cross below VWAP (no volume
// gate on the exit side).
func VWAP(volumeThreshold float64) Strategy {
	return Strategy{
		Key:    "vwap",
		Weight: 0.9,
		Verdict: func(w *types.Window) int {
			return vwapVerdict(w, volumeThreshold)
		},
	}
}

func vwapVerdict(w *types.Window, volumeThreshold float64) int {
	n := w.Len()
	if n == 0 {
		return 0
	}
	vwap := indicator.VWAP(w.High, w.Low, w.Close, w.Volume)
	last := n - 1
	if !indicator.IsDefined(vwap[last]) {
		return 0
	}
	current := w.Close[last]
	currentVWAP := vwap[last]
	prev, prevVWAP := current, currentVWAP
	if n > 1 && indicator.IsDefined(vwap[last-1]) {
		prev = w.Close[last-1]
		prevVWAP = vwap[last-1]
	}

	avgVolume := averageVolume(w.Volume, last, vwapVolumeLookback)
	volumeConfirmed := w.Volume[last] > avgVolume*volumeThreshold

	switch {
	case prev <= prevVWAP && current > currentVWAP && volumeConfirmed:
		return 1
	case prev >= prevVWAP && current < currentVWAP:
		return -1
	default:
		return 0
	}
}

func averageVolume(volume []float64, last, lookback int) float64 {
	start := last - lookback + 1
	if start < 0 {
		start = 0
	}
	window := volume[start : last+1]
	var sum float64
	for _, v := range window {
		sum += v
	}
	return sum / float64(len(window))
}

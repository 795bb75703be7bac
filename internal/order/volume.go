package order

import (
	"math"

	"fxtrader/pkg/broker"
)

// NormalizeVolume snaps a desired order size onto the venue's lot grid: at
// least VolumeMin, and expressible as VolumeMin + k*VolumeStep for integer
// k >= 0. Sizes at or below the minimum round UP to the minimum rather than
// rejecting the order.
func NormalizeVolume(desired float64, info *broker.InstrumentInfo) float64 {
	min := info.VolumeMin
	step := info.VolumeStep
	if step <= 0 {
		step = min
	}
	if min <= 0 {
		return desired
	}
	if desired <= min {
		return min
	}

	steps := math.Floor((desired-min)/step + 1e-9)
	v := min + steps*step
	// Snap off float dust so the venue's exact-step validation passes.
	return math.Round(v*1e8) / 1e8
}

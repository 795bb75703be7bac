package order

import (
	"testing"

	"fxtrader/pkg/broker"
)

func TestNormalizeVolume(t *testing.T) {
	cases := []struct {
		desired, min, step, want float64
	}{
		{0.003, 0.01, 0.01, 0.01},
		{0.027, 0.01, 0.01, 0.02},
		{0.01, 0.01, 0.01, 0.01},
		{0.155, 0.01, 0.01, 0.15},
		{0.25, 0.1, 0.05, 0.25},
		{0.23, 0.1, 0.05, 0.2},
	}
	for _, c := range cases {
		info := &broker.InstrumentInfo{VolumeMin: c.min, VolumeStep: c.step}
		got := NormalizeVolume(c.desired, info)
		if got != c.want {
			t.Fatalf("NormalizeVolume(%v, min=%v, step=%v) = %v, expected %v",
				c.desired, c.min, c.step, got, c.want)
		}
	}
}

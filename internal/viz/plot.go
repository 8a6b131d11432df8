// Package viz renders frequency and time responses as terminal plots.
package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"

	"github.com/avench/looplab/internal/statespace"
)

const (
	plotWidth  = 80
	plotHeight = 12
)

// BodeMagnitude plots magnitude in dB over the swept frequencies.
func BodeMagnitude(pts []statespace.Point) string {
	data := make([]float64, len(pts))
	for i, p := range pts {
		data[i] = p.MagDB
	}
	return asciigraph.Plot(data,
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Caption(caption("magnitude [dB]", pts)),
	)
}

// BodePhase plots unwrapped phase in degrees.
func BodePhase(pts []statespace.Point) string {
	data := make([]float64, len(pts))
	for i, p := range pts {
		data[i] = p.PhaseDeg
	}
	return asciigraph.Plot(data,
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Caption(caption("phase [deg]", pts)),
	)
}

// Step plots a time response.
func Step(values []float64, dt float64, label string) string {
	return asciigraph.Plot(values,
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Caption(fmt.Sprintf("%s over %.2fs", label, dt*float64(len(values)))),
	)
}

func caption(label string, pts []statespace.Point) string {
	if len(pts) == 0 {
		return label
	}
	return fmt.Sprintf("%s, w = %.3g .. %.3g rad/s (log)", label, pts[0].Omega, pts[len(pts)-1].Omega)
}

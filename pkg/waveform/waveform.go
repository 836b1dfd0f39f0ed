// Package waveform renders simulation time series to SVG charts for
// downstream viewing, outside the engine's in-memory contract.
package waveform

import (
	"fmt"
	"image/color"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// palette cycles a small fixed set of distinguishable line colors; the
// chart is diagnostic output, not a styled report, so a short repeating
// cycle is enough.
var palette = []color.Color{
	color.RGBA{R: 0xd6, G: 0x28, B: 0x28, A: 0xff},
	color.RGBA{R: 0x28, G: 0x57, B: 0xd6, A: 0xff},
	color.RGBA{R: 0x28, G: 0xa7, B: 0x45, A: 0xff},
	color.RGBA{R: 0xd6, G: 0x8f, B: 0x28, A: 0xff},
	color.RGBA{R: 0x7d, G: 0x28, B: 0xd6, A: 0xff},
}

func autoColor(i int) color.Color { return palette[i%len(palette)] }

// Plot draws one line per named series in series against a shared time
// axis (index k maps to time t0+k*dt) and writes the result as an SVG file
// at path. Series are drawn in sorted name order so the legend and file
// output are deterministic across runs.
func Plot(path string, series map[string][]float64, dt, t0 float64, title string) error {
	if len(series) == 0 {
		return fmt.Errorf("waveform: no series to plot")
	}

	names := make([]string, 0, len(series))
	for name := range series {
		names = append(names, name)
	}
	sort.Strings(names)

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = "value"

	for _, name := range names {
		values := series[name]
		pts := make(plotter.XYs, len(values))
		for k, v := range values {
			pts[k].X = t0 + float64(k)*dt
			pts[k].Y = v
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("waveform: building line for %s: %w", name, err)
		}
		line.Color = autoColor(len(p.Legend.Entries))
		p.Add(line)
		p.Legend.Add(name, line)
	}

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("waveform: saving %s: %w", path, err)
	}
	return nil
}

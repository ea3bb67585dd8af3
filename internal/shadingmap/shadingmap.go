// Package shadingmap implements lens-shading-map normalization, inversion,
// color-only reshaping, and bilinear sampling over the 4-plane float grid a
// source decoder supplies per frame.
package shadingmap

import "math"

// Map is a 4-plane lens shading grid, one plane per CFA site in the 2x2
// pattern. All planes share Width*Height length.
type Map struct {
	Planes [4][]float32
	Width  int
	Height int
}

func (m Map) clone() Map {
	out := Map{Width: m.Width, Height: m.Height}
	for i, plane := range m.Planes {
		cloned := make([]float32, len(plane))
		copy(cloned, plane)
		out.Planes[i] = cloned
	}
	return out
}

// Normalize divides every sample by the global maximum across all planes.
// A map that is entirely zero is returned unchanged.
func Normalize(m Map) Map {
	max := float32(0)
	for _, plane := range m.Planes {
		for _, v := range plane {
			if v > max {
				max = v
			}
		}
	}
	out := m.clone()
	if max <= 0 {
		return out
	}
	for p := range out.Planes {
		for i, v := range out.Planes[p] {
			out.Planes[p][i] = v / max
		}
	}
	return out
}

// Invert replaces every sample v by 1/v, but only if every sample in the map
// is strictly positive; otherwise the map is returned unchanged.
func Invert(m Map) Map {
	for _, plane := range m.Planes {
		for _, v := range plane {
			if v <= 0 {
				return m.clone()
			}
		}
	}
	out := m.clone()
	for p := range out.Planes {
		for i, v := range out.Planes[p] {
			out.Planes[p][i] = 1 / v
		}
	}
	return out
}

// ColorOnlyReshape normalizes the map's luminance component to 1 at every
// pixel while retaining the inter-channel color tint: each plane value is
// divided by the per-pixel minimum across the four planes, unmerged. The
// source this is grounded on also computes a CFA-aware green-pair merge
// of the map's global per-plane minima, but only consumes it behind a
// permanently-disabled "aggressive" flag, so it never reaches the actual
// output; this implementation reproduces the output that flag's default
// actually produces rather than the inert merge step.
func ColorOnlyReshape(m Map) Map {
	out := m.clone()
	n := m.Width * m.Height
	for i := 0; i < n; i++ {
		localMin := m.Planes[0][i]
		for p := 1; p < 4; p++ {
			if m.Planes[p][i] < localMin {
				localMin = m.Planes[p][i]
			}
		}
		if localMin <= 0 {
			continue
		}
		for p := 0; p < 4; p++ {
			out.Planes[p][i] = m.Planes[p][i] / localMin
		}
	}
	return out
}

// Sample bilinearly interpolates plane (w x h) at normalized coordinates
// (x, y) in [0,1]x[0,1], clamping out-of-range coordinates to the nearest
// edge.
func Sample(plane []float32, w, h int, x, y float32) float32 {
	if w <= 0 || h <= 0 || len(plane) < w*h {
		return 0
	}
	x = clamp01(x)
	y = clamp01(y)

	fx := x * float32(w-1)
	fy := y * float32(h-1)
	x0 := int(math.Floor(float64(fx)))
	y0 := int(math.Floor(float64(fy)))
	x1 := minInt(x0+1, w-1)
	y1 := minInt(y0+1, h-1)
	tx := fx - float32(x0)
	ty := fy - float32(y0)

	v00 := plane[y0*w+x0]
	v10 := plane[y0*w+x1]
	v01 := plane[y1*w+x0]
	v11 := plane[y1*w+x1]

	top := v00 + (v10-v00)*tx
	bottom := v01 + (v11-v01)*tx
	return top + (bottom-top)*ty
}

func clamp01(v float32) float32 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

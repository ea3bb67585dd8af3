// Package exposure parses the exposure-compensation keyframe string
// (spec §4.8) and evaluates it with a monotone cubic Hermite spline: the
// derivative at each interior keyframe is the average of its adjacent
// segment slopes, forced to zero at a local extremum. An endpoint only
// gets the one-sided slope to its neighbor when it sits exactly at
// position 0 or 1; any other boundary keyframe keeps derivative 0.
package exposure

import (
	"sort"
	"strconv"
	"strings"
)

// Keyframe is one parsed (position, value) pair with its assigned
// derivative, in EV-per-normalized-position units.
type Keyframe struct {
	Position   float64
	Value      float64
	Derivative float64
}

// Curve is a sorted, derivative-assigned keyframe list ready for Eval.
type Curve struct {
	keyframes []Keyframe
}

// ParseCompensation accepts either a bare numeric string (a constant
// exposure shift) or a "pos:value" keyframe list, per RenderConfig's
// exposureCompensation field.
func ParseCompensation(s string) Curve {
	if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return Curve{keyframes: []Keyframe{{Position: 0, Value: v}}}
	}
	return Parse(s)
}

// Parse reads a comma-separated "pos:value" list. "start" and "end" are
// synonyms for position 0 and 1. Positions outside [0,1] are skipped.
// An empty or all-skipped string yields a Curve that evaluates to 0.
func Parse(s string) Curve {
	var kfs []Keyframe
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		posStr, valStr, ok := splitOnce(part, ":")
		if !ok {
			continue
		}
		pos, ok := parsePosition(strings.TrimSpace(posStr))
		if !ok || pos < 0 || pos > 1 {
			continue
		}
		val, err := strconv.ParseFloat(strings.TrimSpace(valStr), 64)
		if err != nil {
			continue
		}
		kfs = append(kfs, Keyframe{Position: pos, Value: val})
	}

	sort.Slice(kfs, func(i, j int) bool { return kfs[i].Position < kfs[j].Position })
	assignDerivatives(kfs)
	return Curve{keyframes: kfs}
}

func splitOnce(s, sep string) (before, after string, ok bool) {
	i := strings.Index(s, sep)
	if i < 0 {
		return "", "", false
	}
	return s[:i], s[i+len(sep):], true
}

func parsePosition(s string) (float64, bool) {
	switch strings.ToLower(s) {
	case "start":
		return 0, true
	case "end":
		return 1, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// assignDerivatives fills in kfs[i].Derivative per spec §3/§4.8, in place.
func assignDerivatives(kfs []Keyframe) {
	n := len(kfs)
	if n < 2 {
		return
	}

	slope := make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		dp := kfs[i+1].Position - kfs[i].Position
		if dp == 0 {
			slope[i] = 0
			continue
		}
		slope[i] = (kfs[i+1].Value - kfs[i].Value) / dp
	}

	if kfs[0].Position == 0 {
		kfs[0].Derivative = slope[0]
	}
	if kfs[n-1].Position == 1 {
		kfs[n-1].Derivative = slope[n-2]
	}

	for i := 1; i < n-1; i++ {
		a, b := slope[i-1], slope[i]
		if (a > 0 && b < 0) || (a < 0 && b > 0) || a == 0 || b == 0 {
			kfs[i].Derivative = 0
		} else {
			kfs[i].Derivative = (a + b) / 2
		}
	}
}

// Eval evaluates the curve at normalized position p, clamped to [0,1].
func (c Curve) Eval(p float64) float64 {
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}

	n := len(c.keyframes)
	switch {
	case n == 0:
		return 0
	case n == 1:
		return c.keyframes[0].Value
	}

	if p <= c.keyframes[0].Position {
		return c.keyframes[0].Value
	}
	if p >= c.keyframes[n-1].Position {
		return c.keyframes[n-1].Value
	}

	idx := sort.Search(n, func(i int) bool { return c.keyframes[i].Position > p }) - 1
	k0, k1 := c.keyframes[idx], c.keyframes[idx+1]
	segLen := k1.Position - k0.Position
	if segLen <= 0 {
		return k0.Value
	}
	t := (p - k0.Position) / segLen

	t2 := t * t
	t3 := t2 * t
	h00 := 2*t3 - 3*t2 + 1
	h10 := t3 - 2*t2 + t
	h01 := -2*t3 + 3*t2
	h11 := t3 - t2

	return h00*k0.Value + h10*segLen*k0.Derivative + h01*k1.Value + h11*segLen*k1.Derivative
}

// EvalAtIndex evaluates the curve at the normalized position of frame
// index within a sequence of totalOutputFrames frames, per §4.8's
// p = index/(totalOutputFrames-1) convention.
func (c Curve) EvalAtIndex(index, totalOutputFrames int64) float64 {
	if totalOutputFrames <= 1 {
		return c.Eval(0)
	}
	return c.Eval(float64(index) / float64(totalOutputFrames-1))
}

// IsZero reports whether the curve has no keyframes at all.
func (c Curve) IsZero() bool {
	return len(c.keyframes) == 0
}

// Package frametiming derives output frame rate and timeline entries from
// a source's frame timestamps (spec §4.6): median/average FPS, CFR target
// band-snapping, and CFR/VFR entry generation with duplicate/drop
// accounting.
package frametiming

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// integerBands are the "Prefer Integer" CFR snap targets.
var integerBands = []float64{24, 25, 30, 48, 50, 60, 120, 240, 480, 960}

// dropFrameBands are the "Prefer Drop Frame" CFR snap targets.
var dropFrameBands = []float64{23.976, 25, 29.97, 47.952, 50, 59.94, 119.88, 240, 480, 960}

// Entry is one output frame: its DNG filename, the source timestamp it
// was rendered from, and whether it duplicates the previous entry's
// source frame. A dropped source frame produces no Entry, so Build never
// sets Dropped; drops are counted in Timing.Drops.
type Entry struct {
	Name            string
	SourceTimestamp int64
	Index           int64
	Duplicated      bool
	Dropped         bool
}

// Timing is the resolved per-source timeline: the two FPS statistics,
// the CFR target actually applied (0 when CFR is off), the generated
// entries, and the duplicate/drop counts. Synthesize (C4) only needs FPS/TotalOutputFrames.
type Timing struct {
	AverageFPS  float64
	MedianFPS   float64
	CFRTarget   float64 // 0 means "not applying CFR"
	Entries     []Entry
	Duplicates  int
	Drops       int
}

// FPS returns the rate actually governing output pacing: CFRTarget when
// CFR is active, else MedianFPS.
func (t Timing) FPS() float64 {
	if t.CFRTarget > 0 {
		return t.CFRTarget
	}
	return t.MedianFPS
}

// TotalOutputFrames is len(Entries), exposed for the exposure keyframe
// evaluator's p = index/(totalOutputFrames-1) convention.
func (t Timing) TotalOutputFrames() int64 {
	return int64(len(t.Entries))
}

// Build computes durations, FPS statistics, and entries for source
// timestamps (nanoseconds, strictly in capture order). applyCFR selects
// constant frame rate output; cfrTarget is the textual preset or numeric
// string from RenderConfig. baseName is used to build each DNG filename.
func Build(timestamps []int64, applyCFR bool, cfrTarget, baseName string) (Timing, error) {
	if len(timestamps) == 0 {
		return Timing{}, fmt.Errorf("frametiming: no source timestamps")
	}

	durations := positiveDurations(timestamps)
	avg := averageFPS(durations)
	median := medianFPS(durations)

	t := Timing{AverageFPS: avg, MedianFPS: median}

	if !applyCFR {
		t.Entries = buildVFREntries(timestamps, baseName)
		return t, nil
	}

	target := resolveCFRTarget(cfrTarget, median)
	t.CFRTarget = target
	entries, dup, drop := buildCFREntries(timestamps, target, baseName)
	t.Entries = entries
	t.Duplicates = dup
	t.Drops = drop
	return t, nil
}

func positiveDurations(ts []int64) []int64 {
	out := make([]int64, 0, len(ts))
	for i := 0; i < len(ts)-1; i++ {
		d := ts[i+1] - ts[i]
		if d > 0 {
			out = append(out, d)
		}
	}
	return out
}

func averageFPS(durations []int64) float64 {
	if len(durations) == 0 {
		return 0
	}
	var sum int64
	for _, d := range durations {
		sum += d
	}
	mean := float64(sum) / float64(len(durations))
	if mean <= 0 {
		return 0
	}
	return 1e9 / mean
}

func medianFPS(durations []int64) float64 {
	if len(durations) == 0 {
		return 0
	}
	sorted := append([]int64(nil), durations...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	n := len(sorted)
	var median float64
	if n%2 == 1 {
		median = float64(sorted[n/2])
	} else {
		median = float64(sorted[n/2-1]+sorted[n/2]) / 2
	}
	if median <= 0 {
		return 0
	}
	return 1e9 / median
}

// resolveCFRTarget implements spec §4.6's applyCFR/cfrTarget/medianFps rule.
func resolveCFRTarget(cfrTarget string, medianFps float64) float64 {
	switch strings.TrimSpace(cfrTarget) {
	case "Prefer Integer":
		return snapToBand(medianFps, integerBands)
	case "Prefer Drop Frame":
		return snapToBand(medianFps, dropFrameBands)
	case "Median (Slowmotion)", "Average (Testing)":
		return medianFps
	default:
		v, err := strconv.ParseFloat(strings.TrimSpace(cfrTarget), 64)
		if err != nil || v <= 0 {
			return medianFps
		}
		return v
	}
}

func snapToBand(fps float64, bands []float64) float64 {
	best := bands[0]
	bestDist := math.Abs(fps - best)
	for _, b := range bands[1:] {
		d := math.Abs(fps - b)
		if d < bestDist {
			best, bestDist = b, d
		}
	}
	return best
}

func buildVFREntries(timestamps []int64, baseName string) []Entry {
	entries := make([]Entry, len(timestamps))
	for i, ts := range timestamps {
		entries[i] = Entry{
			Name:            dngName(baseName, int64(i)),
			SourceTimestamp: ts,
			Index:           int64(i),
		}
	}
	return entries
}

// buildCFREntries implements spec §4.6's walk: pts = round((t-t0)*fps/1e9);
// while lastPts < pts, emit duplicate entries carrying the same source
// timestamp; a non-advancing pts (lastPts == pts on arrival) is a drop.
func buildCFREntries(timestamps []int64, fps float64, baseName string) ([]Entry, int, int) {
	t0 := timestamps[0]
	var entries []Entry
	lastPts := int64(-1)
	duplicates := 0
	drops := 0

	for _, t := range timestamps {
		pts := int64(math.Round(float64(t-t0) * fps / 1e9))

		if lastPts == pts {
			drops++
			continue
		}

		duplicates += int(pts - lastPts - 1)

		first := true
		for lastPts < pts {
			lastPts++
			entries = append(entries, Entry{
				Name:            dngName(baseName, lastPts),
				SourceTimestamp: t,
				Index:           lastPts,
				Duplicated:      !first,
			})
			first = false
		}
	}
	return entries, duplicates, drops
}

func dngName(baseName string, index int64) string {
	return fmt.Sprintf("%s-%06d.dng", baseName, index)
}

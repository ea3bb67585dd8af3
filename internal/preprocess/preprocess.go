// Package preprocess implements the Bayer preprocessing pipeline: scale
// normalization, crop resolution, level remap, lens-shading application,
// log-curve encoding with deterministic dither, and the final clamp/round
// that produces the 16-bit buffer the DNG synthesizer packs.
package preprocess

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"rawmount/internal/camera"
	"rawmount/internal/renderconfig"
	"rawmount/internal/shadingmap"
)

const (
	modeLinear = "linear"
	modeLog    = "log"
	modeDebug  = "debug"
)

// Result is the output of Process: a 16-bit Bayer buffer at the resolved
// output dimensions, along with the encoding parameters C4/C1 need.
type Result struct {
	Buf        []uint16
	Width      int
	Height     int
	DestBlack  [4]float64
	DestWhite  float64
	UseBits    int
	ShadingMap shadingmap.Map
	Shading    bool
}

// Process runs spec §4.3 steps 1-8 against one decoded frame.
func Process(src []uint16, meta camera.FrameMetadata, cfg renderconfig.Config) (Result, error) {
	if meta.Width <= 0 || meta.Height <= 0 {
		return Result{}, fmt.Errorf("preprocess: invalid frame dimensions %dx%d", meta.Width, meta.Height)
	}
	if len(src) < meta.Width*meta.Height {
		return Result{}, fmt.Errorf("preprocess: source buffer has %d samples, need %d", len(src), meta.Width*meta.Height)
	}

	scale := resolveScale(cfg)
	cropW, cropH := resolveCropTarget(meta.Width, meta.Height, cfg)
	offX := centeredEvenOffset(meta.Width, cropW)
	offY := centeredEvenOffset(meta.Height, cropH)

	outW := alignDown(cropW/scale, 4)
	outH := alignDown(cropH/scale, 4)
	if outW <= 0 {
		outW = 4
	}
	if outH <= 0 {
		outH = 4
	}

	black, white := resolveLevels(meta, cfg)

	shadingMap, shadingActive := prepareShadingMap(meta, cfg)

	logActive := cfg.LogActive()
	useBits := selectUseBits(shadingActive, cfg, white)
	destWhite := math.Exp2(float64(useBits)) - 1

	var destBlack [4]float64
	if shadingActive || logActive {
		destBlack = [4]float64{}
	} else {
		destBlack = black
	}

	mode := modeLinear
	if logActive {
		mode = modeLog
	}
	if shadingActive && cfg.Has(renderconfig.DebugShadingMap) {
		mode = modeDebug
	}

	sensorW, sensorH := meta.SensorWidth, meta.SensorHeight
	if sensorW <= 0 {
		sensorW = meta.Width
	}
	if sensorH <= 0 {
		sensorH = meta.Height
	}

	buf := processBlocks(blockParams{
		src:        src,
		srcWidth:   meta.Width,
		sensorW:    sensorW,
		sensorH:    sensorH,
		offX:       offX,
		offY:       offY,
		scale:      scale,
		outW:       outW,
		outH:       outH,
		black:      black,
		white:      white,
		shading:    shadingMap,
		shadingOn:  shadingActive,
		destBlack:  destBlack,
		destWhite:  destWhite,
		mode:       mode,
		ditherOn:   mode == modeLog,
	})

	return Result{
		Buf:        buf,
		Width:      outW,
		Height:     outH,
		DestBlack:  destBlack,
		DestWhite:  destWhite,
		UseBits:    useBits,
		ShadingMap: shadingMap,
		Shading:    shadingActive,
	}, nil
}

func resolveScale(cfg renderconfig.Config) int {
	if !cfg.Has(renderconfig.Draft) {
		return 1
	}
	scale := cfg.DraftScale
	if scale < 2 {
		scale = 2
	}
	if scale%2 != 0 {
		scale++
	}
	return scale
}

func resolveCropTarget(sourceW, sourceH int, cfg renderconfig.Config) (w, h int) {
	if !cfg.Has(renderconfig.Cropping) {
		return sourceW, sourceH
	}
	w, h, ok := parseCropTarget(cfg.CropTarget)
	if !ok || w <= 0 || h <= 0 || w > sourceW || h > sourceH {
		return sourceW, sourceH
	}
	return w, h
}

func parseCropTarget(s string) (w, h int, ok bool) {
	parts := strings.SplitN(strings.TrimSpace(s), "x", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	wv, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	hv, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return wv, hv, true
}

func centeredEvenOffset(sourceDim, targetDim int) int {
	off := (sourceDim - targetDim) / 2
	if off < 0 {
		off = 0
	}
	off -= off % 2
	return off
}

func alignDown(v, multiple int) int {
	if multiple <= 0 {
		return v
	}
	return (v / multiple) * multiple
}

func resolveLevels(meta camera.FrameMetadata, cfg renderconfig.Config) (black [4]float64, white float64) {
	switch cfg.NormalizedLevels() {
	case "Dynamic", "Static":
		return meta.BlackLevel, meta.WhiteLevel
	default:
		w, b, ok := parseUserLevels(cfg.Levels)
		if !ok {
			return meta.BlackLevel, meta.WhiteLevel
		}
		return b, w
	}
}

func parseUserLevels(s string) (white float64, black [4]float64, ok bool) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 {
		return 0, black, false
	}
	w, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, black, false
	}
	blackPart := strings.TrimSpace(parts[1])
	if strings.Contains(blackPart, ",") {
		fields := strings.Split(blackPart, ",")
		if len(fields) != 4 {
			return 0, black, false
		}
		for i, f := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return 0, black, false
			}
			black[i] = v
		}
	} else {
		v, err := strconv.ParseFloat(blackPart, 64)
		if err != nil {
			return 0, black, false
		}
		for i := range black {
			black[i] = v
		}
	}
	return w, black, true
}

func prepareShadingMap(meta camera.FrameMetadata, cfg renderconfig.Config) (shadingmap.Map, bool) {
	if !cfg.Has(renderconfig.ApplyVignetteCorrection) || !meta.HasShadingMap {
		return shadingmap.Map{}, false
	}
	m := meta.ShadingMap
	if cfg.Has(renderconfig.VignetteOnlyColor) {
		m = shadingmap.ColorOnlyReshape(m)
	}
	if cfg.Has(renderconfig.NormalizeShadingMap) {
		m = shadingmap.Normalize(m)
	}
	if cfg.Has(renderconfig.DebugShadingMap) {
		m = shadingmap.Invert(m)
	}
	return m, true
}

func bitsFor(white float64) int {
	w := int64(white)
	if w <= 0 {
		return 0
	}
	bits := 0
	for (int64(1)<<uint(bits))-1 < w {
		bits++
	}
	return bits
}

func selectUseBits(shadingActive bool, cfg renderconfig.Config, sourceWhite float64) int {
	bitsW := bitsFor(sourceWhite)
	logActive := cfg.LogActive()
	reduceN, hasReduce := cfg.LogReduceBits()

	if shadingActive {
		switch {
		case cfg.Has(renderconfig.NormalizeShadingMap):
			return minInt(16, bitsW+4)
		case cfg.Has(renderconfig.DebugShadingMap):
			return bitsW
		case logActive && hasReduce && (reduceN == 4 || reduceN == 6 || reduceN == 8):
			return minInt(16, bitsW-reduceN)
		case logActive && cfg.KeepInput():
			return minInt(16, bitsW+2)
		default:
			return minInt(16, bitsW+2)
		}
	}
	if logActive && hasReduce {
		return minInt(16, bitsW-reduceN)
	}
	return bitsW
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

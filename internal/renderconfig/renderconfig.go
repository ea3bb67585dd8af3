// Package renderconfig defines the value-typed configuration bundle that
// governs every transcode decision the core makes (spec §3's RenderConfig).
// A VFS instance owns one Config, replaced atomically on UpdateOptions; it is
// passed by value into UpdateOptions and copied by value for each read so
// call sites never mutate a shared struct out from under a concurrent reader.
package renderconfig

import "strings"

// Options is the RenderConfig option bitfield.
type Options uint32

const (
	Draft Options = 1 << iota
	ApplyVignetteCorrection
	NormalizeShadingMap
	DebugShadingMap
	VignetteOnlyColor
	NormalizeExposure
	FramerateConversion
	Cropping
	CamModelOverride
	LogTransform
	Remosaic
)

// CFAPhase identifies an overridden Bayer phase, or PhaseUnset to mean "use
// the decoder-provided arrangement".
type CFAPhase string

const (
	PhaseUnset CFAPhase = ""
	PhaseBGGR  CFAPhase = "bggr"
	PhaseRGGB  CFAPhase = "rggb"
	PhaseGRBG  CFAPhase = "grbg"
	PhaseGBRG  CFAPhase = "gbrg"
)

// Config is the RenderConfig value type of spec §3.
type Config struct {
	Opts Options

	// DraftScale is the integer divisor applied only when Draft is set.
	DraftScale int

	// CFRTarget is a textual preset ("Prefer Integer", "Prefer Drop Frame",
	// "Median (Slowmotion)", "Average (Testing)") or a numeric string.
	CFRTarget string

	// CropTarget is "WxH" or empty.
	CropTarget string

	// CameraModel overrides the DNG UniqueCameraModel/Model tags.
	CameraModel string

	// Levels is "Dynamic", "Static", or "W/B" with optional per-channel
	// blacks ("W/b0,b1,b2,b3").
	Levels string

	// LogTransform is "", "Keep Input", or "Reduce by {2|4|6|8}bit".
	LogTransform string

	// ExposureCompensation is a numeric string or a keyframe list parsed by
	// package exposure.
	ExposureCompensation string

	// QuadBayerOption is an opaque passthrough flag affecting sensor
	// interpretation metadata only.
	QuadBayerOption string

	// CFAPhase overrides the CFA phase; PhaseUnset means "don't override".
	CFAPhase CFAPhase
}

// Default returns the documented fallback configuration: no draft, no crop,
// dynamic levels, median FPS, no calibration/CFA override.
func Default() Config {
	return Config{
		DraftScale: 1,
		Levels:     "Dynamic",
		CFRTarget:  "Median (Slowmotion)",
	}
}

// Has reports whether every bit in want is set.
func (c Config) Has(want Options) bool {
	return c.Opts&want == want
}

// NormalizedLevels returns the Levels field with surrounding whitespace
// trimmed, defaulting to "Dynamic" when empty.
func (c Config) NormalizedLevels() string {
	v := strings.TrimSpace(c.Levels)
	if v == "" {
		return "Dynamic"
	}
	return v
}

// LogReduceBits returns the N in "Reduce by Nbit" and true, or (0, false) if
// LogTransform does not request a bit reduction.
func (c Config) LogReduceBits() (int, bool) {
	v := strings.TrimSpace(c.LogTransform)
	const prefix = "Reduce by "
	const suffix = "bit"
	if !strings.HasPrefix(v, prefix) || !strings.HasSuffix(v, suffix) {
		return 0, false
	}
	digits := strings.TrimSuffix(strings.TrimPrefix(v, prefix), suffix)
	switch digits {
	case "2":
		return 2, true
	case "4":
		return 4, true
	case "6":
		return 6, true
	case "8":
		return 8, true
	default:
		return 0, false
	}
}

// KeepInput reports whether LogTransform is explicitly "Keep Input".
func (c Config) KeepInput() bool {
	return strings.TrimSpace(c.LogTransform) == "Keep Input"
}

// LogActive reports whether a log transform of any kind is requested.
func (c Config) LogActive() bool {
	return c.Has(LogTransform) && strings.TrimSpace(c.LogTransform) != ""
}

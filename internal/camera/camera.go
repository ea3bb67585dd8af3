// Package camera defines the metadata shapes a source decoder supplies per
// frame and per container, shared by the preprocessor, synthesizer,
// exposure evaluator, and calibration loader (spec §3's
// CameraFrameMetadata/CameraConfiguration).
package camera

import "rawmount/internal/shadingmap"

// Arrangement identifies a 2x2 CFA phase.
type Arrangement string

const (
	ArrangementUnknown Arrangement = ""
	ArrangementRGGB    Arrangement = "rggb"
	ArrangementBGGR    Arrangement = "bggr"
	ArrangementGRBG    Arrangement = "grbg"
	ArrangementGBRG    Arrangement = "gbrg"
)

// FrameMetadata is the decoder-supplied metadata for a single raw frame.
type FrameMetadata struct {
	Width, Height             int
	SensorWidth, SensorHeight int

	BlackLevel [4]float64
	WhiteLevel float64

	ShadingMap    shadingmap.Map
	HasShadingMap bool

	SensorArrangement Arrangement
	QuadBayer         bool

	ISO            float64
	ExposureTimeNs int64

	Orientation uint16
	Flipped     bool

	CameraModel       string
	UniqueCameraModel string

	ColorIlluminant1, ColorIlluminant2 uint16
	ColorMatrix1, ColorMatrix2         [9]float64
	ForwardMatrix1, ForwardMatrix2     [9]float64
	AsShotNeutral                      [3]float64
}

// ContainerMetadata is per-source metadata that does not vary frame to
// frame: container-level identification and the exposure baseline used by
// NORMALIZE_EXPOSURE.
type ContainerMetadata struct {
	Make, Model string

	// BaselineISOExposure is the minimum iso*exposureTime across every
	// frame of the source, used as the normalized-exposure reference.
	BaselineISOExposure float64

	SampleRate int
	Channels   int
}

// CFATuple returns the 4-byte DNG color-code pattern for an arrangement.
// DNG color codes: 0=Red, 1=Green, 2=Blue, 3=Cyan, 4=Magenta, 5=Yellow, 6=White.
func (a Arrangement) CFATuple() ([4]byte, bool) {
	switch a {
	case ArrangementRGGB:
		return [4]byte{0, 1, 1, 2}, true
	case ArrangementBGGR:
		return [4]byte{2, 1, 1, 0}, true
	case ArrangementGRBG:
		return [4]byte{1, 0, 2, 1}, true
	case ArrangementGBRG:
		return [4]byte{1, 2, 0, 1}, true
	default:
		return [4]byte{}, false
	}
}

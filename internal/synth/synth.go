// Package synth orchestrates the per-frame raw-to-DNG pipeline (spec
// §4.4): derive the CFA tuple, run the preprocessor, pack samples at the
// rounded-up encoding depth, populate DNG metadata with calibration
// overrides, and emit the finished artifact bytes.
package synth

import (
	"fmt"
	"math"

	"rawmount/internal/bitpack"
	"rawmount/internal/calibration"
	"rawmount/internal/camera"
	"rawmount/internal/dngwriter"
	"rawmount/internal/exposure"
	"rawmount/internal/preprocess"
	"rawmount/internal/renderconfig"
)

// Artifact is a finished DNG byte buffer plus the index it was rendered
// for, suitable for storage in the artifact cache and direct serving.
type Artifact struct {
	Bytes []byte
	Index int64
}

// supportedDepths are the bit depths internal/bitpack and the DNG
// BitsPerSample tag both understand.
var supportedDepths = []int{2, 4, 6, 8, 10, 12, 14, 16}

// Synthesize implements spec §4.4 steps 1-6 against one decoded frame.
// src is the decoder-supplied sample buffer: a single width*height Bayer
// plane when frame.SensorArrangement is known, or three
// width*height-sized planar R,G,B planes concatenated (R then G then B)
// when the decoder has no native arrangement (DirectLog's YUV->RGB
// output) — in that case REMOSAIC plus a CFA override resamples the
// planes into a synthetic Bayer plane before preprocessing. index is the
// output frame's ordinal; fps and totalOutputFrames come from the
// resolved frame-timing timeline. opcodeList is passed through
// uninterpreted into the DNG's OpcodeList2 tag (nil for sources that
// don't supply one).
func Synthesize(src []uint16, frame camera.FrameMetadata, container camera.ContainerMetadata, calib calibration.Data, index int64, cfg renderconfig.Config, fps float64, totalOutputFrames int64, opcodeList []byte) (Artifact, error) {
	arrangement, cfaTuple, remosaic, rgbOutput, err := classifySource(frame, calib, cfg)
	if err != nil {
		return Artifact{}, err
	}
	frame.SensorArrangement = arrangement

	var (
		packed      []byte
		spp         int
		photometric uint16
		width       int
		height      int
		destBlack   [4]float64
		destWhite   float64
		encodeBits  int
	)

	if rgbOutput {
		packed, width, height, destBlack, destWhite, encodeBits, err = packRGBPlanes(src, frame, cfg)
		spp, photometric = 3, dngwriter.PhotometricRGB
	} else {
		bayer := src
		if remosaic {
			bayer = remosaicRGB(src, frame.Width, frame.Height, cfaTuple)
		}
		var result preprocess.Result
		result, err = preprocess.Process(bayer, frame, cfg)
		if err == nil {
			width, height = result.Width, result.Height
			destBlack, destWhite = result.DestBlack, result.DestWhite
			encodeBits = roundUpToSupportedDepth(bitsFor(destWhite))
			packed, spp, photometric, err = packSamples(result.Buf, width, height, encodeBits)
		}
	}
	if err != nil {
		return Artifact{}, fmt.Errorf("synth: pack: %w", err)
	}

	logActive := cfg.LogActive()
	blackLevel := destBlack
	whiteLevel := uint32(destWhite)
	if logActive {
		blackLevel = [4]float64{0, 0, 0, 0}
		whiteLevel = 65534
	}

	colorMatrix1, colorMatrix2 := frame.ColorMatrix1, frame.ColorMatrix2
	forwardMatrix1, forwardMatrix2 := frame.ForwardMatrix1, frame.ForwardMatrix2
	asShotNeutral := frame.AsShotNeutral
	illuminant1, illuminant2 := frame.ColorIlluminant1, frame.ColorIlluminant2

	if calib.HasColorMatrix1 {
		colorMatrix1 = calib.ColorMatrix1
	}
	if calib.HasColorMatrix2 {
		colorMatrix2 = calib.ColorMatrix2
	}
	if calib.HasForwardMatrix1 {
		forwardMatrix1 = calib.ForwardMatrix1
	}
	if calib.HasForwardMatrix2 {
		forwardMatrix2 = calib.ForwardMatrix2
	}
	if calib.HasAsShotNeutral {
		asShotNeutral = calib.AsShotNeutral
	}

	model := container.Model
	if cfg.Has(renderconfig.CamModelOverride) && cfg.CameraModel != "" {
		model = cfg.CameraModel
	}
	uniqueModel := frame.UniqueCameraModel
	if cfg.Has(renderconfig.CamModelOverride) && cfg.CameraModel != "" {
		uniqueModel = cfg.CameraModel
	}

	baselineExposure := exposure.ParseCompensation(cfg.ExposureCompensation).EvalAtIndex(index, totalOutputFrames)
	if cfg.Has(renderconfig.NormalizeExposure) {
		baselineExposure += normalizedExposureEV(container.BaselineISOExposure, frame.ISO, frame.ExposureTimeNs)
	}

	spec := dngwriter.FrameSpec{
		Width:           width,
		Height:          height,
		BitsPerSample:   encodeBits,
		SamplesPerPixel: spp,
		Photometric:     photometric,
		PixelData:       packed,

		Make:              container.Make,
		Model:             model,
		UniqueCameraModel: uniqueModel,
		Software:          "rawmount",
		Orientation:       composeOrientation(frame.Orientation, frame.Flipped),

		CFAPattern: cfaTuple,
		CFALayout:  1,

		BlackLevel: blackLevel,
		WhiteLevel: whiteLevel,

		ColorMatrix1:   colorMatrix1,
		ColorMatrix2:   colorMatrix2,
		ForwardMatrix1: forwardMatrix1,
		ForwardMatrix2: forwardMatrix2,
		AsShotNeutral:  asShotNeutral,

		CalibrationIlluminant1: illuminant1,
		CalibrationIlluminant2: illuminant2,

		ISO:              uint32(frame.ISO),
		ExposureTime:     secondsToRational(float64(frame.ExposureTimeNs) / 1e9),
		BaselineExposure: evToSRational(baselineExposure),
		FrameRate:        toFraction(fps),
		TimeCode:         encodeTimecode(index, fps),
		OpcodeList:       opcodeList,
	}

	if logActive {
		spec.LinearizationTable = buildLinearizationTable(int(destWhite))
	}

	bytes, err := dngwriter.Encode(spec)
	if err != nil {
		return Artifact{}, fmt.Errorf("synth: encode: %w", err)
	}
	return Artifact{Bytes: bytes, Index: index}, nil
}

// classifySource implements spec §4.4 step 1's CFA derivation, extended
// with the calibration-over-UI-over-decoder override precedence: a
// calibration cfaPhase wins over a RenderConfig cfaPhase, which wins over
// the decoder-reported arrangement. When the decoder itself reports no
// arrangement (a native-RGB source such as DirectLog), REMOSAIC plus an
// override produces a synthetic Bayer plane; absent REMOSAIC the source
// stays native RGB and rgbOutput reports that to the caller (spec §9's
// "RGB synthesis with optional remosaic").
func classifySource(frame camera.FrameMetadata, calib calibration.Data, cfg renderconfig.Config) (arrangement camera.Arrangement, cfaTuple [4]byte, remosaic, rgbOutput bool, err error) {
	native := frame.SensorArrangement
	override := resolveOverrideArrangement(cfg, calib)

	if native != camera.ArrangementUnknown {
		final := native
		if override != camera.ArrangementUnknown {
			final = override
		}
		tuple, ok := final.CFATuple()
		if !ok {
			return final, [4]byte{}, false, false, fmt.Errorf("synth: unsupported sensor arrangement %q", final)
		}
		return final, tuple, false, false, nil
	}

	if cfg.Has(renderconfig.Remosaic) {
		if override == camera.ArrangementUnknown {
			return camera.ArrangementUnknown, [4]byte{}, false, false, fmt.Errorf("synth: remosaic requested but no CFA override available")
		}
		tuple, ok := override.CFATuple()
		if !ok {
			return override, [4]byte{}, false, false, fmt.Errorf("synth: unsupported sensor arrangement %q", override)
		}
		return override, tuple, true, false, nil
	}

	return camera.ArrangementUnknown, [4]byte{}, false, true, nil
}

func resolveOverrideArrangement(cfg renderconfig.Config, calib calibration.Data) camera.Arrangement {
	if calib.HasCFAPhase {
		return camera.Arrangement(calib.CFAPhase)
	}
	if cfg.CFAPhase != renderconfig.PhaseUnset {
		return camera.Arrangement(cfg.CFAPhase)
	}
	return camera.ArrangementUnknown
}

// remosaicRGB builds a single-channel synthetic Bayer plane from three
// planar R,G,B planes by sampling, at each pixel, the plane matching the
// CFA tuple's color code for that pixel's 2x2 phase.
func remosaicRGB(src []uint16, width, height int, cfaTuple [4]byte) []uint16 {
	n := width * height
	out := make([]uint16, n)
	if len(src) < 3*n {
		return out
	}
	r, g, b := src[0:n], src[n:2*n], src[2*n:3*n]

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			idx := (y%2)*2 + (x % 2)
			i := y*width + x
			switch cfaTuple[idx] {
			case 0:
				out[i] = r[i]
			case 2:
				out[i] = b[i]
			default:
				out[i] = g[i]
			}
		}
	}
	return out
}

// packRGBPlanes implements the RGB branch of spec §9's DNG assembly: the
// three planar R,G,B planes in src are each run through the same
// per-plane preprocessing the Bayer path uses, then interleaved
// pixel-major (R,G,B,R,G,B,...) and packed at the rounded-up encoding
// depth for an RGB (SamplesPerPixel=3) DNG.
func packRGBPlanes(src []uint16, frame camera.FrameMetadata, cfg renderconfig.Config) (packed []byte, width, height int, black [4]float64, white float64, encodeBits int, err error) {
	n := frame.Width * frame.Height
	if len(src) < 3*n {
		return nil, 0, 0, [4]float64{}, 0, 0, fmt.Errorf("synth: rgb source has %d samples, need %d", len(src), 3*n)
	}
	planes := [3][]uint16{src[0:n], src[n : 2*n], src[2*n : 3*n]}
	var results [3]preprocess.Result
	for i, p := range planes {
		results[i], err = preprocess.Process(p, frame, cfg)
		if err != nil {
			return nil, 0, 0, [4]float64{}, 0, 0, fmt.Errorf("synth: preprocess plane %d: %w", i, err)
		}
	}
	width, height = results[0].Width, results[0].Height
	white = results[0].DestWhite
	black = results[0].DestBlack
	encodeBits = roundUpToSupportedDepth(bitsFor(white))

	interleaved := make([]uint16, width*height*3)
	for i := 0; i < width*height; i++ {
		interleaved[i*3+0] = results[0].Buf[i]
		interleaved[i*3+1] = results[1].Buf[i]
		interleaved[i*3+2] = results[2].Buf[i]
	}

	if encodeBits == 16 {
		packed = make([]byte, len(interleaved)*2)
		for i, v := range interleaved {
			packed[2*i] = byte(v)
			packed[2*i+1] = byte(v >> 8)
		}
		return packed, width, height, black, white, encodeBits, nil
	}
	packed, err = bitpack.PackRGB(interleaved, width, height, encodeBits)
	if err != nil {
		return nil, 0, 0, [4]float64{}, 0, 0, err
	}
	return packed, width, height, black, white, encodeBits, nil
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

func roundUpToSupportedDepth(bits int) int {
	for _, d := range supportedDepths {
		if d >= bits {
			return d
		}
	}
	return supportedDepths[len(supportedDepths)-1]
}

func packSamples(buf []uint16, width, height, bits int) (packed []byte, samplesPerPixel int, photometric uint16, err error) {
	if bits == 16 {
		out := make([]byte, len(buf)*2)
		for i, v := range buf {
			out[2*i] = byte(v)
			out[2*i+1] = byte(v >> 8)
		}
		return out, 1, dngwriter.PhotometricCFA, nil
	}
	packed, err = bitpack.PackBayer(buf, width, height, bits)
	if err != nil {
		return nil, 0, 0, err
	}
	return packed, 1, dngwriter.PhotometricCFA, nil
}

func composeOrientation(base uint16, flipped bool) uint16 {
	if !flipped {
		return base
	}
	// Mirror the base orientation's horizontal sense per the TIFF
	// orientation enum (1<->2, 3<->4, 5<->8, 6<->7).
	switch base {
	case 1:
		return 2
	case 2:
		return 1
	case 3:
		return 4
	case 4:
		return 3
	case 5:
		return 8
	case 8:
		return 5
	case 6:
		return 7
	case 7:
		return 6
	default:
		return base
	}
}

// normalizedExposureEV is spec §4.4's log2(baselineExp / (iso*exposureTime)).
func normalizedExposureEV(baselineExp, iso float64, exposureTimeNs int64) float64 {
	exposureSeconds := float64(exposureTimeNs) / 1e9
	denom := iso * exposureSeconds
	if baselineExp <= 0 || denom <= 0 {
		return 0
	}
	return math.Log2(baselineExp / denom)
}

// buildLinearizationTable implements spec §4.4 step 5: entry i is
// round(65535*((2^((i/destWhite)*log2(61))-1)/60)) with identity forced at
// both endpoints.
func buildLinearizationTable(destWhite int) []uint16 {
	if destWhite <= 0 {
		return nil
	}
	log61 := math.Log2(61)
	table := make([]uint16, destWhite+1)
	for i := 0; i <= destWhite; i++ {
		frac := float64(i) / float64(destWhite)
		v := (math.Exp2(frac*log61) - 1) / 60
		table[i] = uint16(math.Round(65535 * v))
	}
	table[0] = 0
	table[len(table)-1] = 65535
	return table
}

func secondsToRational(seconds float64) dngwriter.Rational {
	const den = 1000000
	num := math.Round(seconds * den)
	if num < 0 {
		num = 0
	}
	return dngwriter.Rational{Num: uint32(num), Den: den}
}

func evToSRational(ev float64) dngwriter.SRational {
	const den = 1000000
	return dngwriter.SRational{Num: int32(math.Round(ev * den)), Den: den}
}

// toFraction approximates fps as num/den, preferring the NTSC-style
// 1.001 divisor when fps is close to an integer scaled by 1000/1001.
func toFraction(fps float64) dngwriter.Rational {
	if fps <= 0 {
		return dngwriter.Rational{Num: 0, Den: 1}
	}
	const ntscDen = 1001
	ntscNum := math.Round(fps * ntscDen)
	if math.Abs(ntscNum/ntscDen-fps) < 0.0005 && math.Mod(ntscNum, 1000) == 0 {
		return dngwriter.Rational{Num: uint32(ntscNum), Den: ntscDen}
	}
	const den = 1000
	return dngwriter.Rational{Num: uint32(math.Round(fps * den)), Den: den}
}

// encodeTimecode packs index/fps seconds as BCD hours:minutes:seconds:frames
// into the low 4 bytes of the DNG TimeCode tag; the remaining 4 bytes are
// reserved and left zero.
func encodeTimecode(index int64, fps float64) [8]byte {
	var tc [8]byte
	if fps <= 0 {
		return tc
	}
	totalSeconds := float64(index) / fps
	frame := int(math.Mod(float64(index), fps))
	seconds := int(totalSeconds) % 60
	minutes := (int(totalSeconds) / 60) % 60
	hours := (int(totalSeconds) / 3600) % 24

	tc[0] = toBCD(frame)
	tc[1] = toBCD(seconds)
	tc[2] = toBCD(minutes)
	tc[3] = toBCD(hours)
	return tc
}

func toBCD(v int) byte {
	if v < 0 {
		v = 0
	}
	if v > 99 {
		v = 99
	}
	return byte((v/10)<<4 | (v % 10))
}

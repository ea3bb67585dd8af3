// Package dngwriter emits little-endian TIFF structures that satisfy
// Adobe DNG 1.4: one IFD carrying a single raw image strip, with tags
// written in ascending tag-number order as DNG readers assume.
package dngwriter

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Rational is an unsigned TIFF RATIONAL value (numerator/denominator).
type Rational struct {
	Num, Den uint32
}

// SRational is a signed TIFF SRATIONAL value.
type SRational struct {
	Num, Den int32
}

// FrameSpec describes one DNG frame to encode. ColorMatrix and
// ForwardMatrix fields that are entirely zero are omitted from the output;
// an all-zero CameraCalibration field is written as the identity matrix.
type FrameSpec struct {
	Width, Height    int
	BitsPerSample    int
	SamplesPerPixel  int // 1 for CFA, 3 for RGB
	Photometric      uint16
	PixelData        []byte // packed sample bytes for the single strip

	Make, Model, UniqueCameraModel, Software string
	Orientation                              uint16

	CFAPattern [4]byte // DNG color codes, ignored when SamplesPerPixel == 3
	CFALayout  uint16

	BlackLevel [4]float64
	WhiteLevel uint32
	ActiveArea [4]uint32 // top, left, bottom, right; zero value means "unset, omit"

	XResolution, YResolution Rational

	ColorMatrix1, ColorMatrix2     [9]float64
	ForwardMatrix1, ForwardMatrix2 [9]float64
	CameraCalibration1             [9]float64
	CameraCalibration2             [9]float64
	AsShotNeutral                  [3]float64
	CalibrationIlluminant1         uint16
	CalibrationIlluminant2         uint16

	ISO              uint32
	ExposureTime     Rational
	BaselineExposure SRational
	FrameRate        Rational
	TimeCode         [8]byte

	// LinearizationTable is omitted from the output when nil.
	LinearizationTable []uint16

	// OpcodeList is an opaque per-frame DNG opcode stream (e.g. a gain
	// map) passed through uninterpreted from the source decoder; omitted
	// from the output when empty.
	OpcodeList []byte
}

type ifdEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte // already little-endian encoded, length == typeSize(typ)*count
}

// Encode renders spec as a complete DNG byte buffer.
func Encode(spec FrameSpec) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, spec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write streams spec as a complete DNG to w.
func Write(w io.Writer, spec FrameSpec) error {
	if spec.Width <= 0 || spec.Height <= 0 {
		return fmt.Errorf("dngwriter: invalid dimensions %dx%d", spec.Width, spec.Height)
	}
	if spec.SamplesPerPixel != 1 && spec.SamplesPerPixel != 3 {
		return fmt.Errorf("dngwriter: unsupported SamplesPerPixel %d", spec.SamplesPerPixel)
	}

	entries, err := buildEntries(spec)
	if err != nil {
		return err
	}

	const headerSize = 8
	ifdSize := 2 + 12*len(entries) + 4
	overflowStart := headerSize + ifdSize

	var overflow bytes.Buffer
	inline := make([][4]byte, len(entries))
	offsets := make([]uint32, len(entries))
	isInline := make([]bool, len(entries))

	for i, e := range entries {
		if len(e.data) <= 4 {
			isInline[i] = true
			copy(inline[i][:], e.data)
			continue
		}
		if overflow.Len()%2 != 0 {
			overflow.WriteByte(0)
		}
		offsets[i] = uint32(overflowStart + overflow.Len())
		overflow.Write(e.data)
	}

	stripOffset := overflowStart + overflow.Len()
	if stripOffset%2 != 0 {
		stripOffset++
	}

	for i, e := range entries {
		if e.tag == tagStripOffsets {
			var b [4]byte
			binary.LittleEndian.PutUint32(b[:], uint32(stripOffset))
			inline[i] = b
			isInline[i] = true
		}
	}

	header := make([]byte, headerSize)
	header[0], header[1] = 'I', 'I'
	binary.LittleEndian.PutUint16(header[2:], 42)
	binary.LittleEndian.PutUint32(header[4:], headerSize)
	if _, err := w.Write(header); err != nil {
		return err
	}

	var ifd bytes.Buffer
	countBytes := make([]byte, 2)
	binary.LittleEndian.PutUint16(countBytes, uint16(len(entries)))
	ifd.Write(countBytes)

	for i, e := range entries {
		var rec [12]byte
		binary.LittleEndian.PutUint16(rec[0:], e.tag)
		binary.LittleEndian.PutUint16(rec[2:], e.typ)
		binary.LittleEndian.PutUint32(rec[4:], e.count)
		if isInline[i] {
			copy(rec[8:], inline[i][:])
		} else {
			binary.LittleEndian.PutUint32(rec[8:], offsets[i])
		}
		ifd.Write(rec[:])
	}

	var nextIFD [4]byte
	ifd.Write(nextIFD[:])

	if _, err := w.Write(ifd.Bytes()); err != nil {
		return err
	}
	if _, err := w.Write(overflow.Bytes()); err != nil {
		return err
	}

	padding := stripOffset - (overflowStart + overflow.Len())
	for i := 0; i < padding; i++ {
		if _, err := w.Write([]byte{0}); err != nil {
			return err
		}
	}

	if _, err := w.Write(spec.PixelData); err != nil {
		return err
	}
	return nil
}

func buildEntries(spec FrameSpec) ([]ifdEntry, error) {
	var entries []ifdEntry

	entries = append(entries, longEntry(tagImageWidth, uint32(spec.Width)))
	entries = append(entries, longEntry(tagImageLength, uint32(spec.Height)))

	bitsValues := make([]uint16, spec.SamplesPerPixel)
	for i := range bitsValues {
		bitsValues[i] = uint16(spec.BitsPerSample)
	}
	entries = append(entries, shortEntry(tagBitsPerSample, bitsValues...))

	entries = append(entries, shortEntry(tagCompression, 1))
	entries = append(entries, shortEntry(tagPhotometricInterpretation, spec.Photometric))

	if spec.Make != "" {
		entries = append(entries, asciiEntry(tagMake, spec.Make))
	}
	if spec.Model != "" {
		entries = append(entries, asciiEntry(tagModel, spec.Model))
	}

	// StripOffsets value is a placeholder patched in Write once layout is known.
	entries = append(entries, longEntry(tagStripOffsets, 0))
	entries = append(entries, shortEntry(tagOrientation, spec.Orientation))
	entries = append(entries, shortEntry(tagSamplesPerPixel, uint16(spec.SamplesPerPixel)))
	entries = append(entries, longEntry(tagRowsPerStrip, uint32(spec.Height)))
	entries = append(entries, longEntry(tagStripByteCounts, uint32(len(spec.PixelData))))

	xres := spec.XResolution
	if xres.Den == 0 {
		xres = Rational{Num: 72, Den: 1}
	}
	yres := spec.YResolution
	if yres.Den == 0 {
		yres = Rational{Num: 72, Den: 1}
	}
	entries = append(entries, rationalEntry(tagXResolution, xres))
	entries = append(entries, rationalEntry(tagYResolution, yres))
	entries = append(entries, shortEntry(tagPlanarConfiguration, 1))
	entries = append(entries, shortEntry(tagResolutionUnit, 2))
	if spec.Software != "" {
		entries = append(entries, asciiEntry(tagSoftware, spec.Software))
	}

	formatValues := make([]uint16, spec.SamplesPerPixel)
	for i := range formatValues {
		formatValues[i] = 1 // unsigned integer
	}
	entries = append(entries, shortEntry(tagSampleFormat, formatValues...))

	if spec.SamplesPerPixel == 1 {
		entries = append(entries, shortEntry(tagCFARepeatPatternDim, 2, 2))
		entries = append(entries, byteEntry(tagCFAPattern, spec.CFAPattern[:]...))
	}

	entries = append(entries, rationalEntry(tagExposureTime, spec.ExposureTime))
	entries = append(entries, longEntry(tagISOSpeedRatings, spec.ISO))

	entries = append(entries, byteEntry(tagDNGVersion, 1, 4, 0, 0))
	entries = append(entries, byteEntry(tagDNGBackwardVersion, 1, 1, 0, 0))
	if spec.UniqueCameraModel != "" {
		entries = append(entries, asciiEntry(tagUniqueCameraModel, spec.UniqueCameraModel))
	}

	if spec.SamplesPerPixel == 1 {
		entries = append(entries, shortEntry(tagCFALayout, nonZero16(spec.CFALayout, 1)))
	}

	if len(spec.LinearizationTable) > 0 {
		entries = append(entries, shortEntry(tagLinearizationTable, spec.LinearizationTable...))
	}

	if spec.SamplesPerPixel == 1 {
		entries = append(entries, shortEntry(tagBlackLevelRepeatDim, 2, 2))
		entries = append(entries, rationalEntry(tagBlackLevel, floatsToRationals(spec.BlackLevel[:])...))
	} else {
		entries = append(entries, rationalEntry(tagBlackLevel, floatsToRationals(spec.BlackLevel[:1])...))
	}
	entries = append(entries, longEntry(tagWhiteLevel, spec.WhiteLevel))

	if !isZero9(spec.ColorMatrix1) {
		entries = append(entries, srationalEntry(tagColorMatrix1, floatsToSRationals(spec.ColorMatrix1[:])...))
	}
	if !isZero9(spec.ColorMatrix2) {
		entries = append(entries, srationalEntry(tagColorMatrix2, floatsToSRationals(spec.ColorMatrix2[:])...))
	}

	calibration1 := spec.CameraCalibration1
	if isZero9(calibration1) {
		calibration1 = identity3x3()
	}
	entries = append(entries, srationalEntry(tagCameraCalibration1, floatsToSRationals(calibration1[:])...))
	calibration2 := spec.CameraCalibration2
	if isZero9(calibration2) {
		calibration2 = identity3x3()
	}
	entries = append(entries, srationalEntry(tagCameraCalibration2, floatsToSRationals(calibration2[:])...))

	entries = append(entries, rationalEntry(tagAsShotNeutral, floatsToRationals(spec.AsShotNeutral[:])...))
	entries = append(entries, srationalEntry(tagBaselineExposure, spec.BaselineExposure))
	entries = append(entries, shortEntry(tagCalibrationIlluminant1, spec.CalibrationIlluminant1))
	entries = append(entries, shortEntry(tagCalibrationIlluminant2, spec.CalibrationIlluminant2))

	if spec.ActiveArea != [4]uint32{} {
		entries = append(entries, longEntry(tagActiveArea, spec.ActiveArea[:]...))
	}

	if !isZero9(spec.ForwardMatrix1) {
		entries = append(entries, srationalEntry(tagForwardMatrix1, floatsToSRationals(spec.ForwardMatrix1[:])...))
	}
	if !isZero9(spec.ForwardMatrix2) {
		entries = append(entries, srationalEntry(tagForwardMatrix2, floatsToSRationals(spec.ForwardMatrix2[:])...))
	}

	if len(spec.OpcodeList) > 0 {
		entries = append(entries, undefinedEntry(tagOpcodeList2, spec.OpcodeList))
	}

	entries = append(entries, byteEntry(tagTimeCode, spec.TimeCode[:]...))
	entries = append(entries, rationalEntry(tagFrameRate, spec.FrameRate))

	return entries, nil
}

func nonZero16(v, fallback uint16) uint16 {
	if v == 0 {
		return fallback
	}
	return v
}

func isZero9(m [9]float64) bool {
	for _, v := range m {
		if v != 0 {
			return false
		}
	}
	return true
}

func identity3x3() [9]float64 {
	return [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}
}

// Package bitpack packs 16-bit Bayer and RGB sample streams into the
// variable-width bit depths DNG readers expect (2/4/6/8/10/12/14 bits per
// sample), MSB-first within the byte stream.
package bitpack

import "fmt"

// BlockSpec describes how many pixels and output bytes make up one
// byte-aligned packing group for a given bit depth.
type BlockSpec struct {
	PixelsPerBlock int
	BytesPerBlock  int
}

var blockTable = map[int]BlockSpec{
	2:  {PixelsPerBlock: 4, BytesPerBlock: 1},
	4:  {PixelsPerBlock: 2, BytesPerBlock: 1},
	6:  {PixelsPerBlock: 4, BytesPerBlock: 3},
	8:  {PixelsPerBlock: 1, BytesPerBlock: 1},
	10: {PixelsPerBlock: 4, BytesPerBlock: 5},
	12: {PixelsPerBlock: 2, BytesPerBlock: 3},
	14: {PixelsPerBlock: 4, BytesPerBlock: 7},
}

// BlockSpecFor returns the block/stride pair for a supported bit depth.
func BlockSpecFor(bits int) (BlockSpec, bool) {
	spec, ok := blockTable[bits]
	return spec, ok
}

// AlignWidth rounds width down to the nearest multiple of the packer's
// pixels-per-block for bits. Unsupported depths return width unchanged.
func AlignWidth(width, bits int) int {
	spec, ok := blockTable[bits]
	if !ok || spec.PixelsPerBlock <= 0 {
		return width
	}
	return (width / spec.PixelsPerBlock) * spec.PixelsPerBlock
}

// PackBayer packs a single-channel width*height sample stream.
func PackBayer(buf []uint16, width, height, bits int) ([]byte, error) {
	return packSamples(buf, width*height, bits)
}

// PackRGB packs an R,G,B-interleaved width*height*3 sample stream, each
// sample at the same bit depth.
func PackRGB(buf []uint16, width, height, bits int) ([]byte, error) {
	return packSamples(buf, width*height*3, bits)
}

// UnpackBayer is the inverse of PackBayer, used by round-trip tests.
func UnpackBayer(packed []byte, width, height, bits int) ([]uint16, error) {
	return unpackSamples(packed, width*height, bits)
}

// UnpackRGB is the inverse of PackRGB, used by round-trip tests.
func UnpackRGB(packed []byte, width, height, bits int) ([]uint16, error) {
	return unpackSamples(packed, width*height*3, bits)
}

func packSamples(buf []uint16, n, bits int) ([]byte, error) {
	spec, ok := blockTable[bits]
	if !ok {
		return nil, fmt.Errorf("bitpack: unsupported bit depth %d", bits)
	}
	blocks := n / spec.PixelsPerBlock
	if blocks*spec.PixelsPerBlock != n {
		return nil, fmt.Errorf("bitpack: sample count %d is not a multiple of the %d-bit block size %d", n, bits, spec.PixelsPerBlock)
	}
	if len(buf) < n {
		return nil, fmt.Errorf("bitpack: buffer has %d samples, need %d", len(buf), n)
	}

	out := make([]byte, blocks*spec.BytesPerBlock)
	mask := uint64(1)<<uint(bits) - 1

	var bitBuf uint64
	var bitCount uint
	outIdx := 0
	for i := 0; i < n; i++ {
		bitBuf = (bitBuf << uint(bits)) | (uint64(buf[i]) & mask)
		bitCount += uint(bits)
		for bitCount >= 8 {
			bitCount -= 8
			out[outIdx] = byte(bitBuf >> bitCount)
			outIdx++
		}
	}
	return out[:blocks*spec.BytesPerBlock], nil
}

func unpackSamples(packed []byte, n, bits int) ([]uint16, error) {
	spec, ok := blockTable[bits]
	if !ok {
		return nil, fmt.Errorf("bitpack: unsupported bit depth %d", bits)
	}
	blocks := n / spec.PixelsPerBlock
	if blocks*spec.PixelsPerBlock != n {
		return nil, fmt.Errorf("bitpack: sample count %d is not a multiple of the %d-bit block size %d", n, bits, spec.PixelsPerBlock)
	}
	needed := blocks * spec.BytesPerBlock
	if len(packed) < needed {
		return nil, fmt.Errorf("bitpack: packed buffer has %d bytes, need %d", len(packed), needed)
	}

	out := make([]uint16, n)
	mask := uint64(1)<<uint(bits) - 1

	var bitBuf uint64
	var bitCount uint
	byteIdx := 0
	for i := 0; i < n; i++ {
		for bitCount < uint(bits) {
			bitBuf = (bitBuf << 8) | uint64(packed[byteIdx])
			byteIdx++
			bitCount += 8
		}
		bitCount -= uint(bits)
		out[i] = uint16((bitBuf >> bitCount) & mask)
	}
	return out, nil
}

package dngwriter

import "encoding/binary"

func shortEntry(tag uint16, values ...uint16) ifdEntry {
	data := make([]byte, 2*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint16(data[i*2:], v)
	}
	return ifdEntry{tag: tag, typ: tiffShort, count: uint32(len(values)), data: data}
}

func longEntry(tag uint16, values ...uint32) ifdEntry {
	data := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(data[i*4:], v)
	}
	return ifdEntry{tag: tag, typ: tiffLong, count: uint32(len(values)), data: data}
}

func byteEntry(tag uint16, values ...byte) ifdEntry {
	data := make([]byte, len(values))
	copy(data, values)
	return ifdEntry{tag: tag, typ: tiffByte, count: uint32(len(values)), data: data}
}

func asciiEntry(tag uint16, s string) ifdEntry {
	data := append([]byte(s), 0)
	return ifdEntry{tag: tag, typ: tiffASCII, count: uint32(len(data)), data: data}
}

func undefinedEntry(tag uint16, values []byte) ifdEntry {
	data := make([]byte, len(values))
	copy(data, values)
	return ifdEntry{tag: tag, typ: tiffUndefined, count: uint32(len(data)), data: data}
}

func rationalEntry(tag uint16, values ...Rational) ifdEntry {
	data := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(data[i*8:], v.Num)
		binary.LittleEndian.PutUint32(data[i*8+4:], v.Den)
	}
	return ifdEntry{tag: tag, typ: tiffRational, count: uint32(len(values)), data: data}
}

func srationalEntry(tag uint16, values ...SRational) ifdEntry {
	data := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(data[i*8:], uint32(v.Num))
		binary.LittleEndian.PutUint32(data[i*8+4:], uint32(v.Den))
	}
	return ifdEntry{tag: tag, typ: tiffSRational, count: uint32(len(values)), data: data}
}

// floatsToRationals converts floats to unsigned rationals at a fixed
// precision of six decimal digits, suitable for black levels and
// white-balance neutrals (always non-negative in practice).
func floatsToRationals(values []float64) []Rational {
	out := make([]Rational, len(values))
	for i, v := range values {
		out[i] = toRational(v)
	}
	return out
}

func floatsToSRationals(values []float64) []SRational {
	out := make([]SRational, len(values))
	for i, v := range values {
		out[i] = toSRational(v)
	}
	return out
}

const rationalDenominator = 1000000

func toRational(v float64) Rational {
	if v < 0 {
		v = 0
	}
	num := int64(v*rationalDenominator + 0.5)
	den := int64(rationalDenominator)
	g := gcd(num, den)
	if g == 0 {
		g = 1
	}
	return Rational{Num: uint32(num / g), Den: uint32(den / g)}
}

func toSRational(v float64) SRational {
	neg := v < 0
	if neg {
		v = -v
	}
	num := int64(v*rationalDenominator + 0.5)
	den := int64(rationalDenominator)
	g := gcd(num, den)
	if g == 0 {
		g = 1
	}
	num /= g
	den /= g
	if neg {
		num = -num
	}
	return SRational{Num: int32(num), Den: int32(den)}
}

func gcd(a, b int64) int64 {
	if a == 0 {
		return b
	}
	for b != 0 {
		a, b = b, a%b
	}
	if a < 0 {
		return -a
	}
	return a
}

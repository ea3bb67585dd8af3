package preprocess

// ditherValue returns a deterministic triangular-distributed offset in
// [-0.5, 0.5) for the sample at (x, y, channel), used only in log mode.
// It is seeded from the coordinates themselves (not math/rand) so replays
// of the same frame produce bit-identical output.
func ditherValue(x, y, channel int) float64 {
	a := mix(uint64(x), uint64(y), uint64(channel), 0x9E3779B97F4A7C15)
	b := mix(uint64(y), uint64(channel), uint64(x), 0xC2B2AE3D27D4EB4F)
	return (uniform01(a)+uniform01(b))/2 - 0.5
}

func mix(x, y, z, salt uint64) uint64 {
	h := x*0xFF51AFD7ED558CCD ^ y*0xC4CEB9FE1A85EC53 ^ z*0x2545F4914F6CDD1D ^ salt
	h ^= h >> 33
	h *= 0xFF51AFD7ED558CCD
	h ^= h >> 33
	h *= 0xC4CEB9FE1A85EC53
	h ^= h >> 33
	return h
}

// uniform01 maps the top 24 bits of h to a uniform value in [0,1).
func uniform01(h uint64) float64 {
	return float64(h>>40) / float64(1<<24)
}

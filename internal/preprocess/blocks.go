package preprocess

import (
	"math"

	"rawmount/internal/shadingmap"
)

type blockParams struct {
	src      []uint16
	srcWidth int
	sensorW  int
	sensorH  int
	offX     int
	offY     int
	scale    int
	outW     int
	outH     int

	black [4]float64
	white float64

	shading   shadingmap.Map
	shadingOn bool

	destBlack [4]float64
	destWhite float64

	mode     string
	ditherOn bool
}

var log61 = math.Log2(61)

func processBlocks(p blockParams) []uint16 {
	out := make([]uint16, p.outW*p.outH)

	for by := 0; by < p.outH/2; by++ {
		for bx := 0; bx < p.outW/2; bx++ {
			for dy := 0; dy < 2; dy++ {
				for dx := 0; dx < 2; dx++ {
					idx := dy*2 + dx
					srcX := p.offX + bx*p.scale*2 + dx
					srcY := p.offY + by*p.scale*2 + dy

					s := float64(p.src[srcY*p.srcWidth+srcX])
					black := p.black[idx]
					denom := p.white - black
					if denom <= 0 {
						denom = 1
					}
					linear := (s - black) / denom
					if linear < 0 {
						linear = 0
					}

					gain := 1.0
					if p.shadingOn {
						u := float32(srcX) / float32(maxInt(p.sensorW-1, 1))
						v := float32(srcY) / float32(maxInt(p.sensorH-1, 1))
						gain = float64(shadingmap.Sample(p.shading.Planes[idx], p.shading.Width, p.shading.Height, u, v))
					}

					var value float64
					switch p.mode {
					case modeLog:
						lin := linear * gain
						logv := math.Log2(1+60*math.Max(0, lin)) / log61
						value = logv * p.destWhite
						if p.ditherOn {
							value += ditherValue(srcX, srcY, idx)
						}
					case modeDebug:
						value = gain * p.destWhite
					default: // modeLinear
						value = linear * gain * (p.destWhite - p.destBlack[idx])
					}

					outX := bx*2 + dx
					outY := by*2 + dy
					out[outY*p.outW+outX] = uint16(clampRound(value+p.destBlack[idx], 0, p.destWhite))
				}
			}
		}
	}
	return out
}

func clampRound(v, lo, hi float64) float64 {
	r := math.Round(v)
	if r < lo {
		return lo
	}
	if r > hi {
		return hi
	}
	return r
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

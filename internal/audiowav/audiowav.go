// Package audiowav assembles the RIFF/WAV sidecar a virtual MCRAW source
// exposes as "audio.wav" (spec §4.7/§6): audio/video alignment, and
// header + PCM-body assembly carrying the fractional output frame rate.
// The WAV encoder's own bitstream internals are an external collaborator
// — rawmount only frames already-decoded 16-bit PCM samples.
package audiowav

import (
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"math"

	"rawmount/internal/decoder"
)

// SyncResult is the outcome of aligning audio to the first video
// timestamp: the adjusted interleaved PCM stream, or Synced=false when
// drift exceeded the tolerance and audio should be omitted entirely.
type SyncResult struct {
	Samples []int16
	Synced  bool
}

// Sync implements spec §4.7's audio-sync rule: align the first audio
// chunk's timestamp to firstVideoTimestamp. Drift beyond 1s absolute is
// logged and the audio track is skipped. Positive drift (audio begins
// after video) trims leading audio samples; negative drift prepends
// silence of the same duration. logger may be nil.
func Sync(chunks []decoder.AudioChunk, sampleRate, channels int, firstVideoTimestamp int64, logger *slog.Logger) SyncResult {
	if logger == nil {
		logger = slog.Default()
	}
	if len(chunks) == 0 || sampleRate <= 0 || channels <= 0 {
		return SyncResult{}
	}

	samples := flatten(chunks)
	driftNs := chunks[0].Timestamp - firstVideoTimestamp

	if math.Abs(float64(driftNs)) > 1e9 {
		logger.Warn("audio/video drift exceeds 1s tolerance, skipping audio track",
			slog.Int64("drift_ns", driftNs))
		return SyncResult{}
	}

	driftMs := float64(driftNs) / 1e6
	shiftFrames := int(math.Round(math.Abs(driftMs) * float64(sampleRate) / 1000))
	shiftSamples := shiftFrames * channels

	switch {
	case driftNs > 0:
		if shiftSamples > len(samples) {
			shiftSamples = len(samples)
		}
		samples = samples[shiftSamples:]
	case driftNs < 0:
		silence := make([]int16, shiftSamples)
		samples = append(silence, samples...)
	}

	return SyncResult{Samples: samples, Synced: true}
}

func flatten(chunks []decoder.AudioChunk) []int16 {
	n := 0
	for _, c := range chunks {
		n += len(c.Samples)
	}
	out := make([]int16, 0, n)
	for _, c := range chunks {
		out = append(out, c.Samples...)
	}
	return out
}

// fpsChunkID is a private RIFF chunk rawmount adds alongside the
// standard fmt/data chunks to carry the fractional output frame rate;
// readers that don't recognize it skip it per the RIFF chunk convention.
const fpsChunkID = "fps "

// Write renders a complete WAV file: RIFF/WAVE header, a standard 16-bit
// PCM fmt chunk, the fps chunk (fpsNum/fpsDen as two little-endian
// uint32s), and the PCM data chunk.
func Write(w io.Writer, samples []int16, sampleRate, channels int, fpsNum, fpsDen uint32) error {
	if sampleRate <= 0 || channels <= 0 {
		return fmt.Errorf("audiowav: invalid sampleRate=%d channels=%d", sampleRate, channels)
	}

	dataSize := uint32(len(samples) * 2)
	byteRate := uint32(sampleRate * channels * 2)
	blockAlign := uint16(channels * 2)

	const fmtChunkSize = 16
	const fpsChunkSize = 8
	riffSize := uint32(4) + // "WAVE"
		8 + fmtChunkSize +
		8 + fpsChunkSize +
		8 + dataSize

	if err := writeChunkHeader(w, "RIFF", riffSize); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "WAVE"); err != nil {
		return err
	}

	if err := writeChunkHeader(w, "fmt ", fmtChunkSize); err != nil {
		return err
	}
	fmtFields := []any{
		uint16(1), // PCM
		uint16(channels),
		uint32(sampleRate),
		byteRate,
		blockAlign,
		uint16(16), // bits per sample
	}
	for _, f := range fmtFields {
		if err := binary.Write(w, binary.LittleEndian, f); err != nil {
			return err
		}
	}

	if err := writeChunkHeader(w, fpsChunkID, fpsChunkSize); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, fpsNum); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, fpsDen); err != nil {
		return err
	}

	if err := writeChunkHeader(w, "data", dataSize); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, samples)
}

func writeChunkHeader(w io.Writer, id string, size uint32) error {
	if len(id) != 4 {
		return fmt.Errorf("audiowav: chunk id %q must be 4 bytes", id)
	}
	if _, err := io.WriteString(w, id); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, size)
}

// ToFraction approximates fps as num/den, preferring the NTSC-style
// 1.001 divisor when fps is close to an integer scaled by 1000/1001,
// matching spec §4.7's toFraction(targetFps).
func ToFraction(fps float64) (num, den uint32) {
	if fps <= 0 {
		return 0, 1
	}
	const ntscDen = 1001
	ntscNum := math.Round(fps * ntscDen)
	if math.Abs(ntscNum/ntscDen-fps) < 0.0005 && math.Mod(ntscNum, 1000) == 0 {
		return uint32(ntscNum), ntscDen
	}
	const den64 = 1000
	return uint32(math.Round(fps * den64)), den64
}

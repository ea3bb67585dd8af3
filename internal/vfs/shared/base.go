// Package shared holds the plumbing spec §4.7 specifies once and every
// decoder variant (mcraw, directlog, dngseq) reuses: entry construction
// from a FrameTimeline, IO-pool/processing-pool read dispatch through the
// artifact cache, audio-sync rendering, and updateOptions semantics.
// Deduplicating this logic across variants mirrors the teacher's own
// workflow.Manager/stage.Handler split: one small per-variant contract
// (vfs.Source) backed by shared lifecycle/dispatch machinery.
package shared

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"

	"rawmount/internal/artifactcache"
	"rawmount/internal/audiowav"
	"rawmount/internal/calibration"
	"rawmount/internal/camera"
	"rawmount/internal/decoder"
	"rawmount/internal/frametiming"
	"rawmount/internal/renderconfig"
	"rawmount/internal/services"
	"rawmount/internal/synth"
	"rawmount/internal/vfs"
)

// FrameFetcher decodes the source frame at decodeIndex (the frame's
// ordinal position within the source's own timestamp list, not the
// output entry's index).
type FrameFetcher func(ctx context.Context, decodeIndex int) (decoder.Frame, error)

// AudioFetcher decodes every audio chunk for a source that carries one,
// along with its sample rate and channel count. nil for variants with no
// audio track (DirectLog, DNG sequence).
type AudioFetcher func(ctx context.Context) (chunks []decoder.AudioChunk, sampleRate, channels int, err error)

// InitParams configures a Base for one opened source.
type InitParams struct {
	SourceID   string
	Container  camera.ContainerMetadata
	Timestamps []int64
	FetchFrame FrameFetcher
	Audio      AudioFetcher

	Calibration calibration.Data
	Config      renderconfig.Config

	Cache          *artifactcache.Cache
	IOPool         *Pool
	ProcessingPool *Pool

	// DesktopSidecarName/Content describe the fixed desktop-integration
	// text blob (spec §4.7/§6); DesktopSidecarName is empty on platforms
	// that don't need one.
	DesktopSidecarName    string
	DesktopSidecarContent []byte

	Logger *slog.Logger
}

// Base implements vfs.Source's entry enumeration, read dispatch, and
// updateOptions semantics against a generic frame/audio source. Variant
// packages supply the decoder-specific FrameFetcher/AudioFetcher and
// embed *Base.
type Base struct {
	sourceID  string
	container camera.ContainerMetadata

	fetchFrame FrameFetcher
	audio      AudioFetcher

	cache          *artifactcache.Cache
	ioPool         *Pool
	processingPool *Pool

	desktopName    string
	desktopContent []byte

	logger *slog.Logger

	mu         sync.RWMutex
	timestamps []int64
	tsToIndex  map[int64]int
	calib      calibration.Data
	cfg        renderconfig.Config
	timing     frametiming.Timing
	entries    []vfs.Entry
	wav        []byte
}

var _ vfs.Source = (*Base)(nil)

// New builds and initializes a Base, synthesizing a sample frame to
// obtain the declared DNG size and rendering the audio track (if any).
// An unsupported sensor arrangement or a frame-timing failure fails init
// for that source, per spec §7.
func New(ctx context.Context, p InitParams) (*Base, error) {
	if p.Logger == nil {
		p.Logger = slog.Default()
	}
	if len(p.Timestamps) == 0 {
		return nil, services.Wrap(services.ErrUnsupportedSensor, "vfs", "init", "no source timestamps", nil)
	}

	b := &Base{
		sourceID:       p.SourceID,
		container:      p.Container,
		fetchFrame:     p.FetchFrame,
		audio:          p.Audio,
		cache:          p.Cache,
		ioPool:         p.IOPool,
		processingPool: p.ProcessingPool,
		desktopName:    p.DesktopSidecarName,
		desktopContent: p.DesktopSidecarContent,
		logger:         p.Logger,
		timestamps:     p.Timestamps,
		calib:          p.Calibration,
		cfg:            p.Config,
	}
	b.tsToIndex = indexTimestamps(p.Timestamps)

	if err := b.reinit(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

func indexTimestamps(timestamps []int64) map[int64]int {
	m := make(map[int64]int, len(timestamps))
	for i, t := range timestamps {
		if _, exists := m[t]; !exists {
			m[t] = i
		}
	}
	return m
}

// reinit recomputes the frame timeline and the rendered audio buffer,
// then rebuilds the entry list. A DNG-sequence source (frame0.RawDNG
// set) is already a finished DNG per frame, so each entry's declared
// size is its own source file's exact byte count rather than one
// uniform synthesized size; every other variant still synthesizes a
// sample frame at index 0 to learn the one size every entry shares.
// Caller holds no lock; reinit takes its own.
func (b *Base) reinit(ctx context.Context) error {
	timing, err := frametiming.Build(b.timestamps, b.cfg.Has(renderconfig.FramerateConversion), b.cfg.CFRTarget, b.sourceID)
	if err != nil {
		return services.Wrap(services.ErrUnsupportedSensor, "vfs", "init", "frame timeline", err)
	}

	decodeIndex := b.tsToIndex[timing.Entries[0].SourceTimestamp]
	frame0, err := b.fetchFrame(ctx, decodeIndex)
	if err != nil {
		return services.Wrap(services.ErrUnsupportedSensor, "vfs", "init", "decode sample frame", err)
	}

	var size func(i int) int64
	if frame0.RawDNG != nil {
		sizes := make([]int64, len(timing.Entries))
		sizes[0] = int64(len(frame0.RawDNG))
		for i := 1; i < len(timing.Entries); i++ {
			di := b.tsToIndex[timing.Entries[i].SourceTimestamp]
			f, ferr := b.fetchFrame(ctx, di)
			if ferr != nil {
				return services.Wrap(services.ErrUnsupportedSensor, "vfs", "init", "decode frame size", ferr)
			}
			sizes[i] = int64(len(f.RawDNG))
		}
		size = func(i int) int64 { return sizes[i] }
	} else {
		sample, err := synth.Synthesize(frame0.Buf, frame0.Meta, b.container, b.calib, 0, b.cfg, timing.FPS(), timing.TotalOutputFrames(), frame0.GainMapOpcodes)
		if err != nil {
			return services.Wrap(services.ErrUnsupportedSensor, "vfs", "init", "sample synthesis", err)
		}
		declaredSize := int64(len(sample.Bytes))
		size = func(i int) int64 { return declaredSize }
	}

	wav := b.renderAudio(ctx, timing)

	entries := b.buildEntries(timing, size, wav)

	b.mu.Lock()
	b.timing = timing
	b.wav = wav
	b.entries = entries
	b.mu.Unlock()
	return nil
}

func (b *Base) buildEntries(timing frametiming.Timing, size func(i int) int64, wav []byte) []vfs.Entry {
	entries := make([]vfs.Entry, 0, len(timing.Entries)+2)

	if b.desktopName != "" {
		entries = append(entries, vfs.Entry{
			Kind: vfs.File,
			Name: b.desktopName,
			Size: int64(len(b.desktopContent)),
		})
	}
	if len(wav) > 0 {
		entries = append(entries, vfs.Entry{
			Kind: vfs.File,
			Name: "audio.wav",
			Size: int64(len(wav)),
		})
	}
	for i, e := range timing.Entries {
		entries = append(entries, vfs.Entry{
			Kind:     vfs.File,
			Name:     e.Name,
			Size:     size(i),
			UserData: e.SourceTimestamp,
			Index:    e.Index,
		})
	}
	return entries
}

// renderAudio implements spec §4.7's audio-sync rule and WAV assembly.
// Returns nil when there is no audio track, decode fails, or sync is
// dropped for excess drift.
func (b *Base) renderAudio(ctx context.Context, timing frametiming.Timing) []byte {
	if b.audio == nil {
		return nil
	}
	chunks, sampleRate, channels, err := b.audio(ctx)
	if err != nil {
		b.logger.Warn("audio decode failed, omitting audio track", slog.Any("error", err))
		return nil
	}
	if len(chunks) == 0 {
		return nil
	}

	result := audiowav.Sync(chunks, sampleRate, channels, b.timestamps[0], b.logger)
	if !result.Synced {
		return nil
	}

	num, den := audiowav.ToFraction(timing.FPS())
	var buf bytes.Buffer
	if err := audiowav.Write(&buf, result.Samples, sampleRate, channels, num, den); err != nil {
		b.logger.Warn("wav render failed, omitting audio track", slog.Any("error", err))
		return nil
	}
	return buf.Bytes()
}

// List implements vfs.Source.
func (b *Base) List(filter func(vfs.Entry) bool) []vfs.Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]vfs.Entry, 0, len(b.entries))
	for _, e := range b.entries {
		if filter == nil || filter(e) {
			out = append(out, e)
		}
	}
	return out
}

// Find implements vfs.Source.
func (b *Base) Find(name string) (vfs.Entry, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, e := range b.entries {
		if e.Name == name {
			return e, true
		}
	}
	return vfs.Entry{}, false
}

// FileInfo implements vfs.Source.
func (b *Base) FileInfo(entry vfs.Entry) (vfs.Info, error) {
	if _, ok := b.Find(entry.Name); !ok {
		return vfs.Info{}, fmt.Errorf("vfs: unknown entry %q", entry.Name)
	}
	return vfs.Info{Size: entry.Size, IsDir: entry.Kind == vfs.Directory}, nil
}

// UpdateOptions implements vfs.Source's synchronous re-init: acquire the
// VFS lock, clear the cache so stale artifacts can't leak under the new
// config, and rebuild the entry list before returning. It never returns
// an error to the caller; an unrecoverable re-init empties the entry
// list and logs instead, per spec §7.
func (b *Base) UpdateOptions(ctx context.Context, cfg renderconfig.Config) error {
	b.mu.Lock()
	b.cfg = cfg
	b.mu.Unlock()

	b.cache.Clear()

	if err := b.reinit(ctx); err != nil {
		b.logger.Error("updateOptions re-init failed, mount now empty", slog.Any("error", err))
		b.mu.Lock()
		b.entries = nil
		b.mu.Unlock()
	}
	return nil
}

// Read implements vfs.Source's dispatch-by-suffix rule: the desktop
// sidecar and audio.wav serve from in-memory buffers; .dng entries enter
// the cache path via the IO pool then the processing pool.
func (b *Base) Read(ctx context.Context, entry vfs.Entry, offset, length int64, dst []byte, cb vfs.AsyncCallback, async bool) (int, error) {
	switch entry.Name {
	case b.desktopName:
		n := copyWindow(b.desktopContent, offset, length, dst)
		if cb != nil {
			cb(n, nil)
		}
		return n, nil
	case "audio.wav":
		b.mu.RLock()
		wav := b.wav
		b.mu.RUnlock()
		n := copyWindow(wav, offset, length, dst)
		if cb != nil {
			cb(n, nil)
		}
		return n, nil
	default:
		return b.readDNG(ctx, entry, offset, length, dst, cb, async)
	}
}

func (b *Base) readDNG(ctx context.Context, entry vfs.Entry, offset, length int64, dst []byte, cb vfs.AsyncCallback, async bool) (int, error) {
	b.mu.RLock()
	cfg := b.cfg
	fps := b.timing.FPS()
	total := b.timing.TotalOutputFrames()
	b.mu.RUnlock()

	key := artifactcache.Key{SourceID: b.sourceID, Index: entry.Index, ConfigFingerprint: fingerprintConfig(cfg)}

	run := func() (int, error) {
		artifact, err := b.cache.GetOrBuild(ctx, key, func(ctx context.Context) (synth.Artifact, error) {
			return b.buildArtifact(ctx, entry, cfg, fps, total)
		})
		if err != nil {
			wrapped := services.Wrap(services.ErrSourceDecode, "vfs", "readFile", entry.Name, err)
			if cb != nil {
				cb(0, wrapped)
			}
			return 0, wrapped
		}
		n := copyWindow(artifact.Bytes, offset, length, dst)
		if cb != nil {
			cb(n, nil)
		}
		return n, nil
	}

	if !async {
		return run()
	}
	go run()
	return 0, nil
}

// buildArtifact implements spec §4.7 steps 1-2: submit a decode task to
// the IO pool, then chain a synthesis task onto the processing pool once
// the frame arrives. A DNG-sequence frame that carries RawDNG is served
// as-is (spec §8 scenario 5's bit-identical passthrough) instead of
// re-encoding through synth — the source file already is the artifact.
func (b *Base) buildArtifact(ctx context.Context, entry vfs.Entry, cfg renderconfig.Config, fps float64, total int64) (synth.Artifact, error) {
	type frameResult struct {
		frame decoder.Frame
		err   error
	}
	frameCh := make(chan frameResult, 1)
	decodeIndex := b.tsToIndex[entry.UserData]
	b.ioPool.Submit(func() {
		frame, err := b.fetchFrame(ctx, decodeIndex)
		frameCh <- frameResult{frame, err}
	})

	type buildResult struct {
		artifact synth.Artifact
		err      error
	}
	resultCh := make(chan buildResult, 1)
	go func() {
		select {
		case fr := <-frameCh:
			if fr.err != nil {
				resultCh <- buildResult{err: fr.err}
				return
			}
			if fr.frame.RawDNG != nil {
				resultCh <- buildResult{artifact: synth.Artifact{Bytes: fr.frame.RawDNG, Index: entry.Index}}
				return
			}
			b.processingPool.Submit(func() {
				artifact, err := synth.Synthesize(fr.frame.Buf, fr.frame.Meta, b.container, b.calib, entry.Index, cfg, fps, total, fr.frame.GainMapOpcodes)
				resultCh <- buildResult{artifact, err}
			})
		case <-ctx.Done():
			resultCh <- buildResult{err: ctx.Err()}
		}
	}()

	select {
	case res := <-resultCh:
		return res.artifact, res.err
	case <-ctx.Done():
		return synth.Artifact{}, ctx.Err()
	}
}

func copyWindow(src []byte, offset, length int64, dst []byte) int {
	if offset < 0 || offset >= int64(len(src)) || length <= 0 {
		return 0
	}
	end := offset + length
	if end > int64(len(src)) {
		end = int64(len(src))
	}
	return copy(dst, src[offset:end])
}

func fingerprintConfig(cfg renderconfig.Config) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d|%d|%s|%s|%s|%s|%s|%s|%s|%s",
		cfg.Opts, cfg.DraftScale, cfg.CFRTarget, cfg.CropTarget, cfg.CameraModel,
		cfg.Levels, cfg.LogTransform, cfg.ExposureCompensation, cfg.QuadBayerOption, cfg.CFAPhase)
	return h.Sum64()
}

package preprocess

import (
	"testing"

	"rawmount/internal/camera"
	"rawmount/internal/renderconfig"
)

func solidFrame(width, height int, value uint16) []uint16 {
	buf := make([]uint16, width*height)
	for i := range buf {
		buf[i] = value
	}
	return buf
}

func baseMeta(width, height int) camera.FrameMetadata {
	return camera.FrameMetadata{
		Width:       width,
		Height:      height,
		SensorWidth: width,
		SensorHeight: height,
		BlackLevel:  [4]float64{64, 64, 64, 64},
		WhiteLevel:  1023,
	}
}

func TestResolveScaleDisabledWithoutDraft(t *testing.T) {
	cfg := renderconfig.Default()
	if got := resolveScale(cfg); got != 1 {
		t.Fatalf("resolveScale = %d, want 1", got)
	}
}

func TestResolveScaleRoundsToEvenMinTwo(t *testing.T) {
	cfg := renderconfig.Default()
	cfg.Opts |= renderconfig.Draft
	cfg.DraftScale = 3
	if got := resolveScale(cfg); got != 4 {
		t.Fatalf("resolveScale = %d, want 4", got)
	}
	cfg.DraftScale = 0
	if got := resolveScale(cfg); got != 2 {
		t.Fatalf("resolveScale = %d, want 2", got)
	}
}

func TestParseCropTarget(t *testing.T) {
	cases := []struct {
		in      string
		w, h    int
		wantOK  bool
	}{
		{in: "1920x1080", w: 1920, h: 1080, wantOK: true},
		{in: " 640 x 480 ", w: 640, h: 480, wantOK: true},
		{in: "bogus", wantOK: false},
		{in: "", wantOK: false},
	}
	for _, tc := range cases {
		w, h, ok := parseCropTarget(tc.in)
		if ok != tc.wantOK {
			t.Fatalf("parseCropTarget(%q) ok = %v, want %v", tc.in, ok, tc.wantOK)
		}
		if ok && (w != tc.w || h != tc.h) {
			t.Fatalf("parseCropTarget(%q) = (%d,%d), want (%d,%d)", tc.in, w, h, tc.w, tc.h)
		}
	}
}

func TestResolveCropTargetFallsBackWhenOversized(t *testing.T) {
	cfg := renderconfig.Default()
	cfg.Opts |= renderconfig.Cropping
	cfg.CropTarget = "4000x4000"
	w, h := resolveCropTarget(1920, 1080, cfg)
	if w != 1920 || h != 1080 {
		t.Fatalf("expected fallback to source dims, got %dx%d", w, h)
	}
}

func TestSelectUseBitsMatrix(t *testing.T) {
	cfg := func(mutate func(*renderconfig.Config)) renderconfig.Config {
		c := renderconfig.Default()
		mutate(&c)
		return c
	}
	white := float64(1023) // bits(W) = 10

	cases := []struct {
		name      string
		shading   bool
		c         renderconfig.Config
		wantBits  int
	}{
		{
			name:    "shading normalize",
			shading: true,
			c: cfg(func(c *renderconfig.Config) {
				c.Opts |= renderconfig.NormalizeShadingMap
			}),
			wantBits: 14,
		},
		{
			name:    "shading debug",
			shading: true,
			c: cfg(func(c *renderconfig.Config) {
				c.Opts |= renderconfig.DebugShadingMap
			}),
			wantBits: 10,
		},
		{
			name:    "shading log reduce 4",
			shading: true,
			c: cfg(func(c *renderconfig.Config) {
				c.Opts |= renderconfig.LogTransform
				c.LogTransform = "Reduce by 4bit"
			}),
			wantBits: 6,
		},
		{
			name:    "shading keep input",
			shading: true,
			c: cfg(func(c *renderconfig.Config) {
				c.Opts |= renderconfig.LogTransform
				c.LogTransform = "Keep Input"
			}),
			wantBits: 12,
		},
		{
			name:    "shading no log",
			shading: true,
			c:       cfg(func(c *renderconfig.Config) {}),
			wantBits: 12,
		},
		{
			name:    "no shading log reduce 2",
			shading: false,
			c: cfg(func(c *renderconfig.Config) {
				c.Opts |= renderconfig.LogTransform
				c.LogTransform = "Reduce by 2bit"
			}),
			wantBits: 8,
		},
		{
			name:     "no shading no log",
			shading:  false,
			c:        cfg(func(c *renderconfig.Config) {}),
			wantBits: 10,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := selectUseBits(tc.shading, tc.c, white)
			if got != tc.wantBits {
				t.Fatalf("selectUseBits() = %d, want %d", got, tc.wantBits)
			}
		})
	}
}

func TestProcessLinearPassthroughPreservesDimensions(t *testing.T) {
	width, height := 8, 8
	src := solidFrame(width, height, 500)
	meta := baseMeta(width, height)
	cfg := renderconfig.Default()

	result, err := Process(src, meta, cfg)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Width != width || result.Height != height {
		t.Fatalf("dimensions = %dx%d, want %dx%d", result.Width, result.Height, width, height)
	}
	if len(result.Buf) != width*height {
		t.Fatalf("buffer length = %d, want %d", len(result.Buf), width*height)
	}
}

func TestProcessDraftHalvesDimensions(t *testing.T) {
	width, height := 16, 16
	src := solidFrame(width, height, 500)
	meta := baseMeta(width, height)
	cfg := renderconfig.Default()
	cfg.Opts |= renderconfig.Draft
	cfg.DraftScale = 2

	result, err := Process(src, meta, cfg)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Width != width/2 || result.Height != height/2 {
		t.Fatalf("dimensions = %dx%d, want %dx%d", result.Width, result.Height, width/2, height/2)
	}
}

func TestProcessLogModeMapsToFullRange(t *testing.T) {
	width, height := 8, 8
	src := solidFrame(width, height, 1023) // saturate: s == white
	meta := baseMeta(width, height)
	cfg := renderconfig.Default()
	cfg.Opts |= renderconfig.LogTransform
	cfg.LogTransform = "Keep Input"

	result, err := Process(src, meta, cfg)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	for _, v := range result.Buf {
		if float64(v) < result.DestWhite-1 {
			t.Fatalf("expected saturated log value near destWhite=%v, got %d", result.DestWhite, v)
		}
	}
}

func TestProcessRejectsShortBuffer(t *testing.T) {
	meta := baseMeta(8, 8)
	cfg := renderconfig.Default()
	if _, err := Process([]uint16{1, 2, 3}, meta, cfg); err == nil {
		t.Fatal("expected error for undersized source buffer")
	}
}

func TestDitherValueIsDeterministic(t *testing.T) {
	a := ditherValue(10, 20, 1)
	b := ditherValue(10, 20, 1)
	if a != b {
		t.Fatalf("ditherValue not deterministic: %v != %v", a, b)
	}
	if a < -0.5 || a >= 0.5 {
		t.Fatalf("ditherValue out of range: %v", a)
	}
}

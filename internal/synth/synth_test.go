package synth

import (
	"testing"

	"rawmount/internal/calibration"
	"rawmount/internal/camera"
	"rawmount/internal/renderconfig"
)

func solidBayer(width, height int, value uint16) []uint16 {
	buf := make([]uint16, width*height)
	for i := range buf {
		buf[i] = value
	}
	return buf
}

func baseFrame(width, height int) camera.FrameMetadata {
	return camera.FrameMetadata{
		Width:             width,
		Height:            height,
		SensorWidth:       width,
		SensorHeight:      height,
		BlackLevel:        [4]float64{64, 64, 64, 64},
		WhiteLevel:        1023,
		SensorArrangement: camera.ArrangementRGGB,
		ISO:               200,
		ExposureTimeNs:    1_000_000,
	}
}

func TestSynthesizeProducesNonEmptyArtifact(t *testing.T) {
	width, height := 16, 16
	src := solidBayer(width, height, 500)
	frame := baseFrame(width, height)
	container := camera.ContainerMetadata{Make: "RawMount", Model: "TestCam"}
	cfg := renderconfig.Default()

	art, err := Synthesize(src, frame, container, calibration.Data{}, 0, cfg, 24, 10, nil)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if len(art.Bytes) == 0 {
		t.Fatal("expected non-empty artifact bytes")
	}
	if art.Index != 0 {
		t.Fatalf("Index = %d, want 0", art.Index)
	}
}

func TestSynthesizeEmitsRGBWhenArrangementUnknownAndNoRemosaic(t *testing.T) {
	width, height := 16, 16
	n := width * height
	src := make([]uint16, 3*n)
	for i := 0; i < n; i++ {
		src[i] = 100     // R plane
		src[n+i] = 200   // G plane
		src[2*n+i] = 300 // B plane
	}
	frame := baseFrame(width, height)
	frame.SensorArrangement = camera.ArrangementUnknown
	frame.WhiteLevel = 1023
	container := camera.ContainerMetadata{}
	cfg := renderconfig.Default()

	art, err := Synthesize(src, frame, container, calibration.Data{}, 0, cfg, 24, 10, nil)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if len(art.Bytes) == 0 {
		t.Fatal("expected non-empty artifact bytes")
	}
}

func TestClassifySourceReportsRGBWhenArrangementUnknownAndNoRemosaic(t *testing.T) {
	frame := baseFrame(8, 8)
	frame.SensorArrangement = camera.ArrangementUnknown
	cfg := renderconfig.Default()

	_, _, remosaic, rgbOutput, err := classifySource(frame, calibration.Data{}, cfg)
	if err != nil || remosaic || !rgbOutput {
		t.Fatalf("got (remosaic=%v,rgb=%v,err=%v), want (false,true,nil)", remosaic, rgbOutput, err)
	}
}

func TestClassifySourceFailsWhenRemosaicRequestedWithoutOverride(t *testing.T) {
	frame := baseFrame(8, 8)
	frame.SensorArrangement = camera.ArrangementUnknown
	cfg := renderconfig.Default()
	cfg.Opts |= renderconfig.Remosaic

	if _, _, _, _, err := classifySource(frame, calibration.Data{}, cfg); err == nil {
		t.Fatal("expected error when remosaic is requested without a CFA override")
	}
}

func TestSynthesizeRemosaicsRGBWhenArrangementUnknown(t *testing.T) {
	width, height := 16, 16
	n := width * height
	src := make([]uint16, 3*n)
	for i := 0; i < n; i++ {
		src[i] = 100       // R plane
		src[n+i] = 200     // G plane
		src[2*n+i] = 300   // B plane
	}
	frame := baseFrame(width, height)
	frame.SensorArrangement = camera.ArrangementUnknown
	frame.WhiteLevel = 1023
	container := camera.ContainerMetadata{}
	cfg := renderconfig.Default()
	cfg.Opts |= renderconfig.Remosaic
	cfg.CFAPhase = renderconfig.PhaseRGGB

	art, err := Synthesize(src, frame, container, calibration.Data{}, 0, cfg, 24, 10, nil)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if len(art.Bytes) == 0 {
		t.Fatal("expected non-empty artifact bytes")
	}
}

func TestResolveCFACalibrationOverridesUICFAOverridesDecoder(t *testing.T) {
	frame := baseFrame(8, 8)
	frame.SensorArrangement = camera.ArrangementGBRG

	cfg := renderconfig.Default()
	cfg.CFAPhase = renderconfig.PhaseBGGR

	arrangement, _, remosaic, _, err := classifySource(frame, calibration.Data{}, cfg)
	if err != nil || remosaic || arrangement != camera.ArrangementBGGR {
		t.Fatalf("UI override: got (%v,%v,%v), want bggr/false", arrangement, remosaic, err)
	}

	calib := calibration.Data{HasCFAPhase: true, CFAPhase: "grbg"}
	arrangement, _, remosaic, _, err = classifySource(frame, calib, cfg)
	if err != nil || remosaic || arrangement != camera.ArrangementGRBG {
		t.Fatalf("calibration override: got (%v,%v,%v), want grbg/false", arrangement, remosaic, err)
	}
}

func TestRoundUpToSupportedDepth(t *testing.T) {
	cases := []struct{ in, want int }{
		{1, 2}, {2, 2}, {3, 4}, {9, 10}, {11, 12}, {13, 14}, {15, 16}, {16, 16},
	}
	for _, tc := range cases {
		if got := roundUpToSupportedDepth(tc.in); got != tc.want {
			t.Errorf("roundUpToSupportedDepth(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestBuildLinearizationTableForcesEndpointIdentity(t *testing.T) {
	table := buildLinearizationTable(255)
	if len(table) != 256 {
		t.Fatalf("len = %d, want 256", len(table))
	}
	if table[0] != 0 {
		t.Fatalf("table[0] = %d, want 0", table[0])
	}
	if table[255] != 65535 {
		t.Fatalf("table[255] = %d, want 65535", table[255])
	}
	for i := 1; i < len(table)-1; i++ {
		if table[i] < table[i-1] {
			t.Fatalf("table not monotonic at %d: %d < %d", i, table[i], table[i-1])
		}
	}
}

func TestNormalizedExposureEVZeroOnInvalidInputs(t *testing.T) {
	if got := normalizedExposureEV(0, 200, 1_000_000); got != 0 {
		t.Fatalf("got %v, want 0 for zero baseline", got)
	}
	if got := normalizedExposureEV(1, 0, 1_000_000); got != 0 {
		t.Fatalf("got %v, want 0 for zero iso", got)
	}
}

func TestComposeOrientationMirrorsFlip(t *testing.T) {
	cases := []struct{ base, want uint16 }{{1, 2}, {2, 1}, {3, 4}, {6, 7}}
	for _, tc := range cases {
		if got := composeOrientation(tc.base, true); got != tc.want {
			t.Errorf("composeOrientation(%d,true) = %d, want %d", tc.base, got, tc.want)
		}
	}
	if got := composeOrientation(1, false); got != 1 {
		t.Fatalf("composeOrientation(1,false) = %d, want 1", got)
	}
}

func TestToFractionPrefersNTSCWhenClose(t *testing.T) {
	r := toFraction(23.976)
	if r.Den != 1001 {
		t.Fatalf("Den = %d, want 1001 for NTSC-ish rate", r.Den)
	}
}

func TestEncodeTimecodeZeroAtFirstFrame(t *testing.T) {
	tc := encodeTimecode(0, 24)
	if tc[0] != 0 || tc[1] != 0 || tc[2] != 0 || tc[3] != 0 {
		t.Fatalf("encodeTimecode(0,24) = %v, want all zero", tc)
	}
}

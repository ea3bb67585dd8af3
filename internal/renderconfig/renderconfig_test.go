package renderconfig_test

import (
	"testing"

	"rawmount/internal/renderconfig"
)

func TestDefaultFallsBackToDocumentedDefaults(t *testing.T) {
	cfg := renderconfig.Default()
	if cfg.NormalizedLevels() != "Dynamic" {
		t.Fatalf("expected Dynamic levels, got %q", cfg.NormalizedLevels())
	}
	if cfg.Has(renderconfig.Cropping) {
		t.Fatal("expected cropping off by default")
	}
}

func TestHasRequiresAllBits(t *testing.T) {
	cfg := renderconfig.Config{Opts: renderconfig.Draft | renderconfig.Cropping}
	if !cfg.Has(renderconfig.Draft) {
		t.Fatal("expected Draft bit set")
	}
	if !cfg.Has(renderconfig.Draft | renderconfig.Cropping) {
		t.Fatal("expected both bits set")
	}
	if cfg.Has(renderconfig.Remosaic) {
		t.Fatal("expected Remosaic unset")
	}
}

func TestLogReduceBitsParsesSupportedWidths(t *testing.T) {
	tests := []struct {
		in     string
		wantN  int
		wantOK bool
	}{
		{"Reduce by 2bit", 2, true},
		{"Reduce by 4bit", 4, true},
		{"Reduce by 6bit", 6, true},
		{"Reduce by 8bit", 8, true},
		{"Reduce by 10bit", 0, false},
		{"Keep Input", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		cfg := renderconfig.Config{LogTransform: tt.in}
		n, ok := cfg.LogReduceBits()
		if ok != tt.wantOK || n != tt.wantN {
			t.Errorf("LogReduceBits(%q) = (%d, %v), want (%d, %v)", tt.in, n, ok, tt.wantN, tt.wantOK)
		}
	}
}

func TestKeepInputAndLogActive(t *testing.T) {
	cfg := renderconfig.Config{Opts: renderconfig.LogTransform, LogTransform: "Keep Input"}
	if !cfg.KeepInput() {
		t.Fatal("expected KeepInput true")
	}
	if !cfg.LogActive() {
		t.Fatal("expected LogActive true when bit set and string non-empty")
	}

	unset := renderconfig.Config{LogTransform: "Keep Input"}
	if unset.LogActive() {
		t.Fatal("expected LogActive false when option bit is not set")
	}
}

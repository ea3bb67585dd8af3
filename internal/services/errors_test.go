package services_test

import (
	"errors"
	"strings"
	"testing"

	"rawmount/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrSourceDecode, "vfs/mcraw", "decodeFrame", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrSourceDecode) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"vfs/mcraw", "decodeFrame", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestIsRecoverableClassification(t *testing.T) {
	configErr := services.Wrap(services.ErrConfiguration, "preprocess", "parseCrop", "invalid crop string", nil)
	if !services.IsRecoverable(configErr) {
		t.Fatalf("expected configuration error to be recoverable")
	}

	decodeErr := services.Wrap(services.ErrSourceDecode, "vfs/mcraw", "decodeFrame", "decode failed", errors.New("io"))
	if services.IsRecoverable(decodeErr) {
		t.Fatalf("expected decode error to be non-recoverable")
	}

	if services.IsRecoverable(nil) {
		t.Fatal("expected nil error to be non-recoverable")
	}
}

func TestWrapDefaultsNilMarker(t *testing.T) {
	err := services.Wrap(nil, "synth", "buildArtifact", "no marker given", nil)
	if !errors.Is(err, services.ErrSourceDecode) {
		t.Fatalf("expected default marker ErrSourceDecode, got %v", err)
	}
}

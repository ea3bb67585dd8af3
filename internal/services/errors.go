package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers for spec §7's error taxonomy. Wrap tags a failure with
// exactly one of these so callers classify it with errors.Is instead of
// matching message text.
var (
	// ErrConfiguration marks a bad crop/level/CFR/calibration string: the
	// core logs a warning and falls back to the documented default.
	ErrConfiguration = errors.New("configuration error")
	// ErrSourceDecode marks a source decode failure: only the current read
	// fails, the cache key is marked failed, the mount stays up.
	ErrSourceDecode = errors.New("source decode error")
	// ErrUnsupportedSensor marks an unrecognized sensor arrangement: init
	// fails for that source and the mount is rejected.
	ErrUnsupportedSensor = errors.New("unsupported sensor arrangement")
	// ErrInvariant marks an internal precondition violation (e.g. a
	// bit-packer width that is not a multiple of its block size) that
	// should never be observed given correct upstream alignment.
	ErrInvariant = errors.New("internal invariant violation")
	// ErrHostIO marks an OS error surfaced while completing a read; the
	// artifact remains cached so a retry needs no rebuild.
	ErrHostIO = errors.New("host i/o error")
)

// Wrap builds an error message that includes component/operation context
// while tagging it with marker for later classification via errors.Is. The
// marker should be one of the sentinels above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrSourceDecode
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsRecoverable reports whether err represents a configuration mistake the
// core can silently fall back from, as opposed to one that should fail a
// read or reject a mount.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "core failure"
	}
	return strings.Join(parts, ": ")
}

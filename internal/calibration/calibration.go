// Package calibration loads the optional per-source calibration sidecar
// (spec §4.9): a JSON file next to the source with the same filename stem,
// overriding decoder-supplied color matrices, white-balance neutral, and
// CFA phase. Parsing is tolerant of numeric arrays or whitespace-separated
// strings, and ignores any key prefixed with "_". Parse failures are
// logged at warn and treated as if the sidecar were absent, per spec §7's
// configuration-error policy.
package calibration

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Data is the optional per-source calibration override. Field-level
// presence flags mean only fields actually present in the sidecar
// override the decoder-provided defaults.
type Data struct {
	HasColorMatrix1 bool
	ColorMatrix1    [9]float64
	HasColorMatrix2 bool
	ColorMatrix2    [9]float64

	HasForwardMatrix1 bool
	ForwardMatrix1    [9]float64
	HasForwardMatrix2 bool
	ForwardMatrix2    [9]float64

	HasAsShotNeutral bool
	AsShotNeutral    [3]float64

	// HasCFAPhase and CFAPhase override the decoder's sensor arrangement.
	// CFAPhase is one of "bggr", "rggb", "grbg", "gbrg".
	HasCFAPhase bool
	CFAPhase    string
}

// SidecarPath returns the calibration JSON path for a source path: same
// directory and filename stem, ".json" extension.
func SidecarPath(sourcePath string) string {
	ext := filepath.Ext(sourcePath)
	return strings.TrimSuffix(sourcePath, ext) + ".json"
}

// Load reads and parses the calibration sidecar for sourcePath. A missing
// sidecar is not an error: it returns a zero-value Data. logger may be nil.
func Load(sourcePath string, logger *slog.Logger) (Data, error) {
	if logger == nil {
		logger = slog.Default()
	}
	path := SidecarPath(sourcePath)

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Data{}, nil
		}
		logger.Warn("calibration sidecar read failed, ignoring", slog.String("path", path), slog.Any("error", err))
		return Data{}, nil
	}

	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		logger.Warn("calibration sidecar is not valid JSON, ignoring", slog.String("path", path), slog.Any("error", err))
		return Data{}, nil
	}

	var data Data
	for key, value := range fields {
		if strings.HasPrefix(key, "_") {
			continue
		}
		applyField(&data, strings.ToLower(strings.TrimSpace(key)), value, logger, path)
	}
	return data, nil
}

func applyField(data *Data, key string, value json.RawMessage, logger *slog.Logger, path string) {
	switch key {
	case "colormatrix1":
		if v, ok := parseFloats(value, 9); ok {
			data.ColorMatrix1 = to9(v)
			data.HasColorMatrix1 = true
		} else {
			logger.Warn("calibration colorMatrix1 malformed, ignoring field", slog.String("path", path))
		}
	case "colormatrix2":
		if v, ok := parseFloats(value, 9); ok {
			data.ColorMatrix2 = to9(v)
			data.HasColorMatrix2 = true
		} else {
			logger.Warn("calibration colorMatrix2 malformed, ignoring field", slog.String("path", path))
		}
	case "forwardmatrix1":
		if v, ok := parseFloats(value, 9); ok {
			data.ForwardMatrix1 = to9(v)
			data.HasForwardMatrix1 = true
		} else {
			logger.Warn("calibration forwardMatrix1 malformed, ignoring field", slog.String("path", path))
		}
	case "forwardmatrix2":
		if v, ok := parseFloats(value, 9); ok {
			data.ForwardMatrix2 = to9(v)
			data.HasForwardMatrix2 = true
		} else {
			logger.Warn("calibration forwardMatrix2 malformed, ignoring field", slog.String("path", path))
		}
	case "asshotneutral":
		if v, ok := parseFloats(value, 3); ok {
			data.AsShotNeutral = to3(v)
			data.HasAsShotNeutral = true
		} else {
			logger.Warn("calibration asShotNeutral malformed, ignoring field", slog.String("path", path))
		}
	case "cfaphase":
		var s string
		if err := json.Unmarshal(value, &s); err == nil {
			s = strings.ToLower(strings.TrimSpace(s))
			switch s {
			case "bggr", "rggb", "grbg", "gbrg":
				data.CFAPhase = s
				data.HasCFAPhase = true
			default:
				logger.Warn("calibration cfaPhase unrecognized, ignoring field", slog.String("path", path), slog.String("value", s))
			}
		}
	}
}

// parseFloats tolerates either a JSON array of n numbers or a single
// whitespace-separated string of n numbers.
func parseFloats(raw json.RawMessage, n int) ([]float64, bool) {
	var arr []float64
	if err := json.Unmarshal(raw, &arr); err == nil {
		if len(arr) == n {
			return arr, true
		}
		return nil, false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		fields := strings.Fields(s)
		if len(fields) != n {
			return nil, false
		}
		out := make([]float64, n)
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, false
			}
			out[i] = v
		}
		return out, true
	}
	return nil, false
}

func to9(v []float64) [9]float64 {
	var out [9]float64
	copy(out[:], v)
	return out
}

func to3(v []float64) [3]float64 {
	var out [3]float64
	copy(out[:], v)
	return out
}

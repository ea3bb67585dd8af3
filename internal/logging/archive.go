package logging

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Event is a single structured record appended to an EventArchive: a cache
// build outcome or a read failure, independent of the slog stream so API
// consumers can replay history without re-parsing log text.
type Event struct {
	Sequence  uint64    `json:"sequence"`
	Time      time.Time `json:"time"`
	MountID   string    `json:"mount_id,omitempty"`
	Source    string    `json:"source,omitempty"`
	Entry     string    `json:"entry,omitempty"`
	Type      string    `json:"type"`
	Message   string    `json:"message,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// EventArchive persists structured events so cache-build and read-failure
// history survives past the in-memory log stream.
type EventArchive struct {
	path string
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
	seq  uint64
}

// NewEventArchive creates (or truncates) an on-disk journal for events. The
// path argument may be empty to disable archiving.
func NewEventArchive(path string) (*EventArchive, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(trimmed), 0o755); err != nil {
		return nil, fmt.Errorf("ensure archive dir: %w", err)
	}
	file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", trimmed, err)
	}
	return &EventArchive{path: trimmed, file: file, enc: json.NewEncoder(file)}, nil
}

// Append writes evt to the archive, assigning the next sequence number.
// Failures are swallowed; archiving is best-effort and must never block a
// read.
func (a *EventArchive) Append(evt Event) {
	if a == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.seq++
	evt.Sequence = a.seq
	if evt.Time.IsZero() {
		evt.Time = time.Now()
	}
	_ = a.enc.Encode(evt)
}

// Close flushes and closes the underlying file.
func (a *EventArchive) Close() error {
	if a == nil || a.file == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.file.Close()
}

// ReadSince returns events with sequence greater than since, along with the
// highest sequence observed. limit bounds the number of events returned (0
// means unlimited).
func ReadSince(path string, since uint64, limit int) ([]Event, uint64, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, since, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, since, nil
		}
		return nil, since, fmt.Errorf("open archive %s: %w", path, err)
	}
	defer file.Close()

	capHint := limit
	if capHint <= 0 || capHint > 512 {
		capHint = 512
	}
	events := make([]Event, 0, capHint)
	highest := since
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		var evt Event
		if err := json.Unmarshal(scanner.Bytes(), &evt); err != nil {
			continue
		}
		if evt.Sequence > highest {
			highest = evt.Sequence
		}
		if evt.Sequence <= since {
			continue
		}
		events = append(events, evt)
		if limit > 0 && len(events) >= limit {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return events, highest, fmt.Errorf("scan archive %s: %w", path, err)
	}
	return events, highest, nil
}

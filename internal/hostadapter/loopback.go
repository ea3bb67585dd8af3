package hostadapter

import (
	"sync"

	"rawmount/internal/vfs"
)

// loopbackShim is a minimal in-process HostShim: it records which root a
// mount is bound to without talking to any OS virtualization API. No cgo
// ProjFS/FUSE binding ships in this module (the OS virtualization API is
// an out-of-scope external collaborator); this stands in for it so
// Adapter's List/Find/Read dispatch can be exercised end-to-end in tests.
type loopbackShim struct {
	mu    sync.Mutex
	bound map[string]string // mountID -> root
}

func newLoopbackShim() *loopbackShim {
	return &loopbackShim{bound: make(map[string]string)}
}

func (s *loopbackShim) Bind(mountID, root string, _ vfs.Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bound[mountID] = root
	return nil
}

func (s *loopbackShim) Unbind(mountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bound, mountID)
	return nil
}

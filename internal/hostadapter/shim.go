package hostadapter

import "rawmount/internal/vfs"

// HostShim is the narrow surface a real OS virtualization API binding
// (ProjFS on Windows, FUSE on macOS/Linux) must satisfy to plug into an
// Adapter. Bind registers source under root with the OS so host
// enumerate/read callbacks start arriving; Unbind tears the registration
// down. Adapter itself still owns translating those callbacks into
// List/Find/Read calls — HostShim only represents the registration step.
type HostShim interface {
	Bind(mountID, root string, source vfs.Source) error
	Unbind(mountID string) error
}

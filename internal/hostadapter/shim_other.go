//go:build !linux && !darwin && !windows

package hostadapter

// newPlatformShim falls back to the loopback shim on platforms without a
// named OS virtualization API binding.
func newPlatformShim() HostShim { return newLoopbackShim() }

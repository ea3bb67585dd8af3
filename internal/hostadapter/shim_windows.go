//go:build windows

package hostadapter

// newPlatformShim returns this platform's ProjFS-style binding. No real
// cgo ProjFS binding ships in this module, so the loopback shim stands
// in; swapping it for a real one only touches this file.
func newPlatformShim() HostShim { return newLoopbackShim() }

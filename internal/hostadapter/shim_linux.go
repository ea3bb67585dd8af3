//go:build linux

package hostadapter

// newPlatformShim returns this platform's FUSE-style binding. No real cgo
// libfuse binding ships in this module, so the loopback shim stands in;
// swapping it for a real one only touches this file.
func newPlatformShim() HostShim { return newLoopbackShim() }

//go:build darwin

package hostadapter

// newPlatformShim returns this platform's FUSE-style binding (e.g.
// macFUSE). No real cgo binding ships in this module, so the loopback
// shim stands in; swapping it for a real one only touches this file.
func newPlatformShim() HostShim { return newLoopbackShim() }

// Package vfs defines the per-source virtual filesystem contract (spec
// §4.7/§3): the read-only entry set a mount exposes and the uniform
// Source interface each decoder variant implements, grounded on the
// teacher's stage.Handler's small-per-variant-contract shape.
package vfs

import (
	"context"

	"rawmount/internal/renderconfig"
)

// EntryKind distinguishes a virtual file from a virtual directory. Every
// mount in this package is a single flat directory of files.
type EntryKind int

const (
	File EntryKind = iota
	Directory
)

// Entry is one virtual file (spec §3's Entry): kind, name, a precomputed
// declared size, and an opaque user-data tag (the source timestamp that
// produced it, for DNG entries). Index is the output frame ordinal for
// DNG entries and is ignored for the sidecar/audio entries.
type Entry struct {
	Kind     EntryKind
	Name     string
	Size     int64
	UserData int64
	Index    int64
}

// Info is the subset of Entry a host stat() callback needs.
type Info struct {
	Size  int64
	IsDir bool
}

// AsyncCallback completes an asynchronous Read: bytesCopied and an error
// code (nil on success). Implementations must tolerate being invoked
// after the caller has stopped caring (e.g. after unmount).
type AsyncCallback func(bytesCopied int, err error)

// Source is the contract every decoder variant (mcraw, directlog,
// dngseq) implements over internal/vfs/shared.Base. Filter receives each
// candidate Entry and reports whether to include it.
type Source interface {
	List(filter func(Entry) bool) []Entry
	Find(name string) (Entry, bool)
	Read(ctx context.Context, entry Entry, offset, length int64, dst []byte, cb AsyncCallback, async bool) (int, error)
	FileInfo(entry Entry) (Info, error)
	UpdateOptions(ctx context.Context, cfg renderconfig.Config) error
}

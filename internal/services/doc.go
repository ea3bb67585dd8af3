// Package services defines the error taxonomy shared by the preprocessor,
// DNG synthesis, virtual filesystem, and host adapter packages.
//
// Key responsibilities:
//   - Sentinel error markers distinguishing configuration mistakes, source
//     decode failures, unsupported sensor arrangements, internal invariant
//     violations, and host I/O errors (spec §7).
//   - Wrap, which attaches component/operation context to an error while
//     tagging it with one of the sentinels so callers can classify a failure
//     with errors.Is without parsing message text.
//
// Use Wrap at every point an error crosses a package boundary into the read
// path so the virtual filesystem and the CLI can react consistently: log and
// fall back to a default for configuration errors, fail only the current
// read for decode errors, and reject mount init for unsupported sensors.
package services

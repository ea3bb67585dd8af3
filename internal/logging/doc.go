// Package logging builds the structured loggers shared by the CLI, daemon,
// and core packages.
//
// New constructs a *slog.Logger from Options; NewFromConfig derives the same
// logger from a loaded configuration. Output is either a human-readable
// console format or JSON, selected by Options.Format / config.Logging.Format.
// Context helpers attach mount/source/entry correlation fields so a single
// read can be traced across the IO pool, the processing pool, and the
// artifact cache.
package logging

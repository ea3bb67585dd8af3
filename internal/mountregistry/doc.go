// Package mountregistry persists the host adapter's mountId -> source
// mapping (spec §4.10's mount table) across daemon restarts, sqlite-backed
// in the teacher's internal/queue.Store style.
package mountregistry

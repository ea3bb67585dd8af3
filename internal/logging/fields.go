package logging

// Standardized attribute keys used across the console and JSON handlers and
// by callers annotating log records. Keeping these as constants avoids key
// drift between packages that emit correlated log lines for the same read.
const (
	FieldComponent  = "component"
	FieldMountID    = "mount_id"
	FieldSource     = "source"
	FieldEntry      = "entry"
	FieldStage      = "stage"
	FieldEventType  = "event_type"
	FieldErrorKind  = "error_kind"
	FieldErrorHint  = "error_hint"
	FieldAlert      = "alert"
	FieldCacheKey   = "cache_key"
	FieldBytes      = "bytes"
)

package mountregistry

import "time"

// Variant identifies which decoder backs a mounted source.
type Variant string

const (
	VariantMCRAW     Variant = "mcraw"
	VariantDirectLog Variant = "directlog"
	VariantDNGSeq    Variant = "dngseq"
)

// Mount is one persisted mount table row.
type Mount struct {
	ID             string
	SourcePath     string
	Variant        Variant
	MountRoot      string
	RenderConfigJS string // JSON snapshot of the RenderConfig active at mount time
	CreatedAt      time.Time
}

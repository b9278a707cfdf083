package criteria

import "sync/atomic"

const (
	DefaultFtsField = "tsv"
	DefaultPageSize = 20
	// Unset marks page and size values that were never given.
	Unset = -1
)

// Defaults are the process-wide fallbacks used when a Criteria leaves a setting out.
type Defaults struct {
	FtsField string
	Lang     string
	PageSize int
}

var defaults atomic.Pointer[Defaults]

func init() {
	defaults.Store(&Defaults{FtsField: DefaultFtsField, PageSize: DefaultPageSize})
}

// SetDefaults replaces the fallbacks. Empty or negative members keep the built-in values.
func SetDefaults(d Defaults) {
	if d.FtsField == "" {
		d.FtsField = DefaultFtsField
	}
	if d.PageSize < 0 {
		d.PageSize = DefaultPageSize
	}
	defaults.Store(&d)
}

func CurrentDefaults() Defaults {
	return *defaults.Load()
}

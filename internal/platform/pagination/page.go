// Package pagination provides offset/limit page normalization for list reads.
package pagination

// Page describes one requested slice of an ordered result set.
type Page struct {
	Offset int
	Limit  int
}

// Config configures limit normalization.
type Config struct {
	Default int
	Max     int
}

// Clamp applies defaults and bounds to a requested page. Negative offsets are
// treated as zero; non-positive limits fall back to the configured default.
func Clamp(page Page, cfg Config) Page {
	if page.Offset < 0 {
		page.Offset = 0
	}
	if page.Limit <= 0 {
		page.Limit = cfg.Default
	}
	if cfg.Max > 0 && page.Limit > cfg.Max {
		page.Limit = cfg.Max
	}
	if page.Limit <= 0 {
		page.Limit = 1
	}
	return page
}

// HasMore reports whether rows remain past the returned slice.
func HasMore(page Page, returned, total int) bool {
	return page.Offset+returned < total
}

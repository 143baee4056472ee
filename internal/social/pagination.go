package social

// PageConfig bounds feed page sizes.
type PageConfig struct {
	Default int
	Max     int
}

// ClampPageSize resolves a requested page size against the configured
// bounds. Zero or negative requests fall back to the default; requests
// above the maximum are clamped, never rejected.
func ClampPageSize(requested int, cfg PageConfig) int {
	if cfg.Default <= 0 {
		cfg.Default = 5
	}
	if cfg.Max <= 0 {
		cfg.Max = cfg.Default
	}
	if requested <= 0 {
		return cfg.Default
	}
	if requested > cfg.Max {
		return cfg.Max
	}
	return requested
}

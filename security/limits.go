package security

import "time"

// Limits bounds the resources spent on a single input document. Every source
// is read fully into memory before it is parsed.
type Limits struct {
	// Maximum size of a source file in bytes. Default: 512 MiB. 0 disables the check.
	MaxFileSize int64

	// Maximum time spent parsing one document. 0 disables the check.
	MaxParseTime time.Duration
}

// DefaultLimits returns a Limits struct with safe default values.
func DefaultLimits() Limits {
	return Limits{
		MaxFileSize: 512 * 1024 * 1024,
	}
}

package document

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"

	"github.com/wudi/pdftools/security"
)

// Validate reports why path is not a usable document, or nil if it is. It
// checks existence, the extension and that the file parses. Protected
// documents are valid even when their password is unknown; callers check
// encryption separately.
func Validate(path string) error {
	return ValidateWithLimits(path, security.DefaultLimits())
}

// ValidateWithLimits is Validate with explicit resource limits.
func ValidateWithLimits(path string, limits security.Limits) error {
	if _, err := check(path, limits); err != nil {
		return pathErr("validate", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return pathErr("validate", path, err)
	}
	_, err = parse(context.Background(), data, "", limits)
	if err != nil && !errors.Is(err, pdfcpu.ErrWrongPassword) {
		return pathErr("validate", path, fmt.Errorf("%w: %v", ErrCorrupt, err))
	}
	return nil
}

// IsValid reports whether Validate(path) succeeds.
func IsValid(path string) bool {
	return Validate(path) == nil
}

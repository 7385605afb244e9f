package document

import "errors"

var (
	// Validation failures.
	ErrNotFound          = errors.New("file not found")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrCorrupt           = errors.New("corrupted or unreadable document")
	ErrTooLarge          = errors.New("document exceeds size limit")

	// ErrEncrypted is returned by operations that need an unprotected source.
	ErrEncrypted = errors.New("document is encrypted")
	// ErrIncorrectPassword is returned when a supplied password does not open
	// a protected document.
	ErrIncorrectPassword = errors.New("incorrect password")
)

// PathError records the operation and file that caused a failure.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error { return e.Err }

func pathErr(op, path string, err error) error {
	return &PathError{Op: op, Path: path, Err: err}
}

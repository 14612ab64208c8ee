package mmapfile

import (
	"errors"
	"fmt"
)

// Set of errors returned by the package.
var (
	ErrConfig           = errors.New("mmapfile: invalid config")
	ErrCapacityExceeded = errors.New("mmapfile: capacity exceeded")
	ErrObjectTooLarge   = errors.New("mmapfile: object larger than max object size")
	ErrOutOfBounds      = errors.New("mmapfile: location out of bounds")
	ErrDeserialize      = errors.New("mmapfile: deserialize")
	ErrClosed           = errors.New("mmapfile: file is closed")
)

// IOError reports a filesystem failure while opening, extending, mapping or
// syncing the backing file.
type IOError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the error interface.
func (e *IOError) Error() string {
	return fmt.Sprintf("mmapfile: %s %s: %s", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying filesystem error.
func (e *IOError) Unwrap() error {
	return e.Err
}

package bundle

import (
	"errors"
	"fmt"
)

// Import error codes (E000-E099).
const (
	ErrBadMagic            = "E000" // stream does not start with the bundle magic
	ErrIncompatibleVersion = "E001" // unrecognized schema version tag
	ErrTruncated           = "E002" // stream ended inside a frame
	ErrMalformedRecord     = "E003" // frame is not valid JSON or fails the CUE schema
	ErrDuplicateLocalID    = "E004" // two item records share a local id
	ErrDanglingReference   = "E005" // record references an absent local id
	ErrBadTypeIndex        = "E006" // type-table index out of range or cyclic
	ErrUnsupportedTag      = "E007" // unknown node/pattern/type/marker tag
	ErrOversizedFrame      = "E008" // frame length exceeds the sanity limit
)

// ImportError is a structural malformation of the input bundle. Import
// errors are fatal: the pipeline aborts before the first phase runs.
type ImportError struct {
	Code    string
	Message string
	Record  int // 1-based frame ordinal, 0 when the header is at fault
}

// Error implements the error interface.
func (e *ImportError) Error() string {
	if e.Record > 0 {
		return fmt.Sprintf("[%s] record %d: %s", e.Code, e.Record, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// IsImportError reports whether err is (or wraps) an ImportError.
func IsImportError(err error) bool {
	var ie *ImportError
	return errors.As(err, &ie)
}

// importErrf builds an ImportError with a formatted message.
func importErrf(code string, record int, format string, args ...any) *ImportError {
	return &ImportError{Code: code, Message: fmt.Sprintf(format, args...), Record: record}
}

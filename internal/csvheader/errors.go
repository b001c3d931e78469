package csvheader

import (
	"errors"
	"fmt"
)

// ErrMalformedField is matched by every MalformedFieldError.
var ErrMalformedField = errors.New("malformed header field")

// MalformedFieldError reports an attribute that matches neither grammar.
type MalformedFieldError struct {
	Index     int
	Attribute string
}

func (e *MalformedFieldError) Error() string {
	return fmt.Sprintf("header is not well-formed, field %d '%s' cannot be parsed", e.Index, e.Attribute)
}

func (e *MalformedFieldError) Is(target error) bool {
	return target == ErrMalformedField
}

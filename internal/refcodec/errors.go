package refcodec

import (
	"errors"
	"fmt"
)

// ErrMissingKind is returned when a composite value embeds only a name
// fragment and no kind was supplied to reconstruct the identifier.
var ErrMissingKind = errors.New("refcodec: kind required to resolve a name fragment")

// NotFoundError reports that a composite value resolved to no record.
type NotFoundError struct {
	Value string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("refcodec: no record found for %q", e.Value)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// AmbiguousError reports that a label matched several records while the
// codec was configured to fail on ambiguity.
type AmbiguousError struct {
	Label string
	Refs  []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("refcodec: label %q matches %d records", e.Label, len(e.Refs))
}

// IsAmbiguous reports whether err is an AmbiguousError.
func IsAmbiguous(err error) bool {
	var ae *AmbiguousError
	return errors.As(err, &ae)
}

package bootspec

import (
	"errors"
	"fmt"
	"strings"
)

// Kind tells apart the ways loading a bootspec can fail.
type Kind int

const (
	// KindIO means the bootspec file could not be read.
	KindIO Kind = iota
	// KindFormat means the file was read but is not a valid boot specification v1 document.
	KindFormat
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindFormat:
		return "format"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

var (
	ErrIO     = errors.New("failed to read bootspec file")
	ErrFormat = errors.New("failed to parse bootspec")
)

// Error is returned by Load and Parse. It matches ErrIO or ErrFormat with
// errors.Is depending on its Kind.
type Error struct {
	Kind Kind
	// Path is the bootspec file that was attempted, empty for Parse.
	Path string
	// Diagnostics holds one line per schema violation for KindFormat.
	Diagnostics []string
	Err         error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Kind == KindIO {
		b.WriteString(ErrIO.Error())
	} else {
		b.WriteString(ErrFormat.Error())
	}
	if e.Path != "" {
		fmt.Fprintf(&b, " %s", e.Path)
	}
	if len(e.Diagnostics) > 0 {
		fmt.Fprintf(&b, ":\n  - %s", strings.Join(e.Diagnostics, "\n  - "))
	} else if e.Err != nil {
		fmt.Fprintf(&b, ": %s", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrIO:
		return e.Kind == KindIO
	case ErrFormat:
		return e.Kind == KindFormat
	}
	return false
}

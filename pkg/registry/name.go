package registry

import (
	"strings"

	"github.com/apimsync/apimsync/pkg/errors"
)

// Name is a resource name. Names are opaque strings that compare and hash
// case-insensitively; the original casing is preserved for display and for
// the wire.
//
// The zero value is invalid - use NewName.
type Name struct {
	value string
}

// NewName validates s and returns it as a Name. Empty or all-whitespace
// strings are rejected.
func NewName(s string) (Name, error) {
	if strings.TrimSpace(s) == "" {
		return Name{}, errors.New(errors.ErrCodeInvalidName, "resource name must not be empty")
	}
	return Name{value: s}, nil
}

// MustName is NewName for names known to be valid at compile time, such as
// the system-reserved names in the registry. It panics on invalid input.
func MustName(s string) Name {
	n, err := NewName(s)
	if err != nil {
		panic(err)
	}
	return n
}

// String returns the name with its original casing.
func (n Name) String() string { return n.value }

// IsZero reports whether the name is the invalid zero value.
func (n Name) IsZero() bool { return n.value == "" }

// Equal reports case-insensitive equality.
func (n Name) Equal(other Name) bool {
	return strings.EqualFold(n.value, other.value)
}

// Fold returns the case-folded form used as a map key.
func (n Name) Fold() string { return strings.ToLower(n.value) }

// MarshalText implements encoding.TextMarshaler.
func (n Name) MarshalText() ([]byte, error) { return []byte(n.value), nil }

// UnmarshalText implements encoding.TextUnmarshaler, applying the same
// validation as NewName.
func (n *Name) UnmarshalText(text []byte) error {
	parsed, err := NewName(string(text))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

package registry

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/apimsync/apimsync/pkg/errors"
)

// API names carry their revision as a ";rev=<n>" suffix. The suffix-free
// root name always denotes the revision that is current on the service;
// every other revision is addressed as "root;rev=<n>".

const revisionSeparator = ";rev="

// IsRootName reports whether name has no valid revision suffix, i.e.
// whether it addresses the current revision.
func IsRootName(name Name) bool {
	_, _, ok := ParseRevision(name)
	return !ok
}

// RootName strips the revision suffix if one is present.
func RootName(name Name) Name {
	if root, _, ok := ParseRevision(name); ok {
		return root
	}
	return name
}

// ParseRevision splits "root;rev=<n>" into its parts. ok is false when the
// name has no suffix or the suffix does not parse as a positive integer.
func ParseRevision(name Name) (root Name, revision int, ok bool) {
	s := name.String()
	idx := strings.LastIndex(strings.ToLower(s), revisionSeparator)
	if idx <= 0 {
		return Name{}, 0, false
	}
	n, err := strconv.Atoi(s[idx+len(revisionSeparator):])
	if err != nil || n < 1 {
		return Name{}, 0, false
	}
	root, err = NewName(s[:idx])
	if err != nil {
		return Name{}, 0, false
	}
	return root, n, true
}

// CombineRevision produces "root;rev=<revision>". The revision must be at
// least 1 and root must itself be a root name.
func CombineRevision(root Name, revision int) (Name, error) {
	if revision < 1 {
		return Name{}, errors.New(errors.ErrCodeInvalidRevision, "revision must be positive, got %d", revision)
	}
	if !IsRootName(root) {
		return Name{}, errors.New(errors.ErrCodeInvalidRevision, "name %q already carries a revision", root)
	}
	return NewName(fmt.Sprintf("%s%s%d", root, revisionSeparator, revision))
}

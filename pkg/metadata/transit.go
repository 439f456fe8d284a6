package metadata

import (
	"fmt"
	"strings"
)

// TransitStatus tracks who physically holds the piece, independent of the
// production column.
type TransitStatus string

const (
	TransitNone       TransitStatus = "none"
	TransitAscending  TransitStatus = "ascending"  // on its way to the office
	TransitDescending TransitStatus = "descending" // on its way to the workshop
)

// NewTransitStatus treats an empty value as none.
func NewTransitStatus(value string) (TransitStatus, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return TransitNone, nil
	}
	status := TransitStatus(normalized)
	switch status {
	case TransitNone, TransitAscending, TransitDescending:
		return status, nil
	default:
		return "", fmt.Errorf("invalid transit status: %s", value)
	}
}

// Apply returns the transit state after requesting next, and whether it changed.
// Requesting the current direction again is a no-op.
func (s TransitStatus) Apply(next TransitStatus) (TransitStatus, bool) {
	current := s.OrNone()
	next = next.OrNone()
	if current == next {
		return current, false
	}
	return next, true
}

func (s TransitStatus) OrNone() TransitStatus {
	if s == "" {
		return TransitNone
	}
	return s
}

func (s TransitStatus) String() string {
	return string(s)
}

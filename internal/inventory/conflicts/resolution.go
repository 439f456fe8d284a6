package conflicts

import (
	"strings"

	custom_error "semprejoias/pkg/errors"
)

type Resolution string

const (
	// ResolutionNone asks for a classification first; conflicts fail the call.
	ResolutionNone   Resolution = ""
	ResolutionForce  Resolution = "force"
	ResolutionSafe   Resolution = "safe"
	ResolutionCancel Resolution = "cancel"
)

func NewResolution(value string) (Resolution, error) {
	r := Resolution(strings.ToLower(strings.TrimSpace(value)))
	if !r.isValid() {
		return "", custom_error.NewValidationError("resolution", "must be one of force, safe, cancel")
	}
	return r, nil
}

func (r Resolution) isValid() bool {
	switch r {
	case ResolutionNone, ResolutionForce, ResolutionSafe, ResolutionCancel:
		return true
	default:
		return false
	}
}

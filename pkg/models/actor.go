package models

import (
	"strings"

	"semprejoias/pkg/roles"
)

// Actor is the operator identity attached to every mutation.
type Actor struct {
	ID   string     `json:"id"`
	Name string     `json:"name"`
	Role roles.Role `json:"role,omitempty"`
}

func (a Actor) IsZero() bool {
	return strings.TrimSpace(a.ID) == "" && strings.TrimSpace(a.Name) == ""
}

// Label is what ends up in removedBy/createdBy fields.
func (a Actor) Label() string {
	if a.Name != "" {
		return a.Name
	}
	return a.ID
}

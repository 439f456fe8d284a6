package roles

import (
	"fmt"
	"strings"
)

// Role is the permission level carried by an operator identity.
type Role string

const (
	Operator   Role = "operator"
	Supervisor Role = "supervisor"
	Admin      Role = "admin"
)

type HierarchyLevel int

const (
	OperatorLevel   HierarchyLevel = 1
	SupervisorLevel HierarchyLevel = 2
	AdminLevel      HierarchyLevel = 3
)

func NewRole(value string) (Role, error) {
	if strings.TrimSpace(value) == "" {
		return Operator, nil
	}
	r := Role(strings.ToLower(strings.TrimSpace(value)))
	if !r.IsValid() {
		return "", fmt.Errorf("invalid role: %s", value)
	}
	return r, nil
}

func (r Role) GetHierarchyLevel() HierarchyLevel {
	switch r {
	case Supervisor:
		return SupervisorLevel
	case Admin:
		return AdminLevel
	default:
		return OperatorLevel
	}
}

// HasPermission reports whether r is at least requiredRole.
func (r Role) HasPermission(requiredRole Role) bool {
	return r.GetHierarchyLevel() >= requiredRole.GetHierarchyLevel()
}

func (r Role) IsValid() bool {
	switch r {
	case Operator, Supervisor, Admin:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}

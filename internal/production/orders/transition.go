package orders

import (
	"semprejoias/pkg/metadata"
)

// TransitionPolicy decides whether an order may move between two statuses.
type TransitionPolicy interface {
	Allow(from, to metadata.OrderStatus) error
}

// PermissivePolicy allows any status to be reached from any other.
type PermissivePolicy struct{}

func (PermissivePolicy) Allow(_, _ metadata.OrderStatus) error {
	return nil
}

// TransitionPolicyFunc adapts a function to TransitionPolicy.
type TransitionPolicyFunc func(from, to metadata.OrderStatus) error

func (f TransitionPolicyFunc) Allow(from, to metadata.OrderStatus) error {
	return f(from, to)
}

package archive

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"semprejoias/internal/store"
	custom_error "semprejoias/pkg/errors"
)

type Direction string

const (
	DirectionFirst Direction = "first"
	DirectionNext  Direction = "next"
	DirectionPrev  Direction = "prev"
)

func NewDirection(value string) (Direction, error) {
	normalized := Direction(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case "":
		return DirectionFirst, nil
	case DirectionFirst, DirectionNext, DirectionPrev:
		return normalized, nil
	default:
		return "", custom_error.NewValidationError("direction", "must be one of first, next, prev")
	}
}

// pagerState is what the page token carries between requests. The store only
// reads forward, so going back pops the cursor the previous page started after.
type pagerState struct {
	Stack []*store.Cursor `json:"stack,omitempty"`
	Start *store.Cursor   `json:"start,omitempty"`
	Last  *store.Cursor   `json:"last,omitempty"`
}

func decodeToken(token string) (pagerState, error) {
	var state pagerState
	if token == "" {
		return state, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return state, custom_error.NewValidationError("token", "malformed page token")
	}
	if err := json.Unmarshal(raw, &state); err != nil {
		return state, custom_error.NewValidationError("token", "malformed page token")
	}
	return state, nil
}

func (s pagerState) encode() string {
	raw, _ := json.Marshal(s)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// move returns the state whose Start is the cursor to read the requested page after.
func (s pagerState) move(direction Direction) (pagerState, error) {
	switch direction {
	case DirectionNext:
		if s.Last == nil {
			return s, custom_error.NewValidationError("direction", "already on the last page")
		}
		return pagerState{Stack: append(append([]*store.Cursor{}, s.Stack...), s.Start), Start: s.Last}, nil
	case DirectionPrev:
		if len(s.Stack) == 0 {
			return s, custom_error.NewValidationError("direction", "already on the first page")
		}
		top := len(s.Stack) - 1
		return pagerState{Stack: append([]*store.Cursor{}, s.Stack[:top]...), Start: s.Stack[top]}, nil
	default:
		return pagerState{}, nil
	}
}

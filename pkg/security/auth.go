package security

import (
	"errors"
	"fmt"
	"time"

	"semprejoias/pkg/models"
	"semprejoias/pkg/roles"

	"github.com/golang-jwt/jwt/v5"
)

var ErrMissingActor = errors.New("actor identity missing")

// ActorClaims is the token payload identifying the operator behind a request.
type ActorClaims struct {
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// GenerateJWT signs an actor token valid for ttl.
func GenerateJWT(secret []byte, actor models.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := ActorClaims{
		Name: actor.Name,
		Role: actor.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseActorToken validates the token and returns the actor it names.
func ParseActorToken(secret []byte, tokenString string) (models.Actor, error) {
	claims := &ActorClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return models.Actor{}, fmt.Errorf("invalid token: %w", err)
	}

	role, err := roles.NewRole(claims.Role)
	if err != nil {
		return models.Actor{}, err
	}

	actor := models.Actor{ID: claims.Subject, Name: claims.Name, Role: role}
	if actor.IsZero() {
		return models.Actor{}, ErrMissingActor
	}
	return actor, nil
}

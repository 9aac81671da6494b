package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"mostrador/internal/domain"
	"mostrador/internal/errors"
)

type Claims struct {
	jwt.RegisteredClaims
	UserID uint        `json:"uid"`
	Name   string      `json:"name"`
	Role   domain.Role `json:"role"`
}

// TokenIssuer signs and verifies HS256 bearer tokens carrying the caller identity.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (i *TokenIssuer) Issue(identity domain.Identity) (string, time.Time, error) {
	issuedAt := i.now()
	expiresAt := issuedAt.Add(i.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: identity.UserID,
		Name:   identity.Name,
		Role:   identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ID:        uuid.New().String(),
		},
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}

	return signed, expiresAt, nil
}

func (i *TokenIssuer) Parse(tokenString string) (domain.Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return i.secret, nil
		})
	if err != nil || !token.Valid {
		return domain.Identity{}, errors.NewUnauthorizedError("invalid or expired token")
	}

	if !claims.Role.Valid() || claims.Name == "" {
		return domain.Identity{}, errors.NewUnauthorizedError("token does not carry a valid identity")
	}

	return domain.Identity{
		UserID: claims.UserID,
		Name:   claims.Name,
		Role:   claims.Role,
	}, nil
}

package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/example/ride-hail/internal/apperrors"
)

// Sessions issues and verifies stateless session tokens. Validity is fully
// determined by the token content and the signing key, so there is no
// server-side session table and no revocation.
type Sessions struct {
	secret []byte
	ttl    time.Duration
}

type Claims struct {
	Phone string `json:"phone,omitempty"`
	jwt.RegisteredClaims
}

func NewSessions(secret string, ttl time.Duration) *Sessions {
	return &Sessions{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token bound to identity with the configured expiry horizon.
func (s *Sessions) Issue(identity, phone string) (string, error) {
	now := time.Now()
	claims := Claims{
		Phone: phone,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Resolve returns the identity a token was issued to. Malformed, forged and
// expired tokens all come back as ErrUnauthenticated.
func (s *Sessions) Resolve(tokenStr string) (string, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperrors.ErrUnauthenticated
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", apperrors.ErrUnauthenticated
	}
	return claims.Subject, nil
}

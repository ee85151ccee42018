package auth

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/helpdeskhq/helpdesk-portal/internal"
)

// Claims is the identity token payload: subject id plus the profile slice
// route guards and the websocket hub need at session time.
type Claims struct {
	Role       string `json:"role"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Department string `json:"department"`
	Position   string `json:"position"`
	jwt.RegisteredClaims
}

// Principal is the authenticated identity. The type and its context
// helpers live in the internal root so handler packages can read the
// identity without depending on auth.
type Principal = internal.Principal

// TokenGenerator issues and validates identity tokens.
type TokenGenerator interface {
	Generate(p *Principal) (string, error)
	Validate(tokenString string) (*Claims, error)
}

// JWTTokenGenerator signs HS256 tokens with a fixed lifetime.
type JWTTokenGenerator struct {
	Secret   []byte
	TokenTTL time.Duration
}

func NewJWTTokenGenerator(secret string, ttl time.Duration) *JWTTokenGenerator {
	if ttl <= 0 {
		ttl = 4 * time.Hour
	}
	return &JWTTokenGenerator{
		Secret:   []byte(secret),
		TokenTTL: ttl,
	}
}

func (j *JWTTokenGenerator) Generate(p *Principal) (string, error) {
	expiresAt := time.Now().Add(j.TokenTTL)

	claims := &Claims{
		Role:       p.Role,
		FirstName:  p.FirstName,
		LastName:   p.LastName,
		Department: p.Department,
		Position:   p.Position,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(p.ID, 10),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.Secret)
}

func (j *JWTTokenGenerator) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return j.Secret, nil
	})
	if err != nil {
		if err == jwt.ErrTokenExpired {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

var (
	ErrInvalidCredentials = internal.NewUnauthorizedError("invalid personal id or password", internal.ErrCodeInvalidCredentials)
	ErrInvalidToken       = internal.NewUnauthorizedError("invalid token", internal.ErrCodeInvalidToken)
	ErrTokenExpired       = internal.NewUnauthorizedError("token has expired", internal.ErrCodeTokenExpired)
)

package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/returnmail/backend/internal/domain/returns"
)

// JWT errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingSubject   = errors.New("missing subject in claims")
)

// Claims are the claims carried by caller tokens
type Claims struct {
	jwt.RegisteredClaims
	// Source tags audit records written for the caller
	Source string `json:"source,omitempty"`
}

// BearerJWT checks an HS256 bearer token signed with a shared secret
type BearerJWT struct {
	secret []byte
	issuer string
	now    func() time.Time
}

var _ returns.Authenticator = (*BearerJWT)(nil)

// NewBearerJWT creates a bearer token authenticator
func NewBearerJWT(secret, issuer string) *BearerJWT {
	return &BearerJWT{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// Authenticate verifies the bearer token in creds.Authorization
func (b *BearerJWT) Authenticate(_ context.Context, creds returns.Credentials) error {
	raw, ok := bearerToken(creds.Authorization)
	if !ok {
		return unauthorized(ErrMissingCredentials)
	}
	if _, err := b.Validate(raw); err != nil {
		return unauthorized(err)
	}
	return nil
}

// Validate parses a token and returns its claims
func (b *BearerJWT) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return b.secret, nil
	},
		jwt.WithIssuer(b.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(b.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}
	return claims, nil
}

// Issue signs a token for subject valid for ttl
func (b *BearerJWT) Issue(subject, source string, ttl time.Duration) (string, time.Time, error) {
	now := b.now()
	expiresAt := now.Add(ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    b.issuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Source: source,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

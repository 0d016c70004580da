// Package auth verifies the credential callers present to the returns API.
package auth

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/returnmail/backend/internal/domain/returns"
	"github.com/returnmail/backend/internal/infrastructure/config"
	"golang.org/x/crypto/bcrypt"
)

// Common errors
var (
	ErrMissingCredentials = errors.New("missing credentials")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

func unauthorized(reason error) *returns.UnauthorizedError {
	return &returns.UnauthorizedError{Reason: reason.Error()}
}

// BasicCredential checks an HTTP Basic Authorization header against a
// configured username and password. Passwords starting with "$2" are
// treated as bcrypt hashes.
type BasicCredential struct {
	username []byte
	password []byte
	hashed   bool
}

var _ returns.Authenticator = (*BasicCredential)(nil)

// NewBasicCredential creates a Basic authenticator
func NewBasicCredential(username, password string) *BasicCredential {
	return &BasicCredential{
		username: []byte(username),
		password: []byte(password),
		hashed:   strings.HasPrefix(password, "$2"),
	}
}

// Authenticate verifies creds.Authorization
func (b *BasicCredential) Authenticate(_ context.Context, creds returns.Credentials) error {
	user, pass, ok := parseBasic(creds.Authorization)
	if !ok {
		return unauthorized(ErrMissingCredentials)
	}

	userOK := subtle.ConstantTimeCompare([]byte(user), b.username) == 1
	var passOK bool
	if b.hashed {
		passOK = bcrypt.CompareHashAndPassword(b.password, []byte(pass)) == nil
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(pass), b.password) == 1
	}
	if !userOK || !passOK {
		return unauthorized(ErrInvalidCredentials)
	}
	return nil
}

func parseBasic(header string) (user, pass string, ok bool) {
	const prefix = "Basic "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(header[len(prefix):]))
	if err != nil {
		return "", "", false
	}
	user, pass, ok = strings.Cut(string(decoded), ":")
	return user, pass, ok
}

// StaticAccessCode checks the access code carried in the request body
type StaticAccessCode struct {
	code []byte
}

var (
	_ returns.Authenticator  = (*StaticAccessCode)(nil)
	_ returns.BodyCredential = (*StaticAccessCode)(nil)
)

// NewStaticAccessCode creates an access code authenticator
func NewStaticAccessCode(code string) *StaticAccessCode {
	return &StaticAccessCode{code: []byte(code)}
}

// Authenticate verifies creds.AccessCode
func (s *StaticAccessCode) Authenticate(_ context.Context, creds returns.Credentials) error {
	if creds.AccessCode == "" {
		return unauthorized(ErrMissingCredentials)
	}
	if subtle.ConstantTimeCompare([]byte(creds.AccessCode), s.code) != 1 {
		return unauthorized(ErrInvalidCredentials)
	}
	return nil
}

// CredentialInBody implements returns.BodyCredential
func (s *StaticAccessCode) CredentialInBody() bool { return true }

// NewAuthenticator builds the authenticator selected by cfg.Mode
func NewAuthenticator(cfg config.InboundConfig) (returns.Authenticator, error) {
	switch cfg.Mode {
	case config.InboundModeBasic:
		return NewBasicCredential(cfg.Username, cfg.Password), nil
	case config.InboundModeAccessCode:
		return NewStaticAccessCode(cfg.AccessCode), nil
	case config.InboundModeJWT:
		return NewBearerJWT(cfg.JWTSecret, cfg.JWTIssuer), nil
	default:
		return nil, fmt.Errorf("unknown inbound auth mode %q", cfg.Mode)
	}
}

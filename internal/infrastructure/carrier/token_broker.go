package carrier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/returnmail/backend/internal/domain/returns"
	"github.com/returnmail/backend/internal/domain/shared"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// TokenBroker exchanges the stored refresh credential for access tokens.
// Tokens are cached until shortly before expiry, and concurrent refreshes
// collapse into one call to the token endpoint.
type TokenBroker struct {
	config     *TokenConfig
	httpClient *http.Client
	store      shared.TokenStore
	group      singleflight.Group
	now        func() time.Time
	logger     *zap.Logger
}

// NewTokenBroker creates a broker. A nil store disables caching.
func NewTokenBroker(config *TokenConfig, store shared.TokenStore, logger *zap.Logger) (*TokenBroker, error) {
	if config == nil {
		return nil, ErrConfigMissingClientID
	}
	if err := config.Validate(true); err != nil {
		return nil, err
	}
	return newTokenBroker(config, store, logger), nil
}

// NewProvisioningBroker creates a broker for the authorization-code exchange,
// which runs before a refresh token exists.
func NewProvisioningBroker(config *TokenConfig, logger *zap.Logger) (*TokenBroker, error) {
	if config == nil {
		return nil, ErrConfigMissingClientID
	}
	if err := config.Validate(false); err != nil {
		return nil, err
	}
	return newTokenBroker(config, nil, logger), nil
}

func newTokenBroker(config *TokenConfig, store shared.TokenStore, logger *zap.Logger) *TokenBroker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenBroker{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		store:      store,
		now:        time.Now,
		logger:     logger.Named("carrier.token"),
	}
}

func (b *TokenBroker) cacheKey() string {
	return b.config.ClientID
}

// AccessToken returns a cached token or refreshes one
func (b *TokenBroker) AccessToken(ctx context.Context) (string, error) {
	if tok, ok := b.cached(ctx); ok {
		return tok, nil
	}

	ch := b.group.DoChan(b.cacheKey(), func() (any, error) {
		if tok, ok := b.cached(ctx); ok {
			return tok, nil
		}
		// Detached so one caller's cancellation does not fail the others waiting on it
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.config.Timeout)
		defer cancel()
		return b.refresh(fetchCtx)
	})

	select {
	case <-ctx.Done():
		return "", &returns.AuthError{Reason: returns.AuthTokenEndpointUnreachable, Cause: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// Invalidate drops the cached token so the next call refreshes
func (b *TokenBroker) Invalidate(ctx context.Context) {
	if b.store == nil {
		return
	}
	if err := b.store.Delete(ctx, b.cacheKey()); err != nil {
		b.logger.Warn("failed to drop cached carrier token", zap.Error(err))
	}
}

func (b *TokenBroker) cached(ctx context.Context) (string, bool) {
	if b.store == nil {
		return "", false
	}
	tok, ok, err := b.store.Get(ctx, b.cacheKey())
	if err != nil {
		b.logger.Warn("token cache read failed, refreshing", zap.Error(err))
		return "", false
	}
	if !ok || !tok.Valid(b.now()) {
		return "", false
	}
	return tok.AccessToken, true
}

func (b *TokenBroker) refresh(ctx context.Context) (string, error) {
	grant := refreshGrantRequest{
		GrantType:    "refresh_token",
		ClientID:     b.config.ClientID,
		ClientSecret: b.config.ClientSecret,
		RefreshToken: b.config.RefreshToken,
		Scope:        b.config.Scope,
	}

	req, err := b.newGrantRequest(grant)
	if err != nil {
		return "", &returns.AuthError{Reason: returns.AuthMalformedResponse, Cause: err}
	}

	started := b.now()
	tok, err := b.exchange(ctx, req)
	if err != nil {
		b.logger.Warn("carrier token refresh failed", zap.Error(err))
		return "", err
	}

	ttl := tok.ExpiresIn.Duration()
	if ttl <= 0 {
		ttl = b.config.DefaultTTL
	}
	b.logger.Debug("carrier token refreshed",
		zap.Duration("lifetime", ttl),
		zap.Duration("duration", b.now().Sub(started)))

	if cacheFor := ttl - b.config.RefreshSkew; b.store != nil && cacheFor > 0 {
		entry := shared.CachedToken{AccessToken: tok.AccessToken, ExpiresAt: started.Add(cacheFor)}
		if err := b.store.Set(ctx, b.cacheKey(), entry, cacheFor); err != nil {
			b.logger.Warn("failed to cache carrier token", zap.Error(err))
		}
	}
	return tok.AccessToken, nil
}

func (b *TokenBroker) newGrantRequest(grant refreshGrantRequest) (*http.Request, error) {
	if b.config.Encoding == TokenEncodingForm {
		form := url.Values{}
		form.Set("grant_type", grant.GrantType)
		form.Set("client_id", grant.ClientID)
		form.Set("client_secret", grant.ClientSecret)
		form.Set("refresh_token", grant.RefreshToken)
		if grant.Scope != "" {
			form.Set("scope", grant.Scope)
		}
		req, err := http.NewRequest(http.MethodPost, b.config.TokenURL, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	}

	body, err := json.Marshal(grant)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodPost, b.config.TokenURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// exchange posts a grant and maps every failure to an AuthError
func (b *TokenBroker) exchange(ctx context.Context, req *http.Request) (*TokenResponse, error) {
	req.Header.Set("Accept", "application/json")

	resp, err := doRequest(ctx, b.httpClient, req)
	if err != nil {
		return nil, &returns.AuthError{Reason: returns.AuthTokenEndpointUnreachable, Cause: err}
	}

	if !resp.ok() {
		reason := returns.AuthInvalidCredentials
		if resp.status >= 500 {
			reason = returns.AuthTokenEndpointUnreachable
		}
		return nil, &returns.AuthError{
			Reason:     reason,
			StatusCode: resp.status,
			Details:    resp.details(),
			Cause:      fmt.Errorf("token endpoint returned HTTP %d", resp.status),
		}
	}

	var tok TokenResponse
	if err := json.Unmarshal(resp.body, &tok); err != nil {
		return nil, &returns.AuthError{Reason: returns.AuthMalformedResponse, StatusCode: resp.status, Details: resp.details(), Cause: err}
	}
	if tok.AccessToken == "" {
		return nil, &returns.AuthError{
			Reason:     returns.AuthMalformedResponse,
			StatusCode: resp.status,
			Details:    resp.details(),
			Cause:      fmt.Errorf("response has no access_token"),
		}
	}
	return &tok, nil
}

// AuthorizationURL builds the page a carrier account holder visits to grant access
func (b *TokenBroker) AuthorizationURL(redirectURI, state string) string {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", b.config.ClientID)
	q.Set("redirect_uri", redirectURI)
	if b.config.Scope != "" {
		q.Set("scope", b.config.Scope)
	}
	if state != "" {
		q.Set("state", state)
	}
	sep := "?"
	if strings.Contains(b.config.AuthorizeURL, "?") {
		sep = "&"
	}
	return b.config.AuthorizeURL + sep + q.Encode()
}

// ExchangeAuthorizationCode trades a one-time authorization code for tokens.
// The client credential travels as HTTP Basic auth.
func (b *TokenBroker) ExchangeAuthorizationCode(ctx context.Context, code, redirectURI string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	if redirectURI != "" {
		form.Set("redirect_uri", redirectURI)
	}

	req, err := http.NewRequest(http.MethodPost, b.config.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &returns.AuthError{Reason: returns.AuthMalformedResponse, Cause: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(b.config.ClientID, b.config.ClientSecret)

	return b.exchange(ctx, req)
}

var (
	_ returns.TokenSource      = (*TokenBroker)(nil)
	_ returns.TokenInvalidator = (*TokenBroker)(nil)
)

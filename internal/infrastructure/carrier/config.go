package carrier

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/returnmail/backend/internal/domain/returns"
)

// Environment selects the carrier host
type Environment string

const (
	EnvironmentProduction Environment = "production"
	EnvironmentTesting    Environment = "testing"
)

const (
	// ProductionBaseURL is the production API host
	ProductionBaseURL = "https://apis.usps.com"
	// TestingBaseURL is the customer testing environment host
	TestingBaseURL = "https://apis-tem.usps.com"

	tokenPath     = "/oauth2/v3/token"
	authorizePath = "/oauth2/v3/authorize"
	labelPath     = "/labels/v3/label"

	defaultTimeout     = 20 * time.Second
	defaultRefreshSkew = 60 * time.Second
	defaultTokenTTL    = time.Hour
	defaultMailClass   = "USPS_GROUND_ADVANTAGE"
	defaultProcessing  = "MACHINABLE"
	defaultRate        = "SP"
	defaultImageType   = "PDF"
	defaultLabelType   = "4X6LABEL"
)

// BaseURL returns the API host for the environment
func (e Environment) BaseURL() string {
	if e == EnvironmentTesting {
		return TestingBaseURL
	}
	return ProductionBaseURL
}

// TokenEncoding is the body encoding of token requests
type TokenEncoding string

const (
	TokenEncodingJSON TokenEncoding = "json"
	TokenEncodingForm TokenEncoding = "form"
)

// Errors for carrier configuration
var (
	ErrConfigMissingClientID     = errors.New("carrier: client id is required")
	ErrConfigMissingClientSecret = errors.New("carrier: client secret is required")
	ErrConfigMissingRefreshToken = errors.New("carrier: refresh token is required")
	ErrConfigInvalidEncoding     = errors.New("carrier: token encoding must be json or form")
	ErrConfigMissingReturnTo     = errors.New("carrier: return-to address is incomplete")
)

// TokenConfig holds the OAuth settings for the carrier
type TokenConfig struct {
	// TokenURL is the token endpoint; derived from Environment when empty
	TokenURL string
	// AuthorizeURL is the user authorization page used during provisioning
	AuthorizeURL string
	Environment  Environment
	ClientID     string
	ClientSecret string
	RefreshToken string
	Scope        string
	Encoding     TokenEncoding
	// RefreshSkew is subtracted from the token lifetime before caching
	RefreshSkew time.Duration
	// DefaultTTL applies when the endpoint omits expires_in
	DefaultTTL time.Duration
	Timeout    time.Duration
}

// Validate checks required fields and fills defaults.
// A missing refresh token is allowed when requireRefresh is false (provisioning).
func (c *TokenConfig) Validate(requireRefresh bool) error {
	if c.ClientID == "" {
		return ErrConfigMissingClientID
	}
	if c.ClientSecret == "" {
		return ErrConfigMissingClientSecret
	}
	if requireRefresh && c.RefreshToken == "" {
		return ErrConfigMissingRefreshToken
	}
	if c.Environment == "" {
		c.Environment = EnvironmentProduction
	}
	base := c.Environment.BaseURL()
	if c.TokenURL == "" {
		c.TokenURL = base + tokenPath
	}
	if c.AuthorizeURL == "" {
		c.AuthorizeURL = base + authorizePath
	}
	switch c.Encoding {
	case "":
		c.Encoding = TokenEncodingJSON
	case TokenEncodingJSON, TokenEncodingForm:
	default:
		return ErrConfigInvalidEncoding
	}
	if c.RefreshSkew <= 0 {
		c.RefreshSkew = defaultRefreshSkew
	}
	if c.DefaultTTL <= 0 {
		c.DefaultTTL = defaultTokenTTL
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	return nil
}

// LabelConfig holds label issuance settings
type LabelConfig struct {
	// APIBaseURL is the carrier API host; derived from Environment when empty
	APIBaseURL         string
	Environment        Environment
	ReturnTo           returns.Address
	MailClass          string
	ProcessingCategory string
	RateIndicator      string
	ImageType          string
	LabelType          string
	Weights            returns.WeightPolicy
	Timeout            time.Duration
}

// Validate checks the return-to address and fills defaults
func (c *LabelConfig) Validate() error {
	c.ReturnTo = c.ReturnTo.Normalized()
	if !c.ReturnTo.Mailable() {
		return ErrConfigMissingReturnTo
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = c.Environment.BaseURL()
	}
	c.APIBaseURL = strings.TrimRight(c.APIBaseURL, "/")
	if c.MailClass == "" {
		c.MailClass = defaultMailClass
	}
	if c.ProcessingCategory == "" {
		c.ProcessingCategory = defaultProcessing
	}
	if c.RateIndicator == "" {
		c.RateIndicator = defaultRate
	}
	if c.ImageType == "" {
		c.ImageType = defaultImageType
	}
	if c.LabelType == "" {
		c.LabelType = defaultLabelType
	}
	if len(c.Weights.Accepted) == 0 {
		c.Weights.Accepted = slices.Clone(returns.DefaultAcceptedOunces)
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	return nil
}

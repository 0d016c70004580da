package mail

import (
	"errors"
	"net/url"
	"time"

	"github.com/returnmail/backend/internal/domain/returns"
)

const (
	// DefaultAPIURL is the letter creation endpoint
	DefaultAPIURL = "https://api.lob.com/v1/letters"

	defaultTimeout          = 20 * time.Second
	defaultUseType          = "operational"
	defaultAddressPlacement = "insert_blank_page"
)

// Errors for mail configuration
var (
	ErrConfigMissingAPIKey = errors.New("mail: api key is required")
	ErrConfigInvalidURL    = errors.New("mail: api url is invalid")
	ErrConfigMissingSender = errors.New("mail: sender address is incomplete")
)

// Config holds the letter provider settings
type Config struct {
	APIURL string
	APIKey string
	// Sender is used when Submit is called without a from address
	Sender  returns.Address
	Options returns.MailOptions
	Timeout time.Duration
}

// Validate checks the configuration and fills defaults
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrConfigMissingAPIKey
	}
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	if u, err := url.Parse(c.APIURL); err != nil || u.Scheme == "" || u.Host == "" {
		return ErrConfigInvalidURL
	}
	c.Sender = c.Sender.Normalized()
	if !c.Sender.Mailable() {
		return ErrConfigMissingSender
	}
	if c.Options.UseType == "" {
		c.Options.UseType = defaultUseType
	}
	if c.Options.AddressPlacement == "" {
		c.Options.AddressPlacement = defaultAddressPlacement
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	return nil
}

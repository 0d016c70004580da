package carrier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// TokenResponse is the token endpoint payload
type TokenResponse struct {
	AccessToken           string  `json:"access_token"`
	TokenType             string  `json:"token_type"`
	ExpiresIn             Seconds `json:"expires_in"`
	RefreshToken          string  `json:"refresh_token,omitempty"`
	RefreshTokenExpiresIn Seconds `json:"refresh_token_expires_in,omitempty"`
	Scope                 string  `json:"scope,omitempty"`
}

// Seconds is a lifetime that the endpoint may send as a number or a string
type Seconds int64

// UnmarshalJSON accepts 3599, "3599" and null
func (s *Seconds) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = 0
		return nil
	}
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		if str == "" {
			*s = 0
			return nil
		}
		data = []byte(str)
	}
	n, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid seconds value %q", data)
	}
	*s = Seconds(n)
	return nil
}

// Duration converts to time.Duration
func (s Seconds) Duration() time.Duration {
	return time.Duration(s) * time.Second
}

type refreshGrantRequest struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope,omitempty"`
}

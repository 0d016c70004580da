package mail

import "github.com/returnmail/backend/internal/domain/returns"

// letterResponse is the subset of the provider's letter object we read
type letterResponse struct {
	ID                   string `json:"id"`
	Status               string `json:"status"`
	ExpectedDeliveryDate string `json:"expected_delivery_date"`
	URL                  string `json:"url"`
}

// errorResponse is the provider's error envelope
type errorResponse struct {
	Error struct {
		Message    string `json:"message"`
		StatusCode int    `json:"status_code"`
		Code       string `json:"code"`
	} `json:"error"`
}

// addressFields flattens an address into the provider's nested form names
func addressFields(prefix string, a returns.Address) [][2]string {
	fields := [][2]string{
		{prefix + "[name]", a.Name},
		{prefix + "[company]", a.Company},
		{prefix + "[address_line1]", a.Line1},
		{prefix + "[address_line2]", a.Line2},
		{prefix + "[address_city]", a.City},
		{prefix + "[address_state]", a.State},
		{prefix + "[address_zip]", a.Postal},
		{prefix + "[address_country]", a.Country},
		{prefix + "[phone]", a.Phone},
		{prefix + "[email]", a.Email},
	}
	out := fields[:0]
	for _, f := range fields {
		if f[1] != "" {
			out = append(out, f)
		}
	}
	return out
}

package returns

import "strings"

// DefaultCountry is applied to addresses that do not name a country
const DefaultCountry = "US"

// Address is a postal address used as label sender/recipient and letter recipient
type Address struct {
	Name    string `json:"name"`
	Company string `json:"company,omitempty"`
	Line1   string `json:"line1"`
	Line2   string `json:"line2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"`
	Postal  string `json:"postal"`
	Country string `json:"country,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
}

// Normalized returns a copy with every field trimmed and the country defaulted
func (a Address) Normalized() Address {
	out := Address{
		Name:    strings.TrimSpace(a.Name),
		Company: strings.TrimSpace(a.Company),
		Line1:   strings.TrimSpace(a.Line1),
		Line2:   strings.TrimSpace(a.Line2),
		City:    strings.TrimSpace(a.City),
		State:   strings.ToUpper(strings.TrimSpace(a.State)),
		Postal:  strings.TrimSpace(a.Postal),
		Country: strings.ToUpper(strings.TrimSpace(a.Country)),
		Phone:   strings.TrimSpace(a.Phone),
		Email:   strings.TrimSpace(a.Email),
	}
	if out.Country == "" {
		out.Country = DefaultCountry
	}
	return out
}

// MissingFields lists the mailing fields that are empty after trimming.
// Name, line1, city, state and postal code are required for any address
// placed on a label or a letter.
func (a Address) MissingFields() []string {
	var missing []string
	check := func(field, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, field)
		}
	}
	check("name", a.Name)
	check("line1", a.Line1)
	check("city", a.City)
	check("state", a.State)
	check("postal", a.Postal)
	return missing
}

// Mailable reports whether the address carries every required mailing field
func (a Address) Mailable() bool {
	return len(a.MissingFields()) == 0
}

// IsZero reports whether no field is set
func (a Address) IsZero() bool {
	return a == Address{}
}

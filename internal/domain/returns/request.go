package returns

import "strings"

// ReturnRequest is the customer-supplied envelope accepted by the inbound endpoint.
// Field order matters: validation reports missing fields in declaration order.
type ReturnRequest struct {
	Name         string   `json:"name" validate:"required"`
	Company      string   `json:"company,omitempty"`
	Address1     string   `json:"address1" validate:"required"`
	Address2     string   `json:"address2,omitempty"`
	City         string   `json:"city" validate:"required"`
	State        string   `json:"state" validate:"required"`
	Zip          string   `json:"zip" validate:"required"`
	Country      string   `json:"country,omitempty"`
	Phone        string   `json:"phone" validate:"required"`
	Email        string   `json:"email,omitempty" validate:"omitempty,email"`
	DeviceType   string   `json:"deviceType" validate:"required"`
	DeviceSerial string   `json:"deviceSerial,omitempty"`
	ReturnReason string   `json:"returnReason,omitempty"`
	WeightOz     *float64 `json:"weightOz,omitempty"`
	WeightLbs    *float64 `json:"weightLbs,omitempty"`
}

// Normalized returns a trimmed copy of the request
func (r ReturnRequest) Normalized() ReturnRequest {
	out := r
	out.Name = strings.TrimSpace(r.Name)
	out.Company = strings.TrimSpace(r.Company)
	out.Address1 = strings.TrimSpace(r.Address1)
	out.Address2 = strings.TrimSpace(r.Address2)
	out.City = strings.TrimSpace(r.City)
	out.State = strings.TrimSpace(r.State)
	out.Zip = strings.TrimSpace(r.Zip)
	out.Country = strings.TrimSpace(r.Country)
	out.Phone = strings.TrimSpace(r.Phone)
	out.Email = strings.TrimSpace(r.Email)
	out.DeviceType = strings.TrimSpace(r.DeviceType)
	out.DeviceSerial = strings.TrimSpace(r.DeviceSerial)
	out.ReturnReason = strings.TrimSpace(r.ReturnReason)
	return out
}

// Address returns the customer address, used as label sender and letter recipient
func (r ReturnRequest) Address() Address {
	return Address{
		Name:    r.Name,
		Company: r.Company,
		Line1:   r.Address1,
		Line2:   r.Address2,
		City:    r.City,
		State:   r.State,
		Postal:  r.Zip,
		Country: r.Country,
		Phone:   r.Phone,
		Email:   r.Email,
	}.Normalized()
}

package carrier

import "github.com/shopspring/decimal"

type labelRequest struct {
	ImageInfo          imageInfo          `json:"imageInfo"`
	ToAddress          labelAddress       `json:"toAddress"`
	FromAddress        labelAddress       `json:"fromAddress"`
	PackageDescription packageDescription `json:"packageDescription"`
	IsReturnLabel      bool               `json:"isReturnLabel"`
}

type imageInfo struct {
	ImageType string `json:"imageType"`
	LabelType string `json:"labelType"`
}

type labelAddress struct {
	FirstName        string `json:"firstName,omitempty"`
	LastName         string `json:"lastName,omitempty"`
	Firm             string `json:"firm,omitempty"`
	StreetAddress    string `json:"streetAddress"`
	SecondaryAddress string `json:"secondaryAddress,omitempty"`
	City             string `json:"city"`
	State            string `json:"state"`
	ZIPCode          string `json:"ZIPCode"`
	ZIPPlus4         string `json:"ZIPPlus4,omitempty"`
	Phone            string `json:"phone,omitempty"`
	Email            string `json:"email,omitempty"`
}

type packageDescription struct {
	WeightUOM          string `json:"weightUOM"`
	Weight             *int   `json:"weight,omitempty"`
	MailClass          string `json:"mailClass"`
	ProcessingCategory string `json:"processingCategory"`
	RateIndicator      string `json:"rateIndicator"`
	MailingDate        string `json:"mailingDate"`
}

type labelResponse struct {
	TrackingNumber string           `json:"trackingNumber"`
	LabelID        string           `json:"labelId"`
	ServiceType    string           `json:"serviceType"`
	Postage        *decimal.Decimal `json:"postage"`
	LabelImage     string           `json:"labelImage"`
	LabelURL       string           `json:"labelUrl"`
	LabelMetadata  *labelMetadata   `json:"labelMetadata"`
}

type labelMetadata struct {
	TrackingNumber string           `json:"trackingNumber"`
	LabelID        string           `json:"labelId"`
	MailClass      string           `json:"mailClass"`
	Postage        *decimal.Decimal `json:"postage"`
}

// merged folds nested metadata into the flat fields, flat values winning
func (r labelResponse) merged() labelResponse {
	m := r.LabelMetadata
	if m == nil {
		return r
	}
	if r.TrackingNumber == "" {
		r.TrackingNumber = m.TrackingNumber
	}
	if r.LabelID == "" {
		r.LabelID = m.LabelID
	}
	if r.ServiceType == "" {
		r.ServiceType = m.MailClass
	}
	if r.Postage == nil {
		r.Postage = m.Postage
	}
	return r
}

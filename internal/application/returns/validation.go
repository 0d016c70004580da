package returns

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/returnmail/backend/internal/domain/returns"
)

// RequestValidator checks the inbound request before any network call
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator creates a validator that reports JSON field names
func NewRequestValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &RequestValidator{validate: v}
}

// Validate returns a *returns.ValidationError listing every missing field in
// declaration order, followed by fields present but malformed. The request
// should already be trimmed so blank values count as missing.
func (r *RequestValidator) Validate(req returns.ReturnRequest) error {
	err := r.validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	verr := &returns.ValidationError{}
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			verr.Missing = append(verr.Missing, fe.Field())
			continue
		}
		verr.Invalid = append(verr.Invalid, fe.Field())
	}
	return verr
}

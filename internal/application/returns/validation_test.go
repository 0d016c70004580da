package returns

import (
	"errors"
	"testing"

	"github.com/returnmail/backend/internal/domain/returns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestValidator_Validate(t *testing.T) {
	v := NewRequestValidator()

	tests := []struct {
		name        string
		mutate      func(r *returns.ReturnRequest)
		wantMissing []string
		wantInvalid []string
	}{
		{
			name:   "complete request",
			mutate: func(r *returns.ReturnRequest) {},
		},
		{
			name:   "optional fields may be empty",
			mutate: func(r *returns.ReturnRequest) { r.Email, r.Company, r.DeviceSerial = "", "", "" },
		},
		{
			name:        "every required field missing",
			mutate:      func(r *returns.ReturnRequest) { *r = returns.ReturnRequest{} },
			wantMissing: []string{"name", "address1", "city", "state", "zip", "phone", "deviceType"},
		},
		{
			name:        "zip and device type",
			mutate:      func(r *returns.ReturnRequest) { r.Zip, r.DeviceType = "", "" },
			wantMissing: []string{"zip", "deviceType"},
		},
		{
			name:        "malformed email",
			mutate:      func(r *returns.ReturnRequest) { r.Email = "not-an-email" },
			wantInvalid: []string{"email"},
		},
		{
			name:        "missing and invalid together",
			mutate:      func(r *returns.ReturnRequest) { r.Phone, r.Email = "", "jane@" },
			wantMissing: []string{"phone"},
			wantInvalid: []string{"email"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := janeDoe()
			tt.mutate(&req)

			err := v.Validate(req)
			if tt.wantMissing == nil && tt.wantInvalid == nil {
				assert.NoError(t, err)
				return
			}

			var verr *returns.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.wantMissing, verr.Missing)
			assert.Equal(t, tt.wantInvalid, verr.Invalid)
		})
	}
}

func TestRequestValidator_BlankAfterNormalization(t *testing.T) {
	req := janeDoe()
	req.Name = "  \t"

	err := NewRequestValidator().Validate(req.Normalized())
	var verr *returns.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"name"}, verr.Missing)
	assert.Equal(t, "missing required fields: name", verr.Error())
}

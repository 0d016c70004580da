package printing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderRequest_Validate(t *testing.T) {
	tests := []struct {
		name     string
		req      *RenderRequest
		wantCode string
	}{
		{name: "nil request", req: nil, wantCode: ErrCodeInvalidHTML},
		{name: "empty HTML", req: &RenderRequest{}, wantCode: ErrCodeInvalidHTML},
		{name: "whitespace only HTML", req: &RenderRequest{HTML: "  \n\t "}, wantCode: ErrCodeInvalidHTML},
		{name: "negative paper", req: &RenderRequest{HTML: "<p>x</p>", PaperWidthIn: -1}, wantCode: ErrCodeInvalidPaperSize},
		{name: "margins swallow the page", req: &RenderRequest{HTML: "<p>x</p>", MarginIn: 5}, wantCode: ErrCodeInvalidPaperSize},
		{name: "valid letter request", req: &RenderRequest{HTML: "<p>x</p>", MarginIn: 0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantCode == "" {
				require.NoError(t, err)
				assert.Equal(t, LetterWidthIn, tt.req.PaperWidthIn)
				assert.Equal(t, LetterHeightIn, tt.req.PaperHeightIn)
				return
			}
			var renderErr *RenderError
			require.True(t, errors.As(err, &renderErr))
			assert.Equal(t, tt.wantCode, renderErr.Code)
		})
	}
}

func TestRenderError(t *testing.T) {
	cause := errors.New("browser crashed")
	err := NewRenderError(ErrCodeRenderFailed, "chromedp execution failed", cause)

	assert.Equal(t, "chromedp execution failed: browser crashed", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "INVALID_HTML", NewRenderError(ErrCodeInvalidHTML, "INVALID_HTML", nil).Error())
}

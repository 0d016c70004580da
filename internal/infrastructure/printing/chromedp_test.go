package printing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChromedpRenderer_Defaults(t *testing.T) {
	r := NewChromedpRenderer(nil)
	defer r.Close()

	assert.Equal(t, defaultChromeTimeout, r.config.DefaultTimeout)
	assert.NotNil(t, r.allocCtx)
	assert.NotNil(t, r.logger)
}

func TestChromedpRenderer_RejectsInvalidRequests(t *testing.T) {
	r := NewChromedpRenderer(&ChromedpConfig{DefaultTimeout: time.Second})
	defer r.Close()

	_, err := r.Render(context.Background(), &RenderRequest{HTML: " "})
	var renderErr *RenderError
	require.True(t, errors.As(err, &renderErr))
	assert.Equal(t, ErrCodeInvalidHTML, renderErr.Code)
}

func TestWrapDocument(t *testing.T) {
	t.Run("fragment is wrapped", func(t *testing.T) {
		out := wrapDocument(&RenderRequest{HTML: "<h1>Return steps</h1>", Title: "Steps & tips"})
		assert.Contains(t, out, "<!DOCTYPE html>")
		assert.Contains(t, out, `<meta charset="UTF-8">`)
		assert.Contains(t, out, "<title>Steps &amp; tips</title>")
		assert.Contains(t, out, "<body><h1>Return steps</h1></body>")
	})

	t.Run("complete document is untouched", func(t *testing.T) {
		in := "<!doctype html><html><body>ok</body></html>"
		assert.Equal(t, in, wrapDocument(&RenderRequest{HTML: in}))
	})
}

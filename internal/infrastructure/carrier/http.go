package carrier

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// maxResponseSize caps provider responses; label documents are well under it
const maxResponseSize = 10 << 20

// maxDetailSize caps the provider body kept on errors
const maxDetailSize = 4 << 10

type response struct {
	status int
	header http.Header
	body   []byte
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

func (r *response) details() []byte {
	if len(r.body) > maxDetailSize {
		return r.body[:maxDetailSize]
	}
	return r.body
}

// doRequest sends req and reads a size-limited body.
// The returned error is always a transport failure.
func doRequest(ctx context.Context, client *http.Client, req *http.Request) (*response, error) {
	resp, err := client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return &response{status: resp.StatusCode, header: resp.Header, body: body}, nil
}

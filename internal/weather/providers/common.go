package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/i474232898/city-weather/internal/weather"
)

// maxBodyBytes bounds how much of a provider response we read.
const maxBodyBytes = 1 << 20

var (
	errServerError  = errors.New("server error")
	errNoHTTPClient = errors.New("http client not configured")
)

// doRequest executes a single GET and returns the raw body. Every failure is
// wrapped with weather.ErrTransport. 4xx bodies are returned to the caller
// because the provider reports unknown cities as JSON with a 404 status.
// There is no retry: a new request is only made for a new city selection.
func doRequest(
	ctx context.Context,
	client *http.Client,
	buildRequest func(ctx context.Context) (*http.Request, error),
) ([]byte, int, error) {
	if client == nil {
		return nil, 0, fmt.Errorf("%w: %w", weather.ErrTransport, errNoHTTPClient)
	}

	req, err := buildRequest(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: build request: %w", weather.ErrTransport, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", weather.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, resp.StatusCode, fmt.Errorf("%w: %w: %d", weather.ErrTransport, errServerError, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: read body: %w", weather.ErrTransport, err)
	}
	return body, resp.StatusCode, nil
}

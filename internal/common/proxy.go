package common

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const (
	OK                     int = 200
	BAD_REQUEST            int = 400
	UNAUTHORIZED           int = 401
	FORBIDDEN              int = 403
	DATA_NOT_FOUND         int = 404
	METHOD_NOT_ALLOWED     int = 405
	UNSUPPORTED_MEDIA_TYPE int = 415
	RATE_LIMIT_EXCEEDED    int = 429
	INTERNAL_SERVER_ERROR  int = 500
	BAD_GATEWAY            int = 502
	SERVICE_UNAVAILABLE    int = 503
	GATEWAY_TIMEOUT        int = 504
)

var messages = map[int]string{
	OK:                     "OK",
	BAD_REQUEST:            "Bad request",
	UNAUTHORIZED:           "Unauthorized",
	FORBIDDEN:              "Forbidden",
	DATA_NOT_FOUND:         "Data not found",
	METHOD_NOT_ALLOWED:     "Method not allowed",
	UNSUPPORTED_MEDIA_TYPE: "Unsupported media type",
	RATE_LIMIT_EXCEEDED:    "Rate limit exceeded",
	INTERNAL_SERVER_ERROR:  "Internal server error",
	BAD_GATEWAY:            "Bad gateway",
	SERVICE_UNAVAILABLE:    "Service unavailable",
	GATEWAY_TIMEOUT:        "Gateway timeout",
}

// Status code received from the remote end that is not a success
type StatusError struct {
	Url        string
	StatusCode int
}

func (e *StatusError) Error() string {
	message, ok := messages[e.StatusCode]
	if !ok {
		message = "Status code not understood"
	}
	return fmt.Sprintf("GET %s: %d %s", e.Url, e.StatusCode, message)
}

// Performs GET requests with a fixed set of headers. Every request is
// bounded by the timeout of the proxy and by the context of the caller
type Proxy struct {
	header map[string]string
	client *http.Client
}

func NewProxy(header map[string]string, timeout time.Duration) Proxy {
	return Proxy{header, &http.Client{Timeout: timeout}}
}

// Request the provided url and return the body of the response.
// Anything other than a 200 is an error
func (proxy *Proxy) Request(ctx context.Context, url string) ([]byte, error) {

	logger := zerolog.Ctx(ctx)

	// Create the request and add the header
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request for url %s: %w", url, err)
	}
	for key, value := range proxy.header {
		request.Header.Set(key, value)
	}

	// Perform the request
	logger.Debug().Msg(fmt.Sprintf("Requesting to url %s", url))
	res, err := proxy.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("could not perform request to %s: %w", url, err)
	}
	defer res.Body.Close()

	// Check if the status of the request is understood
	message, ok := messages[res.StatusCode]
	if !ok {
		logger.Error().Msg(fmt.Sprintf("Status code of request (%d) is not understood", res.StatusCode))
		return nil, &StatusError{url, res.StatusCode}
	}
	logger.Debug().Msg(fmt.Sprintf("%d %s", res.StatusCode, message))

	if res.StatusCode != OK {
		return nil, &StatusError{url, res.StatusCode}
	}

	// Read the response
	stream, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("could not extract the response for url %s: %w", url, err)
	}
	return stream, nil
}

package connection

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yndnr/ispstatus-go/internal/infra/buildinfo"
)

// APIKeyHeader carries the client credential.
const APIKeyHeader = "X-API-Key"

// HTTPClient provides HTTP communication with the status endpoint.
type HTTPClient struct {
	baseURL string
	prefix  string
	apiKey  string
	client  *http.Client
}

// ClientOption configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithTLSConfig sets the TLS configuration for https servers.
func WithTLSConfig(cfg *tls.Config) ClientOption {
	return func(c *HTTPClient) {
		c.client.Transport = &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			TLSClientConfig: cfg,
		}
	}
}

// WithTimeout bounds each request, including reading the body.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// NewHTTPClient creates a client for the endpoint mounted at prefix on server.
func NewHTTPClient(server, prefix, apiKey string, opts ...ClientOption) *HTTPClient {
	baseURL := strings.TrimRight(server, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}

	prefix = "/" + strings.Trim(prefix, "/")

	c := &HTTPClient{
		baseURL: baseURL,
		prefix:  prefix,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the status endpoint URL with the given query.
func (c *HTTPClient) Endpoint(query url.Values) string {
	u := c.baseURL + c.prefix
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// Get fetches the exposition.
func (c *HTTPClient) Get(ctx context.Context) (*http.Response, error) {
	return c.do(ctx, http.MethodGet, nil, nil)
}

// Post sends body as JSON to the status endpoint.
func (c *HTTPClient) Post(ctx context.Context, body any) (*http.Response, error) {
	return c.do(ctx, http.MethodPost, nil, body)
}

// Patch sends body as JSON to the status endpoint.
func (c *HTTPClient) Patch(ctx context.Context, body any) (*http.Response, error) {
	return c.do(ctx, http.MethodPatch, nil, body)
}

// Delete issues a DELETE with the given query parameters.
func (c *HTTPClient) Delete(ctx context.Context, query url.Values) (*http.Response, error) {
	return c.do(ctx, http.MethodDelete, query, nil)
}

func (c *HTTPClient) do(ctx context.Context, method string, query url.Values, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.Endpoint(query), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	c.addHeaders(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, c.prefix, err)
	}
	return resp, nil
}

func (c *HTTPClient) addHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set(APIKeyHeader, c.apiKey)
	}
	req.Header.Set("User-Agent", "ispstatus-cli/"+buildinfo.Version)
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Code       string // X-Error-Code header, may be empty
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("[%s] %s (HTTP %d)", e.Code, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.StatusCode)
}

// ReadBody drains and closes the response body. Responses with status 400
// or above are returned as *APIError.
func ReadBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Code:       resp.Header.Get("X-Error-Code"),
			Message:    http.StatusText(resp.StatusCode),
		}
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &errResp) == nil && errResp.Error != "" {
			apiErr.Message = errResp.Error
		}
		return nil, apiErr
	}

	return data, nil
}

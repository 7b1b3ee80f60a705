// Package printsdk is the Go client for the printwatch HTTP API. It is used
// by field agents, the printwatch CLI and the server's own tests.
package printsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/xerrors"
)

// APIKeyHeader carries the tenant API key on every /api/v1 request.
const APIKeyHeader = "X-Api-Key"

// New creates a client for the server at serverURL.
func New(serverURL *url.URL) *Client {
	return &Client{
		URL:        serverURL,
		HTTPClient: &http.Client{},
	}
}

// Client talks to a printwatch server on behalf of one tenant.
type Client struct {
	URL        *url.URL
	HTTPClient *http.Client

	apiKey string
}

// SetAPIKey sets the tenant key sent with every request.
func (c *Client) SetAPIKey(key string) {
	c.apiKey = key
}

// APIKey returns the key set by SetAPIKey.
func (c *Client) APIKey() string {
	return c.apiKey
}

// Request performs an HTTP request with the body provided. The caller is
// responsible for closing the response body.
func (c *Client) Request(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	serverURL, err := c.URL.Parse(path)
	if err != nil {
		return nil, xerrors.Errorf("parse url: %w", err)
	}

	var r io.Reader
	if body != nil {
		if data, ok := body.([]byte); ok {
			r = bytes.NewReader(data)
		} else {
			buf := &bytes.Buffer{}
			enc := json.NewEncoder(buf)
			enc.SetEscapeHTML(false)
			err = enc.Encode(body)
			if err != nil {
				return nil, xerrors.Errorf("encode body: %w", err)
			}
			r = buf
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, serverURL.String(), r)
	if err != nil {
		return nil, xerrors.Errorf("create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set(APIKeyHeader, c.apiKey)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, xerrors.Errorf("do: %w", err)
	}
	return resp, nil
}

// Response represents a generic HTTP response.
type Response struct {
	// Message is an actionable message that depicts actions the request took.
	Message string `json:"message"`
	// Detail is a debug message that provides further insight into why the
	// action failed. It can be empty.
	Detail string `json:"detail,omitempty"`
	// Validations are form field-specific friendly error messages.
	Validations []ValidationError `json:"validations,omitempty"`
}

// ValidationError represents a scoped error to a user input.
type ValidationError struct {
	Field  string `json:"field" validate:"required"`
	Detail string `json:"detail" validate:"required"`
}

// Error represents an unaccepted or invalid request to the API.
type Error struct {
	Response

	statusCode int
	method     string
	url        string
}

func (e *Error) StatusCode() int {
	return e.statusCode
}

func (e *Error) Error() string {
	var builder strings.Builder
	if e.method != "" && e.url != "" {
		_, _ = fmt.Fprintf(&builder, "%v %v\n", e.method, e.url)
	}
	_, _ = fmt.Fprintf(&builder, "Status Code: %d\n", e.statusCode)
	_, _ = fmt.Fprintf(&builder, "Message: %s", e.Message)
	if e.Detail != "" {
		_, _ = fmt.Fprintf(&builder, "\nDetail: %s", e.Detail)
	}
	for _, err := range e.Validations {
		_, _ = fmt.Fprintf(&builder, "\n- %s: %s", err.Field, err.Detail)
	}
	return builder.String()
}

// ReadBodyAsError reads the response as a printsdk.Response, and wraps it
// in a printsdk.Error type for easy error handling.
func ReadBodyAsError(res *http.Response) error {
	if res == nil {
		return xerrors.New("no response")
	}
	defer res.Body.Close()

	var method, requestURL string
	if res.Request != nil {
		method = res.Request.Method
		if res.Request.URL != nil {
			requestURL = res.Request.URL.String()
		}
	}

	resp, err := io.ReadAll(res.Body)
	if err != nil {
		return xerrors.Errorf("read body: %w", err)
	}

	mimeType, _, _ := mime.ParseMediaType(res.Header.Get("Content-Type"))
	if mimeType != "application/json" {
		if len(resp) > 1024 {
			resp = append(resp[:1024], []byte("...")...)
		}
		return &Error{
			statusCode: res.StatusCode,
			method:     method,
			url:        requestURL,
			Response: Response{
				Message: fmt.Sprintf("unexpected non-JSON response %q", mimeType),
				Detail:  string(resp),
			},
		}
	}

	var m Response
	err = json.NewDecoder(bytes.NewBuffer(resp)).Decode(&m)
	if err != nil {
		return &Error{
			statusCode: res.StatusCode,
			method:     method,
			url:        requestURL,
			Response: Response{
				Message: "unable to decode error response body",
				Detail:  err.Error(),
			},
		}
	}
	return &Error{
		Response:   m,
		statusCode: res.StatusCode,
		method:     method,
		url:        requestURL,
	}
}

// BuildInfoResponse contains build information for this instance.
type BuildInfoResponse struct {
	// ExternalURL references the current printwatch version.
	ExternalURL string `json:"external_url"`
	Version     string `json:"version"`
}

// BuildInfo returns build information for the server.
func (c *Client) BuildInfo(ctx context.Context) (BuildInfoResponse, error) {
	res, err := c.Request(ctx, http.MethodGet, "/buildinfo", nil)
	if err != nil {
		return BuildInfoResponse{}, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return BuildInfoResponse{}, ReadBodyAsError(res)
	}
	var buildInfo BuildInfoResponse
	return buildInfo, json.NewDecoder(res.Body).Decode(&buildInfo)
}

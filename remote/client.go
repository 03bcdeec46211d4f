// Package remote forwards engine calls over HTTP as JSON. Client implements engine.Engine
// against a server, and Handler serves any engine.Engine to such clients.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aouyang1/go-forecastbridge/engine"
	"github.com/goccy/go-json"
)

const contentType = "application/json"

// request is the body of a call.
type request struct {
	Function string                     `json:"fn"`
	X        *envelope                  `json:"x"`
	Kwargs   map[string]json.RawMessage `json:"kwargs,omitempty"`
}

// response is the body of a reply. Exactly one of Value and Error is set.
type response struct {
	Value *envelope  `json:"value,omitempty"`
	Error *wireError `json:"error,omitempty"`
}

// Options configures a Client.
type Options struct {
	// URL is the endpoint calls are posted to.
	URL string `json:"url" yaml:"url"`

	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client `json:"-" yaml:"-"`
}

// Client is an engine.Engine served by a remote process.
type Client struct {
	url  string
	http *http.Client
}

// NewClient returns a client posting to opt.URL.
func NewClient(opt *Options) (*Client, error) {
	if opt == nil || strings.TrimSpace(opt.URL) == "" {
		return nil, ErrEmptyURL
	}
	hc := opt.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{url: opt.URL, http: hc}, nil
}

// Call implements engine.Engine. Engine failures come back as *Error.
func (c *Client) Call(ctx context.Context, fn string, x engine.Object, kw engine.Kwargs) (engine.Object, error) {
	env, err := encode(x)
	if err != nil {
		return nil, err
	}
	rawKw, err := encodeKwargs(kw)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(&request{Function: fn, X: env, Kwargs: rawKw})
	if err != nil {
		return nil, fmt.Errorf("encoding %s call, %w", fn, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w, %w", err, ErrTransport)
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w, %w", err, ErrTransport)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s reply, %w, %w", fn, err, ErrTransport)
	}
	var out response
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("status %d, undecodable reply %q, %w", resp.StatusCode, truncate(data), ErrTransport)
	}
	if out.Error != nil {
		return nil, &Error{Function: fn, Message: out.Error.Message, Code: out.Error.Code, Status: resp.StatusCode}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d, %w", resp.StatusCode, ErrTransport)
	}
	return decode(out.Value)
}

func truncate(b []byte) string {
	const limit = 200
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}

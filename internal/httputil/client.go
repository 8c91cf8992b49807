// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/docconv/pkg/types"
)

// DefaultTimeout bounds a whole remote call, retries excluded.
const DefaultTimeout = 5 * time.Minute

// Client calls a docconv HTTP server. Its methods mirror the engine so the
// CLI can run either locally or against a server.
type Client struct {
	base       string
	http       *http.Client
	maxRetries int
}

// NewClient returns a Client for the server at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

type formFile struct {
	field string
	up    types.Upload
}

// Convert posts req to /convert.
func (c *Client) Convert(ctx context.Context, req types.ConversionRequest) (*types.Outcome, error) {
	return c.post(ctx, "/convert",
		map[string]string{"target_format": string(req.Target)},
		formFile{"file", req.Source})
}

// Merge posts req to /merge.
func (c *Client) Merge(ctx context.Context, req types.MergeRequest) (*types.Outcome, error) {
	files := make([]formFile, len(req.Inputs))
	for i, in := range req.Inputs {
		files[i] = formFile{"files", in}
	}
	return c.post(ctx, "/merge", nil, files...)
}

// Split posts req to /split.
func (c *Client) Split(ctx context.Context, req types.SplitRequest) (*types.Outcome, error) {
	return c.post(ctx, "/split", map[string]string{"ranges": req.Ranges}, formFile{"file", req.Input})
}

// Compress posts req to /compress.
func (c *Client) Compress(ctx context.Context, req types.CompressRequest) (*types.Outcome, error) {
	return c.post(ctx, "/compress", map[string]string{"quality": string(req.Quality)}, formFile{"file", req.Input})
}

// Formats fetches the server's capability table.
func (c *Client) Formats(ctx context.Context) (map[string][]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/formats", nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	resp, err := DoWithRetry(ctx, c.http, req, c.maxRetries)
	if err != nil {
		return nil, fmt.Errorf("fetching formats: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var table map[string][]string
	if err := json.NewDecoder(resp.Body).Decode(&table); err != nil {
		return nil, fmt.Errorf("decoding formats: %w", err)
	}
	return table, nil
}

// Health reports whether the server answers its liveness probe.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/health", nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("checking health: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned %s", resp.Status)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, fields map[string]string, files ...formFile) (*types.Outcome, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("writing form field %s: %w", k, err)
		}
	}
	for _, f := range files {
		w, err := mw.CreateFormFile(f.field, f.up.Filename)
		if err != nil {
			return nil, fmt.Errorf("writing form file: %w", err)
		}
		if _, err := w.Write(f.up.Data); err != nil {
			return nil, fmt.Errorf("writing form file: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := DoWithRetry(ctx, c.http, req, c.maxRetries)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	out := &types.Outcome{Payload: data, MIMEType: resp.Header.Get("Content-Type")}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		out.Filename = params["filename"]
	}
	if out.Filename == "" {
		out.Filename = "result"
	}
	return out, nil
}

type errorBody struct {
	Kind   types.ErrorKind `json:"kind"`
	Detail string          `json:"detail"`
}

// decodeError rebuilds the engine error carried by a non-200 response.
func decodeError(resp *http.Response) error {
	var e errorBody
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&e); err != nil || e.Kind == "" {
		if resp.StatusCode == http.StatusTooManyRequests {
			return types.Errorf(types.ErrBusy, "server is busy, try again later")
		}
		return types.Errorf(types.ErrConversionToolFailure, "server returned %s", resp.Status)
	}
	return types.Errorf(e.Kind, "%s", e.Detail)
}

package source

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTP downloads <BaseURL>/<bucket>/<key>.
type HTTP struct {
	BaseURL string
	Header  http.Header
	Client  *http.Client
}

// NewHTTP returns a source under baseURL.
func NewHTTP(baseURL string, timeout time.Duration) *HTTP {
	return &HTTP{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Header:  http.Header{},
		Client:  &http.Client{Timeout: timeout},
	}
}

// NewSupabase reads the public objects of a Supabase storage project. The
// service role key, when given, is sent along.
func NewSupabase(projectURL, serviceRoleKey string, timeout time.Duration) *HTTP {
	h := NewHTTP(strings.TrimSuffix(projectURL, "/")+"/storage/v1/object/public", timeout)
	if serviceRoleKey != "" {
		h.Header.Set("apikey", serviceRoleKey)
		h.Header.Set("Authorization", "Bearer "+serviceRoleKey)
	}
	return h
}

// URL returns the object location.
func (h *HTTP) URL(bucket, key string) string {
	parts := strings.Split(strings.Trim(key, "/"), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return h.BaseURL + "/" + url.PathEscape(bucket) + "/" + strings.Join(parts, "/")
}

// Read implements Source. A non 200 answer is an *Error with that status.
func (h *HTTP) Read(ctx context.Context, bucket, key string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL(bucket, key), nil)
	if err != nil {
		return nil, err
	}
	for k, v := range h.Header {
		req.Header[k] = v
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &Error{StatusCode: resp.StatusCode, Err: errorf(req.URL)}
	}

	if resp.ContentLength > 0 {
		b := bytes.NewBuffer(make([]byte, 0, resp.ContentLength))
		_, err = b.ReadFrom(resp.Body)
		return b.Bytes(), err
	}

	return io.ReadAll(resp.Body)
}

type urlError struct {
	url string
}

func (e urlError) Error() string {
	return e.url
}

// errorf hides the query string, which may hold credentials.
func errorf(u *url.URL) error {
	c := *u
	c.RawQuery = ""
	return urlError{c.String()}
}

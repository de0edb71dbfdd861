package httpx

import (
	"net/http"
	"net/http/httptest"
)

// TestServer serves a handler on a loopback port for tests and hands out
// clients pointed at it.
type TestServer struct{ *httptest.Server }

func NewTestServer(handler http.Handler) *TestServer {
	return &TestServer{Server: httptest.NewServer(handler)}
}

// BaseURL returns the server's root URL, or "" for a nil server.
func (ts *TestServer) BaseURL() string {
	if ts == nil || ts.Server == nil {
		return ""
	}
	return ts.URL
}

// NewClient returns a Client whose relative paths resolve against the server.
func (ts *TestServer) NewClient(opts ...ClientOption) *Client {
	return NewClient(append([]ClientOption{WithBaseURL(ts.BaseURL())}, opts...)...)
}

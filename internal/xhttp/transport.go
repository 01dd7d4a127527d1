package xhttp

import (
	"fmt"
	"net/http"
)

type githubTransport struct {
	base       http.RoundTripper
	userAgent  string
	apiVersion string
}

var _ http.RoundTripper = (*githubTransport)(nil)

func (t *githubTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTrippers must not mutate the caller's request.
	req = req.Clone(req.Context())
	req.Header.Set(UserAgent, t.userAgent)
	if req.Header.Get(Accept) == "" {
		req.Header.Set(Accept, ApplicationGitHubJSON)
	}
	if t.apiVersion != "" {
		req.Header.Set(XGitHubAPIVersion, t.apiVersion)
	}
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform round trip: %w", err)
	}
	return resp, nil
}

// NewGitHubTransport returns an http.RoundTripper that stamps the headers the
// GitHub REST API requires on every call. A nil base uses http.DefaultTransport.
func NewGitHubTransport(base http.RoundTripper, userAgent, apiVersion string) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &githubTransport{base: base, userAgent: userAgent, apiVersion: apiVersion}
}

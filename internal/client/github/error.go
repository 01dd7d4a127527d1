package github

import (
	"errors"
	"fmt"
	"net/http"

	go_json "github.com/goccy/go-json"
)

var ErrUnexpectedStatus = errors.New("unexpected status from github")

type APIError struct {
	StatusCode int
	Message    string
	// DocumentationURL is set when GitHub points at the relevant docs page.
	DocumentationURL string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github api: %d %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error { return ErrUnexpectedStatus }

type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("github %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func parseAPIError(resp *Response) error {
	var errResp struct {
		Message          string `json:"message"`
		DocumentationURL string `json:"documentation_url"`
	}

	if err := go_json.Unmarshal(resp.Body, &errResp); err != nil {
		msg := string(resp.Body)
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	msg := errResp.Message
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	return &APIError{
		StatusCode:       resp.StatusCode,
		Message:          msg,
		DocumentationURL: errResp.DocumentationURL,
	}
}

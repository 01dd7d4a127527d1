package checks

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	go_json "github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"golang.org/x/oauth2"

	"github.com/garrettladley/checkrun/internal/client/github"
	"github.com/garrettladley/checkrun/internal/dispatch"
	"github.com/garrettladley/checkrun/internal/ghapp"
	"github.com/garrettladley/checkrun/internal/secret"
)

var (
	testCreds = secret.Credentials{AppID: "1", PrivateKey: "k", WebhookSecret: "s"}
	testNow   = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	testCfg   = Config{CheckName: "checkrun", DetailsURL: "https://docs.github.com/en/rest/checks/runs"}
)

type fakeIssuer struct {
	mu    sync.Mutex
	ids   []int64
	token string
	err   error
}

func (f *fakeIssuer) InstallationToken(_ context.Context, _ secret.Credentials, installationID int64) (*oauth2.Token, error) {
	f.mu.Lock()
	f.ids = append(f.ids, installationID)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &oauth2.Token{AccessToken: f.token}, nil
}

type call struct {
	Method string
	Path   string
	Auth   string
	Body   map[string]any
}

type fakeGitHub struct {
	mu     sync.Mutex
	calls  []call
	status int
	body   string
}

func newFakeGitHub(t *testing.T, status int, body string) (*fakeGitHub, *github.Client) {
	t.Helper()
	f := &fakeGitHub{status: status, body: body}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var decoded map[string]any
		_ = go_json.Unmarshal(raw, &decoded)
		f.mu.Lock()
		f.calls = append(f.calls, call{Method: r.Method, Path: r.URL.Path, Auth: r.Header.Get("Authorization"), Body: decoded})
		f.mu.Unlock()
		w.WriteHeader(f.status)
		_, _ = io.WriteString(w, f.body)
	}))
	t.Cleanup(srv.Close)
	return f, github.NewClient(github.WithBaseURL(srv.URL))
}

const checkSuiteRequested = `{
	"action": "requested",
	"check_suite": {"id": 5, "head_sha": "d6fde92930d4715a2b49857d24b940956b26d2d3"},
	"repository": {"name": "hello-world", "owner": {"login": "octocat"}},
	"installation": {"id": 2311213}
}`

const checkRunRequestedAction = `{
	"action": "requested_action",
	"check_run": {"id": 42},
	"requested_action": {"identifier": "fix"},
	"repository": {"name": "hello-world", "owner": {"login": "octocat"}},
	"installation": {"id": 2311213}
}`

func TestSuiteRequested(t *testing.T) {
	t.Parallel()

	gh, client := newFakeGitHub(t, http.StatusCreated, `{"id":4}`)
	issuer := &fakeIssuer{token: "ghs_inst"}
	h := NewSuiteRequested(issuer, client, testCfg, WithClock(func() time.Time { return testNow }))

	err := h.Handle(t.Context(), dispatch.Delivery{
		ID:          "72d3162e-cc78-11e3-81ab-4c9367dc0958",
		Event:       dispatch.EventCheckSuite,
		Action:      dispatch.ActionRequested,
		Body:        []byte(checkSuiteRequested),
		Credentials: testCreds,
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	if diff := cmp.Diff([]int64{2311213}, issuer.ids); diff != "" {
		t.Errorf("installation ids mismatch (-want +got):\n%s", diff)
	}
	if len(gh.calls) != 1 {
		t.Fatalf("github calls = %d, want 1", len(gh.calls))
	}
	got := gh.calls[0]
	if got.Method != http.MethodPost || got.Path != "/repos/octocat/hello-world/check-runs" {
		t.Errorf("request = %s %s, want POST /repos/octocat/hello-world/check-runs", got.Method, got.Path)
	}
	if got.Auth != "Bearer ghs_inst" {
		t.Errorf("Authorization = %q, want %q", got.Auth, "Bearer ghs_inst")
	}

	body := got.Body
	for key, want := range map[string]any{
		"name":         "checkrun",
		"head_sha":     "d6fde92930d4715a2b49857d24b940956b26d2d3",
		"status":       "completed",
		"conclusion":   "action_required",
		"details_url":  "https://docs.github.com/en/rest/checks/runs",
		"external_id":  "72d3162e-cc78-11e3-81ab-4c9367dc0958",
		"started_at":   "2024-05-01T10:00:00Z",
		"completed_at": "2024-05-01T10:00:00Z",
	} {
		if body[key] != want {
			t.Errorf("body[%q] = %v, want %v", key, body[key], want)
		}
	}

	output, ok := body["output"].(map[string]any)
	if !ok {
		t.Fatalf("body.output missing: %v", body)
	}
	for _, key := range []string{"title", "summary", "text"} {
		if s, _ := output[key].(string); s == "" {
			t.Errorf("output.%s is empty", key)
		}
	}
	if n := len(output["annotations"].([]any)); n != 1 {
		t.Errorf("annotations = %d, want 1", n)
	}
	if n := len(output["images"].([]any)); n != 1 {
		t.Errorf("images = %d, want 1", n)
	}
	actions := body["actions"].([]any)
	if len(actions) != 1 {
		t.Fatalf("actions = %d, want 1", len(actions))
	}
	if id := actions[0].(map[string]any)["identifier"]; id != ActionIdentifierFix {
		t.Errorf("actions[0].identifier = %v, want %s", id, ActionIdentifierFix)
	}
}

func TestRunRequestedAction(t *testing.T) {
	t.Parallel()

	gh, client := newFakeGitHub(t, http.StatusOK, `{"id":42}`)
	issuer := &fakeIssuer{token: "ghs_inst"}
	h := NewRunRequestedAction(issuer, client, testCfg)

	err := h.Handle(t.Context(), dispatch.Delivery{
		Event:       dispatch.EventCheckRun,
		Action:      dispatch.ActionRequestedAction,
		Body:        []byte(checkRunRequestedAction),
		Credentials: testCreds,
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	if len(gh.calls) != 1 {
		t.Fatalf("github calls = %d, want 1", len(gh.calls))
	}
	got := gh.calls[0]
	if got.Method != http.MethodPatch || got.Path != "/repos/octocat/hello-world/check-runs/42" {
		t.Errorf("request = %s %s, want PATCH /repos/octocat/hello-world/check-runs/42", got.Method, got.Path)
	}
	if got.Body["conclusion"] != "success" {
		t.Errorf("conclusion = %v, want success", got.Body["conclusion"])
	}
	if _, ok := got.Body["name"]; ok {
		t.Error("update payload carries a name field")
	}
	output := got.Body["output"].(map[string]any)
	if _, ok := output["annotations"]; ok {
		t.Error("update output carries annotations")
	}
	for _, key := range []string{"title", "summary", "text"} {
		if s, _ := output[key].(string); s == "" {
			t.Errorf("output.%s is empty", key)
		}
	}
}

func TestHandlersMalformedEvents(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		suite bool
		body  string
	}{
		{name: "suite invalid json", suite: true, body: `{`},
		{name: "suite missing installation", suite: true, body: `{"check_suite":{"head_sha":"abc"},"repository":{"name":"r","owner":{"login":"o"}}}`},
		{name: "suite missing head sha", suite: true, body: `{"check_suite":{},"repository":{"name":"r","owner":{"login":"o"}},"installation":{"id":1}}`},
		{name: "suite missing owner", suite: true, body: `{"check_suite":{"head_sha":"abc"},"repository":{"name":"r"},"installation":{"id":1}}`},
		{name: "run invalid json", body: `[]`},
		{name: "run missing check run id", body: `{"check_run":{},"repository":{"name":"r","owner":{"login":"o"}},"installation":{"id":1}}`},
		{name: "run missing repo name", body: `{"check_run":{"id":1},"repository":{"owner":{"login":"o"}},"installation":{"id":1}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gh, client := newFakeGitHub(t, http.StatusOK, `{}`)
			issuer := &fakeIssuer{token: "t"}
			var h dispatch.ActionHandler = NewRunRequestedAction(issuer, client, testCfg)
			if tt.suite {
				h = NewSuiteRequested(issuer, client, testCfg)
			}

			err := h.Handle(t.Context(), dispatch.Delivery{Body: []byte(tt.body), Credentials: testCreds})
			if !errors.Is(err, ErrMalformedEvent) {
				t.Errorf("Handle() error = %v, want ErrMalformedEvent", err)
			}
			if len(issuer.ids) != 0 || len(gh.calls) != 0 {
				t.Errorf("token requests = %d, github calls = %d, want 0 and 0", len(issuer.ids), len(gh.calls))
			}
		})
	}
}

func TestHandlerTokenExchangeFailure(t *testing.T) {
	t.Parallel()

	gh, client := newFakeGitHub(t, http.StatusOK, `{}`)
	issuer := &fakeIssuer{err: &ghapp.TokenExchangeError{InstallationID: 2311213, StatusCode: http.StatusUnauthorized}}
	h := NewSuiteRequested(issuer, client, testCfg)

	err := h.Handle(t.Context(), dispatch.Delivery{Body: []byte(checkSuiteRequested), Credentials: testCreds})
	if !errors.Is(err, ghapp.ErrTokenExchange) {
		t.Errorf("Handle() error = %v, want ErrTokenExchange", err)
	}
	if len(gh.calls) != 0 {
		t.Errorf("github calls = %d, want 0", len(gh.calls))
	}
}

func TestHandlerCheckRunAPIError(t *testing.T) {
	t.Parallel()

	gh, client := newFakeGitHub(t, http.StatusUnprocessableEntity, `{"message":"Validation Failed"}`)
	h := NewRunRequestedAction(&fakeIssuer{token: "t"}, client, testCfg)

	err := h.Handle(t.Context(), dispatch.Delivery{Body: []byte(checkRunRequestedAction), Credentials: testCreds})
	if !errors.Is(err, ErrCheckRun) {
		t.Fatalf("Handle() error = %v, want ErrCheckRun", err)
	}
	var apiErr *github.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("Handle() error = %v, want *github.APIError 422", err)
	}
	if len(gh.calls) != 1 {
		t.Errorf("github calls = %d, want 1 (no retries)", len(gh.calls))
	}
}

func TestNewTableDispatchesOneCallPerRoute(t *testing.T) {
	t.Parallel()

	tests := []struct {
		route dispatch.Route
		body  string
	}{
		{route: dispatch.Route{Event: dispatch.EventCheckSuite, Action: dispatch.ActionRequested}, body: checkSuiteRequested},
		{route: dispatch.Route{Event: dispatch.EventCheckRun, Action: dispatch.ActionRequestedAction}, body: checkRunRequestedAction},
	}

	for _, tt := range tests {
		t.Run(tt.route.String(), func(t *testing.T) {
			t.Parallel()

			gh, client := newFakeGitHub(t, http.StatusOK, `{}`)
			table := NewTable(&fakeIssuer{token: "t"}, client, testCfg)

			out := table.Dispatch(t.Context(), dispatch.Delivery{
				Event:       tt.route.Event,
				Action:      tt.route.Action,
				Body:        []byte(tt.body),
				Credentials: testCreds,
			})
			if out.Status != dispatch.StatusHandled {
				t.Fatalf("Status = %s, err = %v, want handled", out.Status, out.Err)
			}
			if len(gh.calls) != 1 {
				t.Errorf("github calls = %d, want 1", len(gh.calls))
			}
		})
	}
}

// Package checks implements the check-run side effects triggered by webhook
// deliveries. Each handled delivery makes exactly one check-run call.
package checks

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	"github.com/garrettladley/checkrun/internal/client/github"
	"github.com/garrettladley/checkrun/internal/dispatch"
	"github.com/garrettladley/checkrun/internal/secret"
	"github.com/garrettladley/checkrun/internal/xslog"
)

var (
	ErrMalformedEvent = errors.New("malformed event payload")
	ErrCheckRun       = errors.New("check run request failed")
)

type TokenIssuer interface {
	InstallationToken(ctx context.Context, creds secret.Credentials, installationID int64) (*oauth2.Token, error)
}

type Sender interface {
	Send(ctx context.Context, r github.Request) (*github.Response, error)
}

type Config struct {
	// CheckName is the name shown for created check runs.
	CheckName  string
	DetailsURL string
}

type Option func(*runner)

func WithClock(now func() time.Time) Option {
	return func(r *runner) { r.now = now }
}

// runner is the skeleton shared by every action: issue an installation
// token, make one call with it, log the result.
type runner struct {
	issuer TokenIssuer
	client Sender
	cfg    Config
	now    func() time.Time
}

func newRunner(issuer TokenIssuer, client Sender, cfg Config, opts ...Option) runner {
	r := runner{issuer: issuer, client: client, cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

func (r *runner) run(ctx context.Context, creds secret.Credentials, installationID int64, req github.Request) (*github.Response, error) {
	logger := xslog.FromContext(ctx)

	tok, err := r.issuer.InstallationToken(ctx, creds, installationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get installation token: %w", err)
	}
	req.Token = oauth2.StaticTokenSource(tok)

	resp, err := r.client.Send(ctx, req)
	if err != nil {
		return resp, fmt.Errorf("%w: %w", ErrCheckRun, err)
	}

	logger.InfoContext(ctx, "check run request succeeded",
		xslog.Method(req.Method),
		xslog.Path(req.Path),
		xslog.HTTPStatus(resp.StatusCode),
	)
	return resp, nil
}

type target struct {
	installationID int64
	owner          string
	repo           string
}

func (t target) repoPath() string {
	return "/repos/" + url.PathEscape(t.owner) + "/" + url.PathEscape(t.repo)
}

func newTarget(installationID int64, owner, repo string) (target, error) {
	switch {
	case installationID == 0:
		return target{}, fmt.Errorf("%w: missing installation.id", ErrMalformedEvent)
	case owner == "":
		return target{}, fmt.Errorf("%w: missing repository.owner.login", ErrMalformedEvent)
	case repo == "":
		return target{}, fmt.Errorf("%w: missing repository.name", ErrMalformedEvent)
	}
	return target{installationID: installationID, owner: owner, repo: repo}, nil
}

// Registrations binds the handlers to the routes they serve.
func Registrations(suite *SuiteRequested, run *RunRequestedAction) []dispatch.Registration {
	return []dispatch.Registration{
		dispatch.Register(dispatch.EventCheckSuite, dispatch.ActionRequested, suite),
		dispatch.Register(dispatch.EventCheckRun, dispatch.ActionRequestedAction, run),
	}
}

// NewTable builds the dispatch table for every supported route.
func NewTable(issuer TokenIssuer, client Sender, cfg Config, opts ...Option) *dispatch.Table {
	return dispatch.NewTable(Registrations(
		NewSuiteRequested(issuer, client, cfg, opts...),
		NewRunRequestedAction(issuer, client, cfg, opts...),
	)...)
}

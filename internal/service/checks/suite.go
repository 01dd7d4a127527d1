package checks

import (
	"context"
	"fmt"
	"net/http"

	go_json "github.com/goccy/go-json"
	gh "github.com/google/go-github/v66/github"

	"github.com/garrettladley/checkrun/internal/client/github"
	"github.com/garrettladley/checkrun/internal/dispatch"
	"github.com/garrettladley/checkrun/internal/xslog"
)

// SuiteRequested creates a completed check run asking for user action
// whenever GitHub requests a check suite.
type SuiteRequested struct {
	runner
}

var _ dispatch.ActionHandler = (*SuiteRequested)(nil)

func NewSuiteRequested(issuer TokenIssuer, client Sender, cfg Config, opts ...Option) *SuiteRequested {
	return &SuiteRequested{runner: newRunner(issuer, client, cfg, opts...)}
}

func (h *SuiteRequested) Handle(ctx context.Context, d dispatch.Delivery) error {
	var event gh.CheckSuiteEvent
	if err := go_json.Unmarshal(d.Body, &event); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}

	t, err := newTarget(event.GetInstallation().GetID(), event.GetRepo().GetOwner().GetLogin(), event.GetRepo().GetName())
	if err != nil {
		return err
	}
	headSHA := event.GetCheckSuite().GetHeadSHA()
	if headSHA == "" {
		return fmt.Errorf("%w: missing check_suite.head_sha", ErrMalformedEvent)
	}

	ctx = xslog.WithAttrs(ctx,
		xslog.InstallationID(t.installationID),
		xslog.RepositoryGroup(t.owner, t.repo),
		xslog.HeadSHA(headSHA),
	)

	resp, err := h.run(ctx, d.Credentials, t.installationID, github.Request{
		Method: http.MethodPost,
		Path:   t.repoPath() + "/check-runs",
		Body:   h.createPayload(headSHA, d.ID),
	})
	if err != nil {
		return err
	}

	var created gh.CheckRun
	if err := resp.Decode(&created); err == nil {
		xslog.FromContext(ctx).InfoContext(ctx, "created check run",
			xslog.CheckRunID(created.GetID()),
		)
	}
	return nil
}

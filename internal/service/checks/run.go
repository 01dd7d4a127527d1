package checks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	go_json "github.com/goccy/go-json"
	gh "github.com/google/go-github/v66/github"

	"github.com/garrettladley/checkrun/internal/client/github"
	"github.com/garrettladley/checkrun/internal/dispatch"
	"github.com/garrettladley/checkrun/internal/xslog"
)

// RunRequestedAction marks a check run successful when the user clicks its
// requested action button.
type RunRequestedAction struct {
	runner
}

var _ dispatch.ActionHandler = (*RunRequestedAction)(nil)

func NewRunRequestedAction(issuer TokenIssuer, client Sender, cfg Config, opts ...Option) *RunRequestedAction {
	return &RunRequestedAction{runner: newRunner(issuer, client, cfg, opts...)}
}

func (h *RunRequestedAction) Handle(ctx context.Context, d dispatch.Delivery) error {
	var event gh.CheckRunEvent
	if err := go_json.Unmarshal(d.Body, &event); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}

	t, err := newTarget(event.GetInstallation().GetID(), event.GetRepo().GetOwner().GetLogin(), event.GetRepo().GetName())
	if err != nil {
		return err
	}
	checkRunID := event.GetCheckRun().GetID()
	if checkRunID == 0 {
		return fmt.Errorf("%w: missing check_run.id", ErrMalformedEvent)
	}

	ctx = xslog.WithAttrs(ctx,
		xslog.InstallationID(t.installationID),
		xslog.RepositoryGroup(t.owner, t.repo),
		xslog.CheckRunID(checkRunID),
	)
	if ra := event.GetRequestedAction(); ra != nil {
		xslog.FromContext(ctx).DebugContext(ctx, "requested action", slog.String("identifier", ra.Identifier))
	}

	_, err = h.run(ctx, d.Credentials, t.installationID, github.Request{
		Method: http.MethodPatch,
		Path:   t.repoPath() + "/check-runs/" + strconv.FormatInt(checkRunID, 10),
		Body:   updatePayload(),
	})
	return err
}

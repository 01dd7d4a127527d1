package webhook

import (
	"context"

	"github.com/garrettladley/checkrun/internal/dispatch"
	"github.com/garrettladley/checkrun/internal/secret"
	"github.com/garrettladley/checkrun/internal/xslog"
)

const statusRejected = "rejected"

type CredentialResolver interface {
	Resolve(ctx context.Context) (secret.Credentials, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, d dispatch.Delivery) dispatch.Outcome
}

// Recorder counts deliveries by route and final status.
type Recorder interface {
	RecordDelivery(ctx context.Context, event, action, status string)
}

type nopRecorder struct{}

func (nopRecorder) RecordDelivery(context.Context, string, string, string) {}

type Processor struct {
	resolver   CredentialResolver
	dispatcher Dispatcher
	recorder   Recorder
}

var _ Service = (*Processor)(nil)

func NewProcessor(resolver CredentialResolver, dispatcher Dispatcher, recorder Recorder) *Processor {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Processor{
		resolver:   resolver,
		dispatcher: dispatcher,
		recorder:   recorder,
	}
}

func (p *Processor) ProcessWebhook(ctx context.Context, req ProcessRequest) (dispatch.Outcome, error) {
	if req.DeliveryID != "" {
		ctx = xslog.WithAttrs(ctx, xslog.DeliveryID(req.DeliveryID))
	}
	ctx = xslog.WithAttrs(ctx, xslog.Event(req.Event))
	logger := xslog.FromContext(ctx)

	if req.Signature == "" {
		p.recorder.RecordDelivery(ctx, req.Event, "", statusRejected)
		return dispatch.Outcome{}, ErrMissingSignature
	}

	creds, err := p.resolver.Resolve(ctx)
	if err != nil {
		p.recorder.RecordDelivery(ctx, req.Event, "", statusRejected)
		return dispatch.Outcome{}, err
	}

	if err := Verify(req.Signature, req.Body, creds.WebhookSecret); err != nil {
		p.recorder.RecordDelivery(ctx, req.Event, "", statusRejected)
		return dispatch.Outcome{}, err
	}

	env, err := parseEnvelope(req.Body)
	if err != nil {
		p.recorder.RecordDelivery(ctx, req.Event, "", statusRejected)
		return dispatch.Outcome{}, err
	}

	out := p.dispatcher.Dispatch(ctx, dispatch.Delivery{
		ID:          req.DeliveryID,
		Event:       req.Event,
		Action:      env.Action,
		Body:        req.Body,
		Credentials: creds,
	})
	p.recorder.RecordDelivery(ctx, req.Event, env.Action, string(out.Status))

	attrs := []any{
		xslog.Action(env.Action),
		xslog.Outcome(string(out.Status)),
		xslog.Duration(out.Duration),
	}
	if out.Err != nil {
		attrs = append(attrs, xslog.Error(out.Err))
	}
	logger.InfoContext(ctx, "processed webhook", attrs...)

	return out, nil
}

package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/garrettladley/checkrun/internal/secret"
	"github.com/garrettladley/checkrun/internal/service/webhook"
	"github.com/garrettladley/checkrun/internal/xerrors"
	"github.com/garrettladley/checkrun/internal/xhttp"
	"github.com/garrettladley/checkrun/internal/xslog"
)

// GitHub caps webhook payloads at 25 MB.
const maxBodyBytes = 25 << 20

type Webhook struct {
	service webhook.Service
}

func NewWebhook(service webhook.Service) *Webhook {
	return &Webhook{service: service}
}

type webhookResponse struct {
	Event  string `json:"event"`
	Action string `json:"action"`
	Status string `json:"status"`
}

// HandleWebhook handles POST /webhooks/github requests.
func (h *Webhook) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := xslog.FromContext(ctx)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		logger.ErrorContext(ctx, "failed to read webhook body", xslog.Error(err))
		xerrors.WriteError(ctx, w, xerrors.BadRequest(xerrors.WithMessage("failed to read request body")))
		return
	}

	req := webhook.ProcessRequest{
		Body:       body,
		Signature:  r.Header.Get(xhttp.XHubSignature256),
		Event:      r.Header.Get(xhttp.XGitHubEvent),
		DeliveryID: r.Header.Get(xhttp.XGitHubDelivery),
	}

	out, err := h.service.ProcessWebhook(ctx, req)
	if err != nil {
		xerrors.WriteError(ctx, w, ToHTTPError(err))
		return
	}

	xhttp.WriteOK(w, webhookResponse{
		Event:  out.Route.Event,
		Action: out.Route.Action,
		Status: string(out.Status),
	})
}

// ToHTTPError maps a webhook processing error to the response the sender
// sees. Every delivery that reached dispatch is a 200, so only rejections
// land here.
func ToHTTPError(err error) *xerrors.Error {
	switch {
	case errors.Is(err, webhook.ErrMissingSignature):
		return xerrors.Unauthorized(xerrors.WithMessage("missing signature header"), xerrors.WithCause(err))
	case errors.Is(err, webhook.ErrInvalidSignature):
		return xerrors.Unauthorized(xerrors.WithMessage("invalid signature"), xerrors.WithCause(err))
	case errors.Is(err, webhook.ErrMalformedPayload):
		return xerrors.BadRequest(xerrors.WithMessage("malformed payload"), xerrors.WithCause(err))
	case errors.Is(err, secret.ErrResolve):
		return xerrors.Internal(xerrors.WithMessage("failed to resolve credentials"), xerrors.WithCause(err))
	default:
		return xerrors.Internal(xerrors.WithMessage("failed to process webhook"), xerrors.WithCause(err))
	}
}

package webhook

import (
	"context"
	"errors"

	"github.com/garrettladley/checkrun/internal/dispatch"
)

var (
	ErrMissingSignature = errors.New("missing signature header")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrMalformedPayload = errors.New("malformed webhook payload")
)

type ProcessRequest struct {
	// Body is the raw request body exactly as received.
	Body       []byte
	Signature  string
	Event      string
	DeliveryID string
}

type Service interface {
	// ProcessWebhook resolves credentials, verifies the signature over the
	// raw body and dispatches the delivery to its action handler.
	// Returns ErrMissingSignature if the signature header is empty.
	// Returns ErrInvalidSignature if the signature doesn't match.
	// Returns an error matching secret.ErrResolve if credentials are unavailable.
	// Returns ErrMalformedPayload if a verified body is not a JSON object.
	// Handler failures are reported in the Outcome, never as an error.
	ProcessWebhook(ctx context.Context, req ProcessRequest) (dispatch.Outcome, error)
}

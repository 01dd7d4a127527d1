package main

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	go_json "github.com/goccy/go-json"

	"github.com/garrettladley/checkrun/internal/server/handler"
	"github.com/garrettladley/checkrun/internal/service/webhook"
	"github.com/garrettladley/checkrun/internal/xhttp"
	"github.com/garrettladley/checkrun/internal/xslog"
)

type lambdaHandler struct {
	service webhook.Service
	logger  *slog.Logger
}

func newLambdaHandler(service webhook.Service, logger *slog.Logger) *lambdaHandler {
	return &lambdaHandler{service: service, logger: logger}
}

type responseBody struct {
	Event   string `json:"event,omitempty"`
	Action  string `json:"action,omitempty"`
	Status  string `json:"status,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// Handle adapts one API Gateway HTTP API (payload v2) event. Errors are
// always expressed as a status code so the gateway never sees a 502.
func (h *lambdaHandler) Handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	logger := h.logger
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		logger = logger.With(xslog.RequestID(lc.AwsRequestID))
	}
	ctx = xslog.WithLogger(ctx, logger)

	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			logger.WarnContext(ctx, "failed to decode base64 body", xslog.Error(err))
			return respond(http.StatusBadRequest, responseBody{Error: "bad_request", Message: "failed to decode request body"}), nil
		}
		body = decoded
	}

	headers := make(http.Header, len(req.Headers))
	for k, v := range req.Headers {
		headers.Set(k, v)
	}

	out, err := h.service.ProcessWebhook(ctx, webhook.ProcessRequest{
		Body:       body,
		Signature:  headers.Get(xhttp.XHubSignature256),
		Event:      headers.Get(xhttp.XGitHubEvent),
		DeliveryID: headers.Get(xhttp.XGitHubDelivery),
	})
	if err != nil {
		httpErr := handler.ToHTTPError(err)
		logger.WarnContext(ctx, "rejected webhook",
			xslog.HTTPStatus(httpErr.StatusCode),
			xslog.Error(err),
		)
		return respond(httpErr.StatusCode, responseBody{Error: httpErr.Code, Message: httpErr.Message}), nil
	}

	return respond(http.StatusOK, responseBody{
		Event:  out.Route.Event,
		Action: out.Route.Action,
		Status: string(out.Status),
	}), nil
}

func respond(status int, body responseBody) events.APIGatewayV2HTTPResponse {
	b, _ := go_json.Marshal(body)
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    map[string]string{xhttp.ContentType: xhttp.ApplicationJSON},
		Body:       string(b),
	}
}

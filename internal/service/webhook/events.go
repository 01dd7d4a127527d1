package webhook

import (
	"fmt"

	go_json "github.com/goccy/go-json"
)

// envelope holds the fields every delivery is routed on. Handlers decode the
// full event from the raw body themselves.
type envelope struct {
	Action string `json:"action"`
}

func parseEnvelope(body []byte) (envelope, error) {
	var env envelope
	if err := go_json.Unmarshal(body, &env); err != nil {
		return envelope{}, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	return env, nil
}

package xslog

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/garrettladley/checkrun/internal/version"
	"github.com/garrettladley/checkrun/internal/xhttp"
)

func Error(err error) slog.Attr {
	const errorKey = "error"
	return slog.String(errorKey, err.Error())
}

func RequestID(requestID string) slog.Attr {
	const requestIDKey = "request_id"
	return slog.String(requestIDKey, requestID)
}

func DeliveryID(deliveryID string) slog.Attr {
	const deliveryIDKey = "delivery_id"
	return slog.String(deliveryIDKey, deliveryID)
}

func Stack() slog.Attr {
	const stackKey = "stack"
	return slog.String(stackKey, string(debug.Stack()))
}

func HTTPStatus(status int) slog.Attr {
	const statusKey = "status"
	return slog.Int(statusKey, status)
}

func RateRemaining(remaining int) slog.Attr {
	const rateRemainingKey = "rate_remaining"
	return slog.Int(rateRemainingKey, remaining)
}

func Duration(duration time.Duration) slog.Attr {
	const durationKey = "duration"
	return slog.Duration(durationKey, duration)
}

func Method(method string) slog.Attr {
	const methodKey = "method"
	return slog.String(methodKey, method)
}

func Path(path string) slog.Attr {
	const pathKey = "path"
	return slog.String(pathKey, path)
}

func RequestMethod(r *http.Request) slog.Attr {
	return Method(r.Method)
}

func RequestPath(r *http.Request) slog.Attr {
	return Path(r.URL.Path)
}

func IP(ip string) slog.Attr {
	const ipKey = "ip"
	return slog.String(ipKey, ip)
}

func RequestIP(r *http.Request) slog.Attr {
	return IP(xhttp.GetRequestIP(r))
}

func Version() slog.Attr {
	const versionKey = "version"
	return slog.String(versionKey, version.Get())
}

func Event(event string) slog.Attr {
	const eventKey = "event"
	return slog.String(eventKey, event)
}

func Action(action string) slog.Attr {
	const actionKey = "action"
	return slog.String(actionKey, action)
}

func Outcome(outcome string) slog.Attr {
	const outcomeKey = "outcome"
	return slog.String(outcomeKey, outcome)
}

func InstallationID(id int64) slog.Attr {
	const installationIDKey = "installation_id"
	return slog.Int64(installationIDKey, id)
}

func CheckRunID(id int64) slog.Attr {
	const checkRunIDKey = "check_run_id"
	return slog.Int64(checkRunIDKey, id)
}

func HeadSHA(sha string) slog.Attr {
	const headSHAKey = "head_sha"
	return slog.String(headSHAKey, sha)
}

func SecretName(name string) slog.Attr {
	const secretNameKey = "secret_name"
	return slog.String(secretNameKey, name)
}

func Expiry(t time.Time) slog.Attr {
	const expiryKey = "expiry"
	return slog.Time(expiryKey, t)
}

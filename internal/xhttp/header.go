package xhttp

import (
	"net/http"
)

const (
	XForwardedFor    = "X-Forwarded-For"
	XContentTypeOpts = "X-Content-Type-Options"
	XFrameOpts       = "X-Frame-Options"
	XXSSProtection   = "X-Xss-Protection"
	ReferrerPolicy   = "Referrer-Policy"
	XRequestID       = "X-Request-ID"
)

const (
	ContentType   = "Content-Type"
	Accept        = "Accept"
	Authorization = "Authorization"
	UserAgent     = "User-Agent"
)

// GitHub webhook and REST headers.
const (
	XHubSignature256  = "X-Hub-Signature-256"
	XGitHubEvent      = "X-GitHub-Event"
	XGitHubDelivery   = "X-GitHub-Delivery"
	XGitHubAPIVersion = "X-GitHub-Api-Version"
)

const (
	ApplicationJSON       = "application/json"
	ApplicationGitHubJSON = "application/vnd.github+json"
)

func SetHeaderRequestID(w http.ResponseWriter, requestID string) {
	w.Header().Set(XRequestID, requestID)
}

func SetHeaderContentTypeApplicationJSON(w http.ResponseWriter) {
	w.Header().Set(ContentType, ApplicationJSON)
}

func SetRequestHeaderContentTypeApplicationJSON(r *http.Request) {
	r.Header.Set(ContentType, ApplicationJSON)
}

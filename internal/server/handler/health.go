package handler

import (
	"net/http"

	"github.com/garrettladley/checkrun/internal/version"
	"github.com/garrettladley/checkrun/internal/xhttp"
)

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// HandleHealth handles GET /health requests.
func HandleHealth(w http.ResponseWriter, _ *http.Request) {
	xhttp.WriteOK(w, healthResponse{Status: "ok", Version: version.Get()})
}

package server

import (
	"encoding/json"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/giftgraph/pkg/errors"
	"github.com/matzehuels/giftgraph/pkg/observability"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status code and a JSON body. Server-side
// failures are logged and reported to the HTTP hooks; their details are
// not sent to the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	body := errorBody{Code: errors.GetCode(err), Message: errors.UserMessage(err)}
	if body.Code == "" {
		body.Code = errors.ErrCodeInternal
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", chimiddleware.GetReqID(r.Context()),
			"err", err)
		observability.HTTP().OnError(r.Context(), r.Method, routePattern(r), err)
		if status == http.StatusInternalServerError {
			body.Message = "internal error"
		}
	}
	writeJSON(w, status, body)
}

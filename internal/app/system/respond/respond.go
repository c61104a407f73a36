// Package respond writes JSON responses and decodes JSON request bodies for
// the API handlers.
package respond

import (
	"net/http"

	"github.com/dalemusser/busybee/internal/app/system/apperr"
	"github.com/dalemusser/waffle/httputil"
	"go.uber.org/zap"
)

// maxBodyBytes caps request bodies; notes are the largest payloads.
const maxBodyBytes = 1 << 20

// SetLogger routes encoding failures that happen after the status line
// was sent to logger.
func SetLogger(logger *zap.Logger) {
	httputil.SetJSONLogger(encodeLog{logger})
}

type encodeLog struct{ l *zap.Logger }

func (e encodeLog) Error(msg string, _ ...any) { e.l.Error(msg) }

// JSON writes v with the given status. A nil v writes headers only.
func JSON(w http.ResponseWriter, status int, v any) {
	if v == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		return
	}
	httputil.WriteJSON(w, status, v)
}

// NoContent writes 204.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

type errorBody struct {
	Error string `json:"error"`
}

// Error maps err to a status and writes {"error": "..."}.
// Server errors are logged with the request path; their cause is not sent.
func Error(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError && log != nil {
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	JSON(w, status, errorBody{Error: apperr.PublicMessage(err)})
}

// Decode reads a JSON body into dst. Malformed or oversized bodies become
// validation errors carrying a message safe to show the client.
func Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := httputil.BindJSONAllowUnknown(r, dst); err != nil {
		return apperr.Validation("%s", err.Error())
	}
	return nil
}

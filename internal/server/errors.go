package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/KaramelBytes/salesprep-cli/internal/utils"
)

// ErrResponse is the JSON error body.
type ErrResponse struct {
	Status    int    `json:"status"`
	Title     string `json:"title"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Render implements render.Renderer.
func (e *ErrResponse) Render(_ http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.Status)
	return nil
}

// statusFor maps an upload or pipeline error to an HTTP status.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, utils.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	reqID := middleware.GetReqID(r.Context())
	fields := []zap.Field{
		zap.Int("status", status),
		zap.String("path", r.URL.Path),
		zap.String("request_id", reqID),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		s.log.Error("server: request failed", fields...)
	} else {
		s.log.Warn("server: request rejected", fields...)
	}
	_ = render.Render(w, r, &ErrResponse{
		Status:    status,
		Title:     http.StatusText(status),
		Detail:    err.Error(),
		RequestID: reqID,
	})
}

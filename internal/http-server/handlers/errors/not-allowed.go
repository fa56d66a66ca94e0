package errors

import (
	"invitetrack/lib/api/response"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
)

// NotAllowed answers every non-GET request; the api is read-only.
func NotAllowed(_ *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.Status(r, http.StatusMethodNotAllowed)
		render.JSON(w, r, response.Error("Method not allowed"))
	}
}

package user

import (
	"context"
	"invitetrack/entity"
	"invitetrack/lib/api/response"
	"invitetrack/lib/sl"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Core interface {
	UserStats(ctx context.Context, userId string) (*entity.LedgerEntry, error)
}

// Stats is the public projection of a ledger entry.
type Stats struct {
	UserId        string  `json:"userId"`
	Invites       int     `json:"invites"`
	Bonus         float64 `json:"bonus"`
	TotalEarnings float64 `json:"totalEarnings"`
}

func Get(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.user")

		userId := chi.URLParam(r, "userId")
		log := logger.With(
			mod,
			sl.User(userId),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if handler == nil {
			log.Error("ledger not available")
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("Service not available"))
			return
		}

		if userId == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("User id required"))
			return
		}

		entry, err := handler.UserStats(r.Context(), userId)
		if err != nil {
			log.Error("user stats", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Request failed"))
			return
		}
		if entry == nil {
			log.Debug("user not found")
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("User not found"))
			return
		}

		render.JSON(w, r, Stats{
			UserId:        entry.UserId,
			Invites:       entry.Invites,
			Bonus:         entry.Bonus,
			TotalEarnings: entry.Earnings(),
		})
	}
}

package route

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"meetupd/src-server/model"
	"meetupd/src-server/utils"
	"net/http"
	"strings"
	"time"
)

type UserCtxKeyType string

const (
	UserCtxKey   UserCtxKeyType = "user"
	UserIDHeader string         = "X-User-Id"
)

// The auth gateway in front of this service authenticates the request and
// injects the user id; this middleware resolves it to a row and refuses
// requests without one.
func AuthMiddleware(as *utils.AppState, next func(http.ResponseWriter, *http.Request)) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(UserIDHeader))
		if userID == "" {
			jsonError(w, http.StatusUnauthorized, "Missing authenticated user id")
			return
		}

		startTimer := time.Now()
		userModel := new(model.User)
		err := as.BunDB.
			NewSelect().
			Model(userModel).
			Where("id = ?", userID).
			Scan(r.Context())
		switch {
		case errors.Is(err, sql.ErrNoRows):
			jsonError(w, http.StatusUnauthorized, "Unknown user")
			return
		case err != nil:
			jsonError(w, http.StatusInternalServerError, "Can't resolve user")
			slog.Error("can't resolve user from DB", "error", err)
			return
		}
		utils.MetricSend(as.MetricChans.DatabaseRead, float64(time.Since(startTimer).Microseconds()))

		ctx := context.WithValue(r.Context(), UserCtxKey, userModel)
		next(w, r.WithContext(ctx))
	}
}

func jsonError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func jsonResp(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			slog.Error("can't encode response body", "error", err)
		}
	}
}

func userFromCtx(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	userModel, ok := r.Context().Value(UserCtxKey).(*model.User)
	if !ok {
		jsonError(w, http.StatusInternalServerError, "Can't get user from middleware")
		return nil, false
	}
	return userModel, true
}

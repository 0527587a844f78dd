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
	"strconv"
	"time"

	"github.com/google/uuid"
)

const pageSize = 10

type UserRespBody struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type BannerRespBody struct {
	ID   string `json:"id"`
	Path string `json:"path"`
	URL  string `json:"url"`
}

type OneMeetupRespBody struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Location        string          `json:"location"`
	StartsAtUnixUTC int64           `json:"startsAtUnixUTC"`
	Organizer       *UserRespBody   `json:"organizer,omitempty"`
	Banner          *BannerRespBody `json:"banner,omitempty"`
}

func meetupRespBody(m *model.Meetup) OneMeetupRespBody {
	resp := OneMeetupRespBody{
		ID:              m.ID,
		Title:           m.Title,
		Description:     m.Description,
		Location:        m.Location,
		StartsAtUnixUTC: m.StartsAtUnixUTC,
	}
	if m.Organizer != nil {
		resp.Organizer = &UserRespBody{ID: m.Organizer.ID, Name: m.Organizer.Name}
	}
	if m.Banner != nil {
		resp.Banner = &BannerRespBody{ID: m.Banner.ID, Path: m.Banner.Path, URL: m.Banner.URL}
	}
	return resp
}

// ?page=N, 1-based; anything unparseable falls back to the first page
func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// Accepts 2006-01-02 and RFC3339, then falls back to natural language
// ("tomorrow", "next friday") through the when parser.
func parseDateParam(as *utils.AppState, raw string) (time.Time, error) {
	loc := as.Config.GetLocation()
	if t, err := time.ParseInLocation("2006-01-02", raw, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.In(loc), nil
	}
	result, err := as.When.Parse(raw, time.Now().In(loc))
	if err != nil || result == nil {
		return time.Time{}, errors.New("unparseable date")
	}
	return result.Time.In(loc), nil
}

func Meetup(muxer *http.ServeMux, as *utils.AppState) {
	// all meetups happening on one calendar day, any organizer
	muxer.HandleFunc("GET /api/meetups", AuthMiddleware(as,
		func(w http.ResponseWriter, r *http.Request) {
			dateRaw := r.URL.Query().Get("date")
			if dateRaw == "" {
				jsonError(w, http.StatusBadRequest, "Invalid date")
				return
			}
			parsedDate, err := parseDateParam(as, dateRaw)
			if err != nil {
				jsonError(w, http.StatusBadRequest, "Invalid date")
				return
			}

			dayStart := time.Date(
				parsedDate.Year(), parsedDate.Month(), parsedDate.Day(),
				0, 0, 0, 0, as.Config.GetLocation())
			dayEnd := dayStart.AddDate(0, 0, 1)

			page := pageParam(r)
			meetupModels := make([]model.Meetup, 0)
			if err := as.BunDB.
				NewSelect().
				Model(&meetupModels).
				Where("starts_at >= ?", dayStart.Unix()).
				Where("starts_at < ?", dayEnd.Unix()).
				Relation("Organizer").
				Relation("Banner").
				Order("starts_at ASC").
				Limit(pageSize).
				Offset((page - 1) * pageSize).
				Scan(r.Context()); err != nil {
				jsonError(w, http.StatusInternalServerError, "Can't get meetups")
				slog.Error("can't get meetups by date", "error", err)
				return
			}

			respBody := make([]OneMeetupRespBody, 0, len(meetupModels))
			for i := range meetupModels {
				respBody = append(respBody, meetupRespBody(&meetupModels[i]))
			}
			jsonResp(w, http.StatusOK, respBody)
		}))

	// meetups the requester organizes, newest first
	muxer.HandleFunc("GET /api/organizing", AuthMiddleware(as,
		func(w http.ResponseWriter, r *http.Request) {
			userModel, ok := userFromCtx(w, r)
			if !ok {
				return
			}

			page := pageParam(r)
			meetupModels := make([]model.Meetup, 0)
			if err := as.BunDB.
				NewSelect().
				Model(&meetupModels).
				Where("organizer_id = ?", userModel.ID).
				Relation("Organizer").
				Relation("Banner").
				Order("starts_at DESC").
				Limit(pageSize).
				Offset((page - 1) * pageSize).
				Scan(r.Context()); err != nil {
				jsonError(w, http.StatusInternalServerError, "Can't get meetups")
				slog.Error("can't get organized meetups", "error", err)
				return
			}

			respBody := make([]OneMeetupRespBody, 0, len(meetupModels))
			for i := range meetupModels {
				respBody = append(respBody, meetupRespBody(&meetupModels[i]))
			}
			jsonResp(w, http.StatusOK, respBody)
		}))

	type CreateMeetupReqBody struct {
		Title           string `json:"title"`
		Description     string `json:"description"`
		Location        string `json:"location"`
		StartsAtUnixUTC int64  `json:"startsAtUnixUTC"`
		BannerID        string `json:"bannerId"`
	}

	// create a meetup; the requester becomes its organizer
	muxer.HandleFunc("POST /api/meetups", AuthMiddleware(as,
		func(w http.ResponseWriter, r *http.Request) {
			userModel, ok := userFromCtx(w, r)
			if !ok {
				return
			}

			var reqBody CreateMeetupReqBody
			if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
				jsonError(w, http.StatusBadRequest, "Invalid request body")
				return
			}

			newMeetup := model.Meetup{
				ID:              uuid.NewString(),
				Title:           reqBody.Title,
				Description:     reqBody.Description,
				Location:        reqBody.Location,
				StartsAtUnixUTC: reqBody.StartsAtUnixUTC,
				OrganizerID:     userModel.ID,
				BannerID:        reqBody.BannerID,
			}
			err := newMeetup.Insert(r.Context(), as.BunDB)
			switch {
			case errors.Is(err, model.ErrValidation):
				jsonError(w, http.StatusBadRequest, "Validation fails")
				return
			case errors.Is(err, model.ErrPastDate):
				jsonError(w, http.StatusBadRequest, "Past dates are not allowed")
				return
			case err != nil:
				jsonError(w, http.StatusInternalServerError, "Can't create meetup")
				slog.Error("can't create meetup", "error", err)
				return
			}

			newMeetup.Organizer = userModel
			jsonResp(w, http.StatusOK, meetupRespBody(&newMeetup))
		}))

	type PatchMeetupReqBody struct {
		Title           *string `json:"title"`
		Description     *string `json:"description"`
		Location        *string `json:"location"`
		StartsAtUnixUTC *int64  `json:"startsAtUnixUTC"`
		BannerID        *string `json:"bannerId"`
		OrganizerID     *string `json:"organizerId"`
	}

	// partial update, organizer only, upcoming meetups only
	muxer.HandleFunc("PUT /api/meetups/{id}", AuthMiddleware(as,
		func(w http.ResponseWriter, r *http.Request) {
			userModel, ok := userFromCtx(w, r)
			if !ok {
				return
			}

			var reqBody PatchMeetupReqBody
			if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
				jsonError(w, http.StatusBadRequest, "Invalid request body")
				return
			}

			meetupModel := new(model.Meetup)
			err := as.BunDB.
				NewSelect().
				Model(meetupModel).
				Where("id = ?", r.PathValue("id")).
				Scan(r.Context())
			switch {
			case errors.Is(err, sql.ErrNoRows):
				jsonError(w, http.StatusBadRequest, "Meetup not found")
				return
			case err != nil:
				jsonError(w, http.StatusInternalServerError, "Can't get meetup")
				slog.Error("can't get meetup", "error", err)
				return
			}

			switch {
			case meetupModel.OrganizerID != userModel.ID:
				jsonError(w, http.StatusUnauthorized, "Only the organizer can update the meetup")
				return
			case meetupModel.Elapsed():
				jsonError(w, http.StatusUnauthorized, "Can't update past meetups")
				return
			case reqBody.StartsAtUnixUTC != nil && *reqBody.StartsAtUnixUTC <= time.Now().UTC().Unix():
				jsonError(w, http.StatusUnauthorized, "Past dates are not allowed")
				return
			}

			if reqBody.OrganizerID != nil {
				exists, err := as.BunDB.
					NewSelect().
					Model((*model.User)(nil)).
					Where("id = ?", *reqBody.OrganizerID).
					Exists(r.Context())
				switch {
				case err != nil:
					jsonError(w, http.StatusInternalServerError, "Can't check user")
					slog.Error("can't check new organizer", "error", err)
					return
				case !exists:
					jsonError(w, http.StatusUnauthorized, "User not found")
					return
				}
				meetupModel.OrganizerID = *reqBody.OrganizerID
			}

			if reqBody.Title != nil {
				meetupModel.Title = *reqBody.Title
			}
			if reqBody.Description != nil {
				meetupModel.Description = *reqBody.Description
			}
			if reqBody.Location != nil {
				meetupModel.Location = *reqBody.Location
			}
			if reqBody.StartsAtUnixUTC != nil {
				meetupModel.StartsAtUnixUTC = *reqBody.StartsAtUnixUTC
			}
			if reqBody.BannerID != nil {
				meetupModel.BannerID = *reqBody.BannerID
			}

			startTimer := time.Now()
			err = meetupModel.Update(r.Context(), as.BunDB)
			switch {
			case errors.Is(err, model.ErrValidation):
				jsonError(w, http.StatusBadRequest, "Validation fails")
				return
			case err != nil:
				jsonError(w, http.StatusInternalServerError, "Can't update meetup")
				slog.Error("can't update meetup", "error", err)
				return
			}
			utils.MetricSend(as.MetricChans.DatabaseWrite, float64(time.Since(startTimer).Microseconds()))

			if err := as.BunDB.
				NewSelect().
				Model(meetupModel).
				Where("meetup.id = ?", meetupModel.ID).
				Relation("Organizer").
				Relation("Banner").
				Scan(r.Context()); err != nil {
				jsonError(w, http.StatusInternalServerError, "Can't get updated meetup")
				slog.Error("can't reload meetup", "error", err)
				return
			}
			jsonResp(w, http.StatusOK, meetupRespBody(meetupModel))
		}))

	// delete, organizer only, upcoming meetups only; subscriptions cascade
	muxer.HandleFunc("DELETE /api/meetups/{id}", AuthMiddleware(as,
		func(w http.ResponseWriter, r *http.Request) {
			userModel, ok := userFromCtx(w, r)
			if !ok {
				return
			}

			meetupModel := new(model.Meetup)
			err := as.BunDB.
				NewSelect().
				Model(meetupModel).
				Where("id = ?", r.PathValue("id")).
				Scan(r.Context())
			switch {
			case errors.Is(err, sql.ErrNoRows):
				jsonError(w, http.StatusBadRequest, "Meetup not found")
				return
			case err != nil:
				jsonError(w, http.StatusInternalServerError, "Can't get meetup")
				slog.Error("can't get meetup", "error", err)
				return
			}

			switch {
			case meetupModel.OrganizerID != userModel.ID:
				jsonError(w, http.StatusUnauthorized, "Only the organizer can delete the meetup")
				return
			case meetupModel.Elapsed():
				jsonError(w, http.StatusUnauthorized, "Can't delete past meetups")
				return
			}

			startTimer := time.Now()
			if _, err := as.BunDB.NewDelete().
				Model((*model.Meetup)(nil)).
				Where("id = ?", meetupModel.ID).
				Exec(context.WithValue(r.Context(), model.MeetupIDCtxKey, meetupModel.ID)); err != nil {
				jsonError(w, http.StatusInternalServerError, "Can't delete meetup")
				slog.Error("can't delete meetup", "error", err)
				return
			}
			utils.MetricSend(as.MetricChans.DatabaseWrite, float64(time.Since(startTimer).Microseconds()))

			jsonResp(w, http.StatusOK, nil)
		}))
}

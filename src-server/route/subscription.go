package route

import (
	"database/sql"
	"errors"
	"log/slog"
	"meetupd/src-server/model"
	"meetupd/src-server/queue"
	"meetupd/src-server/utils"
	"net/http"
	"time"
)

type OneSubscriptionRespBody struct {
	ID              string             `json:"id"`
	CreatedAtUnix   int64              `json:"createdAtUnix"`
	Meetup          *OneMeetupRespBody `json:"meetup,omitempty"`
	MeetupID        string             `json:"meetupId"`
	StartsAtUnixUTC int64              `json:"startsAtUnixUTC"`
}

func Subscription(muxer *http.ServeMux, as *utils.AppState) {
	// subscribe the requester to a meetup; a confirmation mail job is
	// enqueued after the subscription commits, and an enqueue failure
	// never undoes the subscription
	muxer.HandleFunc("POST /api/meetups/{id}/subscriptions", AuthMiddleware(as,
		func(w http.ResponseWriter, r *http.Request) {
			userModel, ok := userFromCtx(w, r)
			if !ok {
				return
			}

			startTimer := time.Now()
			subscriptionModel, err := model.TryAdmit(r.Context(), as.BunDB, userModel.ID, r.PathValue("id"))
			switch {
			case errors.Is(err, model.ErrMeetupNotFound):
				jsonError(w, http.StatusBadRequest, "Meetup not found")
				return
			case errors.Is(err, model.ErrSelfSubscription):
				jsonError(w, http.StatusUnauthorized, "Can't subscribe to a meetup you organize")
				return
			case errors.Is(err, model.ErrMeetupElapsed):
				jsonError(w, http.StatusUnauthorized, "Can't subscribe to past meetups")
				return
			case errors.Is(err, model.ErrAlreadySubscribed):
				jsonError(w, http.StatusUnauthorized, "Can't subscribe twice to the same meetup")
				return
			case errors.Is(err, model.ErrTimeConflict):
				jsonError(w, http.StatusUnauthorized, "Can't subscribe to two meetups at the same hour")
				return
			case err != nil:
				jsonError(w, http.StatusInternalServerError, "Can't subscribe")
				slog.Error("can't subscribe", "error", err)
				return
			}
			utils.MetricSend(as.MetricChans.DatabaseWrite, float64(time.Since(startTimer).Microseconds()))

			// snapshot for the mail worker
			meetupModel := new(model.Meetup)
			if err := as.BunDB.
				NewSelect().
				Model(meetupModel).
				Where("meetup.id = ?", subscriptionModel.MeetupID).
				Relation("Organizer").
				Scan(r.Context()); err != nil {
				slog.Error("can't load meetup for mail job", "error", err, "meetup", subscriptionModel.MeetupID)
			} else if meetupModel.Organizer == nil {
				slog.Error("meetup has no organizer row, mail job skipped", "meetup", subscriptionModel.MeetupID)
			} else {
				job := queue.SubscriptionMailJob{
					Kind: queue.SubscriptionMailKind,
					Meetup: queue.MeetupSnapshot{
						ID:              meetupModel.ID,
						Title:           meetupModel.Title,
						Description:     meetupModel.Description,
						Location:        meetupModel.Location,
						StartsAtUnixUTC: meetupModel.StartsAtUnixUTC,
						Organizer: queue.UserSummary{
							ID:    meetupModel.Organizer.ID,
							Name:  meetupModel.Organizer.Name,
							Email: meetupModel.Organizer.Email,
						},
					},
					Subscriber: queue.UserSummary{
						ID:    userModel.ID,
						Name:  userModel.Name,
						Email: userModel.Email,
					},
				}
				if err := queue.Enqueue(r.Context(), as.Redis, job); err != nil {
					slog.Error("can't enqueue subscription mail", "error", err, "subscription", subscriptionModel.ID)
				}
			}

			jsonResp(w, http.StatusOK, OneSubscriptionRespBody{
				ID:              subscriptionModel.ID,
				CreatedAtUnix:   subscriptionModel.CreatedAt,
				MeetupID:        subscriptionModel.MeetupID,
				StartsAtUnixUTC: subscriptionModel.StartsAtUnixUTC,
			})
		}))

	// the requester's subscriptions to upcoming meetups, soonest first
	muxer.HandleFunc("GET /api/subscriptions", AuthMiddleware(as,
		func(w http.ResponseWriter, r *http.Request) {
			userModel, ok := userFromCtx(w, r)
			if !ok {
				return
			}

			subscriptionModels := make([]model.Subscription, 0)
			if err := as.BunDB.
				NewSelect().
				Model(&subscriptionModels).
				Where("subscription.user_id = ?", userModel.ID).
				Where("subscription.starts_at > ?", time.Now().UTC().Unix()).
				Relation("Meetup").
				Relation("Meetup.Organizer").
				Relation("Meetup.Banner").
				Order("subscription.starts_at ASC").
				Scan(r.Context()); err != nil && !errors.Is(err, sql.ErrNoRows) {
				jsonError(w, http.StatusInternalServerError, "Can't get subscriptions")
				slog.Error("can't get subscriptions", "error", err)
				return
			}

			respBody := make([]OneSubscriptionRespBody, 0, len(subscriptionModels))
			for _, subscriptionModel := range subscriptionModels {
				one := OneSubscriptionRespBody{
					ID:              subscriptionModel.ID,
					CreatedAtUnix:   subscriptionModel.CreatedAt,
					MeetupID:        subscriptionModel.MeetupID,
					StartsAtUnixUTC: subscriptionModel.StartsAtUnixUTC,
				}
				if subscriptionModel.Meetup != nil {
					meetupResp := meetupRespBody(subscriptionModel.Meetup)
					one.Meetup = &meetupResp
				}
				respBody = append(respBody, one)
			}
			jsonResp(w, http.StatusOK, respBody)
		}))
}

package scheduler

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"meetupd/src-server/queue"
	"meetupd/src-server/utils"
	"net/smtp"
	"text/template"
	"time"

	"github.com/domodwyer/mailyak/v3"
)

var ptMonths = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// "dia 02 de janeiro, às 15:04h"
func FormatMeetupDate(t time.Time) string {
	return fmt.Sprintf("dia %02d de %s, às %d:%02dh", t.Day(), ptMonths[t.Month()-1], t.Hour(), t.Minute())
}

var mailTemplate = template.Must(template.New("subscription").Parse(
	`Olá, {{.User}}!

{{.Organizer}} confirmou sua inscrição no meetup {{.Meetup.Title}}.

Local: {{.Meetup.Location}}
Quando: {{.FormattedDate}}
`))

func RenderMailBody(job *queue.SubscriptionMailJob, loc *time.Location) (string, error) {
	startsAt := time.Unix(job.Meetup.StartsAtUnixUTC, 0).In(loc)
	var body bytes.Buffer
	if err := mailTemplate.Execute(&body, map[string]any{
		"Organizer":     utils.CleanupName(job.Meetup.Organizer.Name),
		"Meetup":        job.Meetup,
		"User":          utils.CleanupName(job.Subscriber.Name),
		"FormattedDate": FormatMeetupDate(startsAt),
	}); err != nil {
		return "", fmt.Errorf("RenderMailBody: %w", err)
	}
	return body.String(), nil
}

// SubscriptionMail drains the mail queue and delivers confirmation emails.
// Failures stay on this side of the queue: the job is retried a few times,
// then parked on the dead-letter list. The request that created the
// subscription never hears about any of it.
func SubscriptionMail(as *utils.AppState) {
	gracefulShutdownCh := as.CreateGracefulShutdownChan()
	for {
		select {
		case <-*gracefulShutdownCh:
			return
		default:
		}

		job, err := queue.Dequeue(context.Background(), as.Redis, 5*time.Second)
		if err != nil {
			slog.Error("SubscriptionMail: can't dequeue", "error", err)
			time.Sleep(5 * time.Second)
			continue
		}
		if job == nil {
			continue
		}
		if job.Kind != queue.SubscriptionMailKind {
			slog.Warn("SubscriptionMail: unknown job kind", "kind", job.Kind)
			continue
		}

		startTimer := time.Now()
		if err := send(as, job); err != nil {
			slog.Error("SubscriptionMail: can't send mail",
				"error", err, "to", job.Subscriber.Email, "attempts", job.Attempts)
			if err := queue.Retry(context.Background(), as.Redis, *job); err != nil {
				slog.Error("SubscriptionMail: can't requeue job", "error", err)
			}
			continue
		}
		utils.MetricSend(as.MetricChans.MailSend, float64(time.Since(startTimer).Microseconds()))
		slog.Info("subscription mail sent", "to", job.Subscriber.Email, "meetup", job.Meetup.ID)
	}
}

func send(as *utils.AppState, job *queue.SubscriptionMailJob) error {
	body, err := RenderMailBody(job, as.Config.GetLocation())
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if as.Config.GetSMTPUser() != "" {
		auth = smtp.PlainAuth("", as.Config.GetSMTPUser(), as.Config.GetSMTPPass(), as.Config.GetSMTPHost())
	}
	mail := mailyak.New(as.Config.GetSMTPHost()+":"+as.Config.GetSMTPPort(), auth)
	mail.From(as.Config.GetMailFrom())
	mail.To(job.Subscriber.Email)
	mail.Subject("Nova inscrição de meetup")
	mail.Plain().Set(body)

	if err := mail.Send(); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	return nil
}

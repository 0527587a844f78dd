package model

import (
	"errors"
	"strings"
)

// Every failure the model layer surfaces maps to exactly one of these.
var (
	ErrValidation        = errors.New("validation fails")
	ErrMeetupNotFound    = errors.New("meetup not found")
	ErrPastDate          = errors.New("past dates are not allowed")
	ErrMeetupElapsed     = errors.New("meetup already happened")
	ErrSelfSubscription  = errors.New("can't subscribe to a meetup you organize")
	ErrAlreadySubscribed = errors.New("can't subscribe twice to the same meetup")
	ErrTimeConflict      = errors.New("can't subscribe to two meetups at the same hour")
)

// Two concurrent subscribe calls can both pass the pre-checks; the unique
// indexes on subscriptions then reject the loser, and this turns that
// driver error back into the admission error the caller expects.
func admissionErrFromDB(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "subscriptions.user_id, subscriptions.meetup_id"):
		return ErrAlreadySubscribed
	case strings.Contains(msg, "subscriptions.user_id, subscriptions.starts_at"):
		return ErrTimeConflict
	}
	return err
}

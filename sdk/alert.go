package sdk

import (
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultAlertTTL is how long an alert stays visible when no TTL is
	// given.
	DefaultAlertTTL = 3 * time.Second
	// AlertSticky keeps an alert visible until it is replaced or cleared.
	AlertSticky time.Duration = -1
)

// SetAlert publishes an alert and, unless it is sticky, schedules its
// retraction. A zero ttl selects DefaultAlertTTL.
//
// Each publication gets its own identity, and a retraction only clears the
// alert it was scheduled for. Replacing an alert does not cancel the old
// retraction timer; the stale timer fires, finds a different alert current,
// and does nothing.
func (s *Store) SetAlert(alert *AlertData, ttl time.Duration) {
	if alert != nil {
		published := *alert
		published.ID = uuid.NewString()
		alert = &published
	}
	s.Dispatch(SetAlertAction{Alert: alert})

	if alert == nil || ttl == AlertSticky {
		return
	}
	if ttl <= 0 {
		ttl = DefaultAlertTTL
	}
	id := alert.ID
	time.AfterFunc(ttl, func() {
		s.retractAlert(id)
	})
}

// ClearAlert removes the visible alert, if any.
func (s *Store) ClearAlert() {
	s.Dispatch(SetAlertAction{Alert: nil})
}

// retractAlert clears the alert only if it is still the identified one.
func (s *Store) retractAlert(id string) {
	_ = s.dispatch.run(func() {
		if s.state.Alert == nil || s.state.Alert.ID != id {
			return
		}
		s.apply(SetAlertAction{Alert: nil})
	})
}

// Package notify is the outbound notification seam. The service depends on
// the Mailer interface only; delivery transport is an integration concern
// wired at startup.
package notify

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// Mailer delivers transactional mail.
type Mailer interface {
	// SendOTP delivers a one-time verification code to the address.
	SendOTP(ctx context.Context, email, code string) error
	// SendWelcome delivers the post-verification welcome mail.
	SendWelcome(ctx context.Context, email, name string) error
}

// LogMailer logs instead of sending. Default when no mail transport is
// configured; the code is logged so local flows stay testable end to end.
type LogMailer struct{}

// SendOTP logs the code.
func (LogMailer) SendOTP(_ context.Context, email, code string) error {
	log.WithFields(log.Fields{"email": email, "code": code}).Info("notify: otp mail (log only)")
	return nil
}

// SendWelcome logs the event.
func (LogMailer) SendWelcome(_ context.Context, email, name string) error {
	log.WithFields(log.Fields{"email": email, "name": name}).Info("notify: welcome mail (log only)")
	return nil
}

// Package otpauth implements email verification with time-based one-time
// codes. Codes are derived from a per-user secret and never stored; only
// resend locks and attempt counters live in the external TTL store.
package otpauth

import (
	"context"
	"errors"
	"time"

	"github.com/Vrisan-Services/B2b-Server/internal/entitlement"
	"github.com/Vrisan-Services/B2b-Server/internal/models"
	"github.com/Vrisan-Services/B2b-Server/internal/notify"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	// codePeriod is the code lifetime.
	codePeriod = 10 * time.Minute
	// maxAttempts caps verification tries per code lifetime.
	maxAttempts = 5
	issuer      = "B2B Server"
)

var (
	// ErrInvalidCode indicates the submitted code did not match.
	ErrInvalidCode = errors.New("invalid verification code")
	// ErrTooManyAttempts indicates the attempt cap was hit for the current code.
	ErrTooManyAttempts = errors.New("too many verification attempts")
)

var validateOpts = totp.ValidateOpts{
	Period: uint(codePeriod / time.Second),
	Skew:   1,
	Digits: otp.DigitsSix,
}

// Service issues and verifies email verification codes.
type Service struct {
	db       *gorm.DB
	attempts AttemptStore
	mailer   notify.Mailer
	now      func() time.Time
}

// NewService constructs an otpauth Service.
func NewService(conn *gorm.DB, attempts AttemptStore, mailer notify.Mailer) *Service {
	if attempts == nil {
		attempts = NewMemoryAttemptStore()
	}
	if mailer == nil {
		mailer = notify.LogMailer{}
	}
	return &Service{db: conn, attempts: attempts, mailer: mailer, now: time.Now}
}

// WithClock overrides the clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Send issues a fresh code to the account's email. A secret is provisioned
// on first use and reused afterwards; resend throttling is enforced by the
// caller.
func (s *Service) Send(ctx context.Context, email string) error {
	user, errFind := s.findByEmail(ctx, email)
	if errFind != nil {
		return errFind
	}

	if user.OTPSecret == "" {
		key, errGen := totp.Generate(totp.GenerateOpts{
			Issuer:      issuer,
			AccountName: user.Email,
			Period:      validateOpts.Period,
		})
		if errGen != nil {
			return entitlement.Upstreamf("generate otp secret", errGen)
		}
		user.OTPSecret = key.Secret()
		if errSave := s.db.WithContext(ctx).Model(&models.User{}).
			Where("id = ?", user.ID).
			Update("otp_secret", user.OTPSecret).Error; errSave != nil {
			return entitlement.Upstreamf("store otp secret", errSave)
		}
	}

	code, errCode := totp.GenerateCodeCustom(user.OTPSecret, s.now().UTC(), validateOpts)
	if errCode != nil {
		return entitlement.Upstreamf("generate otp code", errCode)
	}
	if errClear := s.attempts.Clear(ctx, user.Email); errClear != nil {
		log.WithError(errClear).Warn("otpauth: clear attempt counter failed")
	}
	if errSend := s.mailer.SendOTP(ctx, user.Email, code); errSend != nil {
		return entitlement.Upstreamf("send otp mail", errSend)
	}
	return nil
}

// Verify checks a submitted code and marks the email verified on success.
func (s *Service) Verify(ctx context.Context, email, code string) error {
	user, errFind := s.findByEmail(ctx, email)
	if errFind != nil {
		return errFind
	}
	if user.OTPSecret == "" {
		return ErrInvalidCode
	}

	count, errIncr := s.attempts.Incr(ctx, user.Email, codePeriod)
	if errIncr != nil {
		return entitlement.Upstreamf("track otp attempts", errIncr)
	}
	if count > maxAttempts {
		return ErrTooManyAttempts
	}

	ok, errValidate := totp.ValidateCustom(code, user.OTPSecret, s.now().UTC(), validateOpts)
	if errValidate != nil {
		return entitlement.Upstreamf("validate otp code", errValidate)
	}
	if !ok {
		return ErrInvalidCode
	}

	if errUpdate := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", user.ID).
		Update("email_verified", true).Error; errUpdate != nil {
		return entitlement.Upstreamf("mark email verified", errUpdate)
	}
	if errClear := s.attempts.Clear(ctx, user.Email); errClear != nil {
		log.WithError(errClear).Warn("otpauth: clear attempt counter failed")
	}
	if errWelcome := s.mailer.SendWelcome(ctx, user.Email, user.ContactPerson); errWelcome != nil {
		log.WithError(errWelcome).Warn("otpauth: welcome mail failed")
	}
	return nil
}

func (s *Service) findByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if errFind := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, entitlement.ErrAccountNotFound
		}
		return nil, entitlement.Upstreamf("find user", errFind)
	}
	return &user, nil
}

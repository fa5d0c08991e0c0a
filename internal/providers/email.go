package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"

	"varta/server/internal/config"
)

var ErrEmailNotConfigured = errors.New("email provider is not configured")

// EmailSender delivers one-time passcodes over email.
type EmailSender interface {
	SendOtp(ctx context.Context, email, otp string) error
}

// SMTPSender sends OTP mail through an SMTP relay (Gmail by default).
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	if cfg.Username == "" || cfg.Password == "" {
		return &SMTPSender{}
	}
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   fmt.Sprintf("Varta <%s>", cfg.From),
	}
}

func (s *SMTPSender) SendOtp(ctx context.Context, email, otp string) error {
	if s == nil || s.dialer == nil {
		return ErrEmailNotConfigured
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Your OTP Code")
	m.SetBody("text/plain", fmt.Sprintf("Your OTP is %s", otp))
	m.AddAlternative("text/html", fmt.Sprintf(
		"<p>Hello %s!</p><p><b>Welcome Onboard to Varta</b></p><p>Your OTP is <b>%s</b>. It will expire in 5 minutes.</p>",
		email, otp))

	if err := s.dialer.DialAndSend(m); err != nil {
		log.Error().Err(err).Str("email", email).Msg("failed to send OTP email")
		return fmt.Errorf("send otp email: %w", err)
	}
	log.Info().Str("email", email).Msg("OTP email sent")
	return nil
}

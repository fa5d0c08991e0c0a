package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/twilio/twilio-go"
	verify "github.com/twilio/twilio-go/rest/verify/v2"

	"varta/server/internal/config"
)

var ErrSmsNotConfigured = errors.New("sms provider is not configured")

// PhoneVerifier issues and checks phone passcodes. The provider owns the code:
// the check compares against what the provider sent, not a locally stored value.
type PhoneVerifier interface {
	StartVerification(ctx context.Context, phoneNumber string) error
	CheckVerification(ctx context.Context, phoneNumber, code string) (bool, error)
}

// TwilioVerifier drives the Twilio Verify API.
type TwilioVerifier struct {
	client     *twilio.RestClient
	serviceSID string
}

func NewTwilioVerifier(cfg config.TwilioConfig) *TwilioVerifier {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.VerifyServiceSID == "" {
		return &TwilioVerifier{}
	}
	return &TwilioVerifier{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.AccountSID,
			Password: cfg.AuthToken,
		}),
		serviceSID: cfg.VerifyServiceSID,
	}
}

func (t *TwilioVerifier) StartVerification(ctx context.Context, phoneNumber string) error {
	if t == nil || t.client == nil {
		return ErrSmsNotConfigured
	}

	params := &verify.CreateVerificationParams{}
	params.SetTo(phoneNumber)
	params.SetChannel("sms")

	if _, err := t.client.VerifyV2.CreateVerification(t.serviceSID, params); err != nil {
		log.Error().Err(err).Str("phone", phoneNumber).Msg("failed to start phone verification")
		return fmt.Errorf("start verification: %w", err)
	}
	log.Info().Str("phone", phoneNumber).Msg("verification SMS sent")
	return nil
}

func (t *TwilioVerifier) CheckVerification(ctx context.Context, phoneNumber, code string) (bool, error) {
	if t == nil || t.client == nil {
		return false, ErrSmsNotConfigured
	}

	params := &verify.CreateVerificationCheckParams{}
	params.SetTo(phoneNumber)
	params.SetCode(code)

	check, err := t.client.VerifyV2.CreateVerificationCheck(t.serviceSID, params)
	if err != nil {
		log.Error().Err(err).Str("phone", phoneNumber).Msg("failed to check phone verification")
		return false, fmt.Errorf("check verification: %w", err)
	}
	return check.Status != nil && *check.Status == "approved", nil
}

package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"varta/server/internal/config"
	"varta/server/internal/models"
	"varta/server/internal/providers"
	"varta/server/internal/services"
	"varta/server/internal/utils"
)

type AuthHandler struct {
	users     services.UserService
	email     providers.EmailSender
	phone     providers.PhoneVerifier
	media     providers.MediaUploader
	jwtSecret []byte
}

func NewAuthHandler(users services.UserService, email providers.EmailSender, phone providers.PhoneVerifier, media providers.MediaUploader, jwtSecret []byte) *AuthHandler {
	return &AuthHandler{
		users:     users,
		email:     email,
		phone:     phone,
		media:     media,
		jwtSecret: jwtSecret,
	}
}

type otpRequest struct {
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	PhoneSuffix string `json:"phoneSuffix"`
	Otp         string `json:"otp"`
}

func (req otpRequest) fullPhoneNumber() string {
	return "+" + req.PhoneSuffix + req.PhoneNumber
}

// SendOtp issues a passcode for an email or phone identity, creating the user
// row if needed. Exactly one provider call goes out per issuance; a provider
// failure surfaces as a 500 for this request, there is no retry.
func (h *AuthHandler) SendOtp(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx := r.Context()
	otp, err := utils.GenerateOtp()
	if err != nil {
		respondError(w, err)
		return
	}
	otpExpiry := time.Now().Add(config.OtpTTL)

	if req.Email != "" {
		user, err := h.users.UpsertOtpByEmail(ctx, req.Email, otp, otpExpiry)
		if err != nil {
			respondError(w, err)
			return
		}
		if err := h.email.SendOtp(ctx, req.Email, otp); err != nil {
			respondError(w, err)
			return
		}
		log.Info().Int("user_id", user.ID).Msg("OTP issued for email identity")
		writeJSON(w, http.StatusOK, map[string]string{"message": "OTP sent to email", "email": req.Email})
		return
	}

	if req.PhoneNumber == "" || req.PhoneSuffix == "" {
		writeMessage(w, http.StatusBadRequest, "Phone Number and Country Code are required")
		return
	}

	fullPhoneNumber := req.fullPhoneNumber()
	// The row still records the locally generated passcode even though the
	// verification provider issues its own; phone checks never read it.
	user, err := h.users.UpsertOtpByPhone(ctx, fullPhoneNumber, otp, otpExpiry)
	if err != nil {
		respondError(w, err)
		return
	}
	if err := h.phone.StartVerification(ctx, fullPhoneNumber); err != nil {
		respondError(w, err)
		return
	}
	log.Info().Int("user_id", user.ID).Msg("OTP issued for phone identity")
	writeJSON(w, http.StatusOK, map[string]string{"message": "OTP sent to phone", "phoneNumber": fullPhoneNumber})
}

// VerifyOtp checks the submitted passcode and mints a session token. The email
// path compares the stored code locally; the phone path delegates the check to
// the verification provider.
func (h *AuthHandler) VerifyOtp(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Otp == "" {
		writeMessage(w, http.StatusBadRequest, "otp is required")
		return
	}

	ctx := r.Context()
	var user *models.User

	if req.Email != "" {
		found, err := h.users.GetUserByEmail(ctx, req.Email)
		if err != nil {
			respondError(w, err)
			return
		}
		if found.Otp == nil || *found.Otp != req.Otp ||
			found.OtpExpiry == nil || time.Now().After(*found.OtpExpiry) {
			respondError(w, models.ErrInvalidOtp)
			return
		}
		user = found
	} else {
		if req.PhoneNumber == "" || req.PhoneSuffix == "" {
			writeMessage(w, http.StatusBadRequest, "Phone number and Country code is required")
			return
		}
		found, err := h.users.GetUserByPhone(ctx, req.fullPhoneNumber())
		if err != nil {
			respondError(w, err)
			return
		}
		approved, err := h.phone.CheckVerification(ctx, req.fullPhoneNumber(), req.Otp)
		if err != nil {
			respondError(w, err)
			return
		}
		if !approved {
			respondError(w, models.ErrInvalidOtp)
			return
		}
		user = found
	}

	if err := h.users.MarkVerified(ctx, user.ID); err != nil {
		respondError(w, err)
		return
	}

	token, err := utils.GenerateToken(user.ID, h.jwtSecret, config.TokenTTL)
	if err != nil {
		log.Error().Err(err).Int("user_id", user.ID).Msg("error creating session token")
		respondError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		MaxAge:   int(config.TokenTTL / time.Second),
	})
	log.Info().Int("user_id", user.ID).Msg("OTP verified, session issued")
	writeJSON(w, http.StatusOK, map[string]string{"message": "OTP verification success", "token": token})
}

// Logout clears the session cookie and marks the caller offline.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if userID, ok := userIDFrom(r); ok {
		_ = h.users.SetPresence(r.Context(), userID, false)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	writeMessage(w, http.StatusOK, "Logged out successfully")
}

package models

import "errors"

var (
	ErrValidation           = errors.New("invalid request")
	ErrUserNotFound         = errors.New("user not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrStatusNotFound       = errors.New("status not found or expired")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalidOtp           = errors.New("invalid or expired OTP")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrUploadFailed         = errors.New("failed to upload media")
)

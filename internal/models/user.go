package models

import (
	"time"
)

type User struct {
	ID            int        `json:"id" db:"id"`
	Email         *string    `json:"email,omitempty" db:"email"`
	PhoneNumber   *string    `json:"phoneNumber,omitempty" db:"phone_number"`
	Username      string     `json:"username" db:"username"`
	About         string     `json:"about" db:"about"`
	ProfilePic    string     `json:"profilePic" db:"profile_pic"`
	Otp           *string    `json:"-" db:"otp"`
	OtpExpiry     *time.Time `json:"-" db:"otp_expiry"`
	IsVerified    bool       `json:"isVerified" db:"is_verified"`
	AgreedToTerms bool       `json:"agreedToTerms" db:"agreed_to_terms"`
	LastSeen      *time.Time `json:"lastSeen,omitempty" db:"last_seen"`
	IsOnline      bool       `json:"isOnline" db:"is_online"`
	CreatedAt     time.Time  `json:"createdAt" db:"created_at"`
}

// UserSummary is the projection embedded in messages, statuses and view receipts.
type UserSummary struct {
	ID         int    `json:"id" db:"id"`
	Username   string `json:"username" db:"username"`
	ProfilePic string `json:"profilePic" db:"profile_pic"`
}

// Profile is the fixed projection returned by viewProfile. OTP fields never leave the store.
type Profile struct {
	ID          int     `json:"id"`
	Username    string  `json:"username"`
	Email       *string `json:"email"`
	PhoneNumber *string `json:"phoneNumber"`
	ProfilePic  string  `json:"profilePic"`
	About       string  `json:"about"`
}

// ProfileUpdate carries the partial-update fields of updateProfile; nil means "leave as is".
type ProfileUpdate struct {
	Username      *string
	About         *string
	AgreedToTerms *bool
	ProfilePic    *string
}

// UserWithConversation is one row of the user listing: another user plus the
// summary of the 1:1 conversation they share with the caller, if any.
type UserWithConversation struct {
	ID           int                  `json:"id"`
	Username     string               `json:"username"`
	ProfilePic   string               `json:"profilePic"`
	About        string               `json:"about"`
	LastSeen     *time.Time           `json:"lastSeen,omitempty"`
	IsOnline     bool                 `json:"isOnline"`
	Conversation *ConversationSummary `json:"conversation,omitempty"`
}

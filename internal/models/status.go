package models

import (
	"time"
)

// StatusTTL is how long a status stays visible after creation.
const StatusTTL = 24 * time.Hour

type UserStatus struct {
	ID          int          `json:"id" db:"id"`
	UserID      int          `json:"userId" db:"user_id"`
	Content     *string      `json:"content,omitempty" db:"content"`
	ContentType ContentType  `json:"contentType" db:"content_type"`
	MediaURL    *string      `json:"mediaUrl,omitempty" db:"media_url"`
	ExpiresAt   time.Time    `json:"expiresAt" db:"expires_at"`
	CreatedAt   time.Time    `json:"createdAt" db:"created_at"`
	User        *UserSummary `json:"user,omitempty"`
	Views       []StatusView `json:"views"`
}

// StatusView is a per-viewer receipt, unique per (status, viewer) pair.
type StatusView struct {
	ID       int          `json:"id" db:"id"`
	StatusID int          `json:"statusId" db:"status_id"`
	ViewerID int          `json:"viewerId" db:"viewer_id"`
	ViewedAt time.Time    `json:"viewedAt" db:"viewed_at"`
	Viewer   *UserSummary `json:"viewer,omitempty"`
}

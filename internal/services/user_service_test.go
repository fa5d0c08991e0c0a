package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"varta/server/internal/models"
)

func newUserRows() *sqlmock.Rows {
	return sqlmock.NewRows(userColumns)
}

func TestUpsertOtpByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expiry := time.Now().Add(5 * time.Minute)
	mock.ExpectQuery("INSERT INTO users").
		WithArgs("jay@example.com", "123456", expiry).
		WillReturnRows(newUserRows().AddRow(
			1, "jay@example.com", nil, "", "", "",
			"123456", expiry, false, false,
			nil, false, time.Now(),
		))

	svc := NewUserService(db)
	user, err := svc.UpsertOtpByEmail(context.Background(), "jay@example.com", "123456", expiry)
	require.NoError(t, err)

	assert.Equal(t, 1, user.ID)
	require.NotNil(t, user.Email)
	assert.Equal(t, "jay@example.com", *user.Email)
	require.NotNil(t, user.Otp)
	assert.Equal(t, "123456", *user.Otp)
	assert.False(t, user.IsVerified)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertOtpByPhoneKeepsExistingRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expiry := time.Now().Add(5 * time.Minute)
	mock.ExpectQuery("INSERT INTO users").
		WithArgs("+15551234567", "654321", expiry).
		WillReturnRows(newUserRows().AddRow(
			3, nil, "+15551234567", "jay", "", "",
			"654321", expiry, true, true,
			nil, false, time.Now(),
		))

	svc := NewUserService(db)
	user, err := svc.UpsertOtpByPhone(context.Background(), "+15551234567", "654321", expiry)
	require.NoError(t, err)

	// A repeat request refreshes the passcode without resetting verification.
	assert.Equal(t, 3, user.ID)
	assert.True(t, user.IsVerified)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByEmailNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT .+ FROM users").
		WithArgs("nobody@example.com").
		WillReturnRows(newUserRows())

	svc := NewUserService(db)
	_, err = svc.GetUserByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, models.ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkVerifiedClearsOtp(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE users SET").
		WithArgs(nil, nil, true, 5).
		WillReturnResult(sqlmock.NewResult(0, 1))

	svc := NewUserService(db)
	err = svc.MarkVerified(context.Background(), 5)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkVerifiedUnknownUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE users SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	svc := NewUserService(db)
	err = svc.MarkVerified(context.Background(), 404)
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestUpdateProfileNoFieldsFallsBackToFetch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT .+ FROM users").
		WithArgs(5).
		WillReturnRows(newUserRows().AddRow(
			5, "jay@example.com", nil, "jay", "hey there", "",
			nil, nil, true, true,
			nil, true, time.Now(),
		))

	svc := NewUserService(db)
	user, err := svc.UpdateProfile(context.Background(), 5, models.ProfileUpdate{})
	require.NoError(t, err)
	assert.Equal(t, 5, user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfileSetsFields(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	username := "jaydeep"
	about := "busy"
	mock.ExpectQuery("UPDATE users SET").
		WillReturnRows(newUserRows().AddRow(
			5, "jay@example.com", nil, username, about, "",
			nil, nil, true, true,
			nil, true, time.Now(),
		))

	svc := NewUserService(db)
	user, err := svc.UpdateProfile(context.Background(), 5, models.ProfileUpdate{
		Username: &username,
		About:    &about,
	})
	require.NoError(t, err)
	assert.Equal(t, "jaydeep", user.Username)
	assert.Equal(t, "busy", user.About)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListUsersWithConversations(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("SELECT id, username, profile_pic, about, last_seen, is_online FROM users").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "profile_pic", "about", "last_seen", "is_online"}).
			AddRow(2, "asha", "", "", now, true).
			AddRow(3, "ravi", "", "", now, false))

	lastContent := "see you"
	mock.ExpectQuery("SELECT c.id, cp_peer.user_id").
		WithArgs(1, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "peer_id", "unread_count", "content", "content_type", "created_at"}).
			AddRow(10, 2, 3, lastContent, "TEXT", now))

	svc := NewUserService(db)
	users, err := svc.ListUsersWithConversations(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, users, 2)

	// asha shares conversation 10 with the caller, ravi has none yet.
	require.NotNil(t, users[0].Conversation)
	assert.Equal(t, 10, users[0].Conversation.ID)
	assert.Equal(t, 3, users[0].Conversation.UnreadCount)
	require.NotNil(t, users[0].Conversation.LastMessageContent)
	assert.Equal(t, "see you", *users[0].Conversation.LastMessageContent)
	assert.Nil(t, users[1].Conversation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetPresence(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE users SET").
		WillReturnResult(sqlmock.NewResult(0, 1))

	svc := NewUserService(db)
	assert.NoError(t, svc.SetPresence(context.Background(), 5, true))
	assert.NoError(t, mock.ExpectationsWereMet())
}

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"varta/server/internal/models"
)

func TestUpdateProfileJSONBody(t *testing.T) {
	var gotUpd models.ProfileUpdate
	users := &fakeUserService{
		updateProfileFn: func(ctx context.Context, id int, upd models.ProfileUpdate) (*models.User, error) {
			gotUpd = upd
			return &models.User{ID: id, Username: *upd.Username}, nil
		},
	}
	h := newAuthHandler(users, &fakeEmailSender{}, &fakePhoneVerifier{})

	req := asUser(httptest.NewRequest(http.MethodPut, "/api/auth/updateProfile",
		strings.NewReader(`{"username": "jaydeep", "agreedToTerms": true}`)), 5)
	rec := httptest.NewRecorder()
	h.UpdateProfile(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gotUpd.Username)
	assert.Equal(t, "jaydeep", *gotUpd.Username)
	require.NotNil(t, gotUpd.AgreedToTerms)
	assert.True(t, *gotUpd.AgreedToTerms)
	assert.Nil(t, gotUpd.About)
	assert.Nil(t, gotUpd.ProfilePic)
}

func TestUpdateProfileMultipartWithPicture(t *testing.T) {
	var gotUpd models.ProfileUpdate
	users := &fakeUserService{
		updateProfileFn: func(ctx context.Context, id int, upd models.ProfileUpdate) (*models.User, error) {
			gotUpd = upd
			return &models.User{ID: id}, nil
		},
	}
	uploader := &fakeUploader{url: "https://cdn.example.com/avatar.png"}
	h := NewAuthHandler(users, &fakeEmailSender{}, &fakePhoneVerifier{}, uploader, testSecret)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("username", "jaydeep"))
	part, err := mw.CreateFormFile("media", "avatar.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("avatar-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := asUser(httptest.NewRequest(http.MethodPut, "/api/auth/updateProfile", &body), 5)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.UpdateProfile(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, uploader.uploaded, 1)
	require.NotNil(t, gotUpd.Username)
	assert.Equal(t, "jaydeep", *gotUpd.Username)
	require.NotNil(t, gotUpd.ProfilePic)
	assert.Equal(t, "https://cdn.example.com/avatar.png", *gotUpd.ProfilePic)
}

func TestViewProfileHidesOtpFields(t *testing.T) {
	email := "jay@example.com"
	otp := "123456"
	users := &fakeUserService{
		getUserByIdFn: func(ctx context.Context, id int) (*models.User, error) {
			return &models.User{
				ID:       id,
				Email:    &email,
				Username: "jay",
				About:    "hey there",
				Otp:      &otp,
			}, nil
		},
	}
	h := newAuthHandler(users, &fakeEmailSender{}, &fakePhoneVerifier{})

	req := asUser(httptest.NewRequest(http.MethodGet, "/api/auth/viewProfile", nil), 5)
	rec := httptest.NewRecorder()
	h.ViewProfile(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Profile map[string]interface{} `json:"profile"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "jay", resp.Profile["username"])
	assert.Equal(t, email, resp.Profile["email"])
	assert.NotContains(t, rec.Body.String(), "123456")
	assert.NotContains(t, rec.Body.String(), "otp")
}

func TestCheckAuthUnauthenticated(t *testing.T) {
	h := newAuthHandler(&fakeUserService{}, &fakeEmailSender{}, &fakePhoneVerifier{})

	req := httptest.NewRequest(http.MethodGet, "/api/auth/checkAuth", nil)
	rec := httptest.NewRecorder()
	h.CheckAuth(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetAllUsersAttachesConversations(t *testing.T) {
	users := &fakeUserService{
		listUsersFn: func(ctx context.Context, callerID int) ([]models.UserWithConversation, error) {
			assert.Equal(t, 1, callerID)
			return []models.UserWithConversation{
				{ID: 2, Username: "asha", Conversation: &models.ConversationSummary{ID: 10, UnreadCount: 3}},
				{ID: 3, Username: "ravi"},
			}, nil
		},
	}
	h := newAuthHandler(users, &fakeEmailSender{}, &fakePhoneVerifier{})

	req := asUser(httptest.NewRequest(http.MethodGet, "/api/auth/getAllUsers", nil), 1)
	rec := httptest.NewRecorder()
	h.GetAllUsers(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Users []models.UserWithConversation `json:"users"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Users, 2)
	require.NotNil(t, resp.Users[0].Conversation)
	assert.Equal(t, 3, resp.Users[0].Conversation.UnreadCount)
	assert.Nil(t, resp.Users[1].Conversation)
}

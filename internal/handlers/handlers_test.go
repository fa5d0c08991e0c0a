package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"varta/server/internal/appMiddleware"
	"varta/server/internal/models"
	"varta/server/internal/services"
)

// asUser attaches an authenticated user id the way the auth gate does.
func asUser(r *http.Request, userID int) *http.Request {
	return r.WithContext(appMiddleware.WithUserID(r.Context(), userID))
}

var errUnexpectedCall = errors.New("unexpected call")

type fakeUserService struct {
	upsertOtpByEmailFn func(ctx context.Context, email, otp string, expiry time.Time) (*models.User, error)
	upsertOtpByPhoneFn func(ctx context.Context, phoneNumber, otp string, expiry time.Time) (*models.User, error)
	getUserByEmailFn   func(ctx context.Context, email string) (*models.User, error)
	getUserByPhoneFn   func(ctx context.Context, phoneNumber string) (*models.User, error)
	getUserByIdFn      func(ctx context.Context, id int) (*models.User, error)
	markVerifiedFn     func(ctx context.Context, id int) error
	updateProfileFn    func(ctx context.Context, id int, upd models.ProfileUpdate) (*models.User, error)
	listUsersFn        func(ctx context.Context, callerID int) ([]models.UserWithConversation, error)
	setPresenceFn      func(ctx context.Context, id int, online bool) error
}

func (f *fakeUserService) UpsertOtpByEmail(ctx context.Context, email, otp string, expiry time.Time) (*models.User, error) {
	if f.upsertOtpByEmailFn == nil {
		return nil, errUnexpectedCall
	}
	return f.upsertOtpByEmailFn(ctx, email, otp, expiry)
}

func (f *fakeUserService) UpsertOtpByPhone(ctx context.Context, phoneNumber, otp string, expiry time.Time) (*models.User, error) {
	if f.upsertOtpByPhoneFn == nil {
		return nil, errUnexpectedCall
	}
	return f.upsertOtpByPhoneFn(ctx, phoneNumber, otp, expiry)
}

func (f *fakeUserService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.getUserByEmailFn == nil {
		return nil, errUnexpectedCall
	}
	return f.getUserByEmailFn(ctx, email)
}

func (f *fakeUserService) GetUserByPhone(ctx context.Context, phoneNumber string) (*models.User, error) {
	if f.getUserByPhoneFn == nil {
		return nil, errUnexpectedCall
	}
	return f.getUserByPhoneFn(ctx, phoneNumber)
}

func (f *fakeUserService) GetUserById(ctx context.Context, id int) (*models.User, error) {
	if f.getUserByIdFn == nil {
		return nil, errUnexpectedCall
	}
	return f.getUserByIdFn(ctx, id)
}

func (f *fakeUserService) MarkVerified(ctx context.Context, id int) error {
	if f.markVerifiedFn == nil {
		return errUnexpectedCall
	}
	return f.markVerifiedFn(ctx, id)
}

func (f *fakeUserService) UpdateProfile(ctx context.Context, id int, upd models.ProfileUpdate) (*models.User, error) {
	if f.updateProfileFn == nil {
		return nil, errUnexpectedCall
	}
	return f.updateProfileFn(ctx, id, upd)
}

func (f *fakeUserService) ListUsersWithConversations(ctx context.Context, callerID int) ([]models.UserWithConversation, error) {
	if f.listUsersFn == nil {
		return nil, errUnexpectedCall
	}
	return f.listUsersFn(ctx, callerID)
}

func (f *fakeUserService) SetPresence(ctx context.Context, id int, online bool) error {
	if f.setPresenceFn == nil {
		return nil
	}
	return f.setPresenceFn(ctx, id, online)
}

type fakeChatService struct {
	sendFn   func(ctx context.Context, in services.SendMessageInput) (*models.Message, error)
	getFn    func(ctx context.Context, conversationID, userID int) ([]models.Message, error)
	markFn   func(ctx context.Context, userID int, messageIDs []int) ([]int, error)
	deleteFn func(ctx context.Context, userID int, messageIDs []int) (int, error)
}

func (f *fakeChatService) SendMessage(ctx context.Context, in services.SendMessageInput) (*models.Message, error) {
	if f.sendFn == nil {
		return nil, errUnexpectedCall
	}
	return f.sendFn(ctx, in)
}

func (f *fakeChatService) GetMessages(ctx context.Context, conversationID, userID int) ([]models.Message, error) {
	if f.getFn == nil {
		return nil, errUnexpectedCall
	}
	return f.getFn(ctx, conversationID, userID)
}

func (f *fakeChatService) MarkMessagesAsRead(ctx context.Context, userID int, messageIDs []int) ([]int, error) {
	if f.markFn == nil {
		return nil, errUnexpectedCall
	}
	return f.markFn(ctx, userID, messageIDs)
}

func (f *fakeChatService) DeleteMessages(ctx context.Context, userID int, messageIDs []int) (int, error) {
	if f.deleteFn == nil {
		return 0, errUnexpectedCall
	}
	return f.deleteFn(ctx, userID, messageIDs)
}

type fakeStatusService struct {
	createFn  func(ctx context.Context, in services.CreateStatusInput) (*models.UserStatus, error)
	listFn    func(ctx context.Context) ([]models.UserStatus, error)
	viewFn    func(ctx context.Context, statusID, viewerID int) (*models.StatusView, error)
	viewersFn func(ctx context.Context, statusID, callerID int) ([]models.StatusView, error)
	deleteFn  func(ctx context.Context, statusID, callerID int) error
}

func (f *fakeStatusService) CreateStatus(ctx context.Context, in services.CreateStatusInput) (*models.UserStatus, error) {
	if f.createFn == nil {
		return nil, errUnexpectedCall
	}
	return f.createFn(ctx, in)
}

func (f *fakeStatusService) GetActiveStatuses(ctx context.Context) ([]models.UserStatus, error) {
	if f.listFn == nil {
		return nil, errUnexpectedCall
	}
	return f.listFn(ctx)
}

func (f *fakeStatusService) ViewStatus(ctx context.Context, statusID, viewerID int) (*models.StatusView, error) {
	if f.viewFn == nil {
		return nil, errUnexpectedCall
	}
	return f.viewFn(ctx, statusID, viewerID)
}

func (f *fakeStatusService) GetStatusViewers(ctx context.Context, statusID, callerID int) ([]models.StatusView, error) {
	if f.viewersFn == nil {
		return nil, errUnexpectedCall
	}
	return f.viewersFn(ctx, statusID, callerID)
}

func (f *fakeStatusService) DeleteStatus(ctx context.Context, statusID, callerID int) error {
	if f.deleteFn == nil {
		return errUnexpectedCall
	}
	return f.deleteFn(ctx, statusID, callerID)
}

type fakeEmailSender struct {
	sentTo  []string
	lastOtp string
	err     error
}

func (f *fakeEmailSender) SendOtp(ctx context.Context, email, otp string) error {
	if f.err != nil {
		return f.err
	}
	f.sentTo = append(f.sentTo, email)
	f.lastOtp = otp
	return nil
}

type fakePhoneVerifier struct {
	started  []string
	approved bool
	err      error
}

func (f *fakePhoneVerifier) StartVerification(ctx context.Context, phoneNumber string) error {
	if f.err != nil {
		return f.err
	}
	f.started = append(f.started, phoneNumber)
	return nil
}

func (f *fakePhoneVerifier) CheckVerification(ctx context.Context, phoneNumber, code string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.approved, nil
}

type fakeUploader struct {
	uploaded []string
	url      string
	err      error
}

func (f *fakeUploader) Upload(ctx context.Context, path, mimeType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.uploaded = append(f.uploaded, path)
	return f.url, nil
}

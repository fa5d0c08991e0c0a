package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/rs/zerolog/log"

	"varta/server/internal/models"
)

type UserService interface {
	UpsertOtpByEmail(ctx context.Context, email, otp string, expiry time.Time) (*models.User, error)
	UpsertOtpByPhone(ctx context.Context, phoneNumber, otp string, expiry time.Time) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByPhone(ctx context.Context, phoneNumber string) (*models.User, error)
	GetUserById(ctx context.Context, id int) (*models.User, error)
	MarkVerified(ctx context.Context, id int) error
	UpdateProfile(ctx context.Context, id int, upd models.ProfileUpdate) (*models.User, error)
	ListUsersWithConversations(ctx context.Context, callerID int) ([]models.UserWithConversation, error)
	SetPresence(ctx context.Context, id int, online bool) error
}

type userService struct {
	db *sql.DB
}

func NewUserService(db *sql.DB) *userService {
	return &userService{db: db}
}

var userColumns = []string{
	"id", "email", "phone_number", "username", "about", "profile_pic",
	"otp", "otp_expiry", "is_verified", "agreed_to_terms",
	"last_seen", "is_online", "created_at",
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Email, &user.PhoneNumber, &user.Username, &user.About,
		&user.ProfilePic, &user.Otp, &user.OtpExpiry, &user.IsVerified,
		&user.AgreedToTerms, &user.LastSeen, &user.IsOnline, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// upsertOtp writes a fresh passcode on the identity column, creating the user
// row if this identity has never been seen. An unverified row may exist long
// before any passcode ever succeeds.
func (us *userService) upsertOtp(ctx context.Context, column, identity, otp string, expiry time.Time) (*models.User, error) {
	query := psql.Insert("users").
		Columns(column, "otp", "otp_expiry").
		Values(identity, otp, expiry).
		Suffix("ON CONFLICT (" + column + ") DO UPDATE SET otp = EXCLUDED.otp, otp_expiry = EXCLUDED.otp_expiry").
		Suffix("RETURNING " + strings.Join(userColumns, ", "))

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error().Err(err).Msg("failed to build SQL query")
		return nil, err
	}
	log.Debug().Str("sql", sqlStr).Interface("args", args).Msg("executing SQL")

	user, err := scanUser(us.db.QueryRowContext(ctx, sqlStr, args...))
	if err != nil {
		log.Error().Err(err).Str(column, identity).Msg("error upserting OTP")
		return nil, err
	}
	return user, nil
}

func (us *userService) UpsertOtpByEmail(ctx context.Context, email, otp string, expiry time.Time) (*models.User, error) {
	return us.upsertOtp(ctx, "email", email, otp, expiry)
}

func (us *userService) UpsertOtpByPhone(ctx context.Context, phoneNumber, otp string, expiry time.Time) (*models.User, error) {
	return us.upsertOtp(ctx, "phone_number", phoneNumber, otp, expiry)
}

func (us *userService) getUserWhere(ctx context.Context, pred squirrel.Eq) (*models.User, error) {
	query := psql.Select(userColumns...).From("users").Where(pred)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error().Err(err).Msg("failed to build SQL query")
		return nil, err
	}
	log.Debug().Str("sql", sqlStr).Interface("args", args).Msg("executing SQL")

	return scanUser(us.db.QueryRowContext(ctx, sqlStr, args...))
}

func (us *userService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return us.getUserWhere(ctx, squirrel.Eq{"email": email})
}

func (us *userService) GetUserByPhone(ctx context.Context, phoneNumber string) (*models.User, error) {
	return us.getUserWhere(ctx, squirrel.Eq{"phone_number": phoneNumber})
}

func (us *userService) GetUserById(ctx context.Context, id int) (*models.User, error) {
	return us.getUserWhere(ctx, squirrel.Eq{"id": id})
}

// MarkVerified clears the pending passcode and flips the row to verified.
// The passcode is single use: once cleared, a replay has nothing to match.
func (us *userService) MarkVerified(ctx context.Context, id int) error {
	query := psql.Update("users").
		Set("otp", nil).
		Set("otp_expiry", nil).
		Set("is_verified", true).
		Where(squirrel.Eq{"id": id})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error().Err(err).Msg("failed to build SQL query")
		return err
	}
	log.Debug().Str("sql", sqlStr).Interface("args", args).Msg("executing SQL")

	result, err := us.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error().Err(err).Int("user_id", id).Msg("error marking user verified")
		return err
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

func (us *userService) UpdateProfile(ctx context.Context, id int, upd models.ProfileUpdate) (*models.User, error) {
	setClause := squirrel.Eq{}
	if upd.Username != nil {
		setClause["username"] = *upd.Username
	}
	if upd.About != nil {
		setClause["about"] = *upd.About
	}
	if upd.AgreedToTerms != nil {
		setClause["agreed_to_terms"] = *upd.AgreedToTerms
	}
	if upd.ProfilePic != nil {
		setClause["profile_pic"] = *upd.ProfilePic
	}

	if len(setClause) == 0 {
		return us.GetUserById(ctx, id)
	}

	query := psql.Update("users").
		SetMap(setClause).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(userColumns, ", "))

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error().Err(err).Msg("failed to build SQL query")
		return nil, err
	}
	log.Debug().Str("sql", sqlStr).Interface("args", args).Msg("executing SQL")

	user, err := scanUser(us.db.QueryRowContext(ctx, sqlStr, args...))
	if err != nil {
		if !errors.Is(err, models.ErrUserNotFound) {
			log.Error().Err(err).Int("user_id", id).Msg("error updating profile")
		}
		return nil, err
	}
	log.Info().Int("user_id", id).Msg("profile updated")
	return user, nil
}

// ListUsersWithConversations returns every other user, each carrying the
// summary of the 1:1 conversation shared with the caller. One batched query
// fetches all relevant conversations instead of one lookup per user.
func (us *userService) ListUsersWithConversations(ctx context.Context, callerID int) ([]models.UserWithConversation, error) {
	usersQuery := psql.Select("id", "username", "profile_pic", "about", "last_seen", "is_online").
		From("users").
		Where(squirrel.NotEq{"id": callerID}).
		OrderBy("username ASC")

	sqlStr, args, err := usersQuery.ToSql()
	if err != nil {
		log.Error().Err(err).Msg("failed to build SQL query")
		return nil, err
	}
	log.Debug().Str("sql", sqlStr).Interface("args", args).Msg("executing SQL")

	rows, err := us.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error().Err(err).Int("caller_id", callerID).Msg("error listing users")
		return nil, err
	}
	defer rows.Close()

	users := make([]models.UserWithConversation, 0)
	for rows.Next() {
		var u models.UserWithConversation
		if err := rows.Scan(&u.ID, &u.Username, &u.ProfilePic, &u.About, &u.LastSeen, &u.IsOnline); err != nil {
			log.Error().Err(err).Msg("error scanning user row")
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	summaries, err := us.conversationSummaries(ctx, callerID)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if summary, ok := summaries[users[i].ID]; ok {
			users[i].Conversation = summary
		}
	}
	return users, nil
}

func (us *userService) conversationSummaries(ctx context.Context, callerID int) (map[int]*models.ConversationSummary, error) {
	query := psql.Select(
		"c.id", "cp_peer.user_id AS peer_id", "cp_me.unread_count",
		"m.content", "m.content_type", "m.created_at").
		From("conversations c").
		Join("conversation_participants cp_me ON cp_me.conversation_id = c.id AND cp_me.user_id = ?", callerID).
		Join("conversation_participants cp_peer ON cp_peer.conversation_id = c.id AND cp_peer.user_id <> ?", callerID).
		LeftJoin("messages m ON m.id = c.last_message_id").
		Where(squirrel.Eq{"c.is_group": false})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error().Err(err).Msg("failed to build SQL query")
		return nil, err
	}
	log.Debug().Str("sql", sqlStr).Interface("args", args).Msg("executing SQL")

	rows, err := us.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error().Err(err).Int("caller_id", callerID).Msg("error fetching conversation summaries")
		return nil, err
	}
	defer rows.Close()

	summaries := make(map[int]*models.ConversationSummary)
	for rows.Next() {
		var peerID int
		var summary models.ConversationSummary
		err := rows.Scan(&summary.ID, &peerID, &summary.UnreadCount,
			&summary.LastMessageContent, &summary.LastMessageType, &summary.LastMessageAt)
		if err != nil {
			log.Error().Err(err).Msg("error scanning conversation summary row")
			return nil, err
		}
		summaries[peerID] = &summary
	}
	return summaries, rows.Err()
}

func (us *userService) SetPresence(ctx context.Context, id int, online bool) error {
	query := psql.Update("users").
		Set("last_seen", time.Now()).
		Set("is_online", online).
		Where(squirrel.Eq{"id": id})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return err
	}
	_, err = us.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error().Err(err).Int("user_id", id).Msg("error updating presence")
	}
	return err
}

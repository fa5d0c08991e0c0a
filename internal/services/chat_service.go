package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/rs/zerolog/log"

	"varta/server/internal/models"
)

type ChatService interface {
	SendMessage(ctx context.Context, in SendMessageInput) (*models.Message, error)
	GetMessages(ctx context.Context, conversationID, userID int) ([]models.Message, error)
	MarkMessagesAsRead(ctx context.Context, userID int, messageIDs []int) ([]int, error)
	DeleteMessages(ctx context.Context, userID int, messageIDs []int) (int, error)
}

type SendMessageInput struct {
	SenderID    int
	ReceiverID  int
	Content     *string
	ContentType models.ContentType
	MediaURL    *string
	Status      models.MessageStatus
}

type chatService struct {
	db *sql.DB
}

func NewChatService(db *sql.DB) *chatService {
	return &chatService{db: db}
}

// SendMessage finds or creates the 1:1 conversation for the pair, inserts the
// message and refreshes the conversation summary. Everything runs in a single
// transaction, and an advisory lock on the pair serializes concurrent
// first-sends, so duplicate conversations cannot appear and a message can
// never exist with a stale summary.
func (cs *chatService) SendMessage(ctx context.Context, in SendMessageInput) (*models.Message, error) {
	if in.SenderID == in.ReceiverID {
		return nil, models.ErrValidation
	}

	tx, err := cs.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error().Err(err).Msg("error starting transaction")
		return nil, err
	}
	defer tx.Rollback()

	conversationID, err := cs.findOrCreateConversation(ctx, tx, in.SenderID, in.ReceiverID)
	if err != nil {
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = models.MessageStatusSent
	}

	insert := psql.Insert("messages").
		Columns("conversation_id", "sender_id", "receiver_id", "content", "content_type", "media_url", "message_status").
		Values(conversationID, in.SenderID, in.ReceiverID, in.Content, in.ContentType, in.MediaURL, status).
		Suffix("RETURNING id, created_at")

	sqlStr, args, err := insert.ToSql()
	if err != nil {
		log.Error().Err(err).Msg("failed to build SQL query")
		return nil, err
	}
	log.Debug().Str("sql", sqlStr).Interface("args", args).Msg("executing SQL")

	message := models.Message{
		ConversationID: conversationID,
		SenderID:       in.SenderID,
		ReceiverID:     in.ReceiverID,
		Content:        in.Content,
		ContentType:    in.ContentType,
		MediaURL:       in.MediaURL,
		Status:         status,
	}
	if err := tx.QueryRowContext(ctx, sqlStr, args...).Scan(&message.ID, &message.CreatedAt); err != nil {
		log.Error().Err(err).Msg("error saving message")
		return nil, err
	}

	update := psql.Update("conversations").
		Set("last_message_id", message.ID).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": conversationID})
	sqlStr, args, err = update.ToSql()
	if err != nil {
		return nil, err
	}
	log.Debug().Str("sql", sqlStr).Interface("args", args).Msg("executing SQL")
	if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
		log.Error().Err(err).Int("conversation_id", conversationID).Msg("error updating conversation summary")
		return nil, err
	}

	unread := psql.Update("conversation_participants").
		Set("unread_count", squirrel.Expr("unread_count + 1")).
		Where(squirrel.Eq{"conversation_id": conversationID, "user_id": in.ReceiverID})
	sqlStr, args, err = unread.ToSql()
	if err != nil {
		return nil, err
	}
	log.Debug().Str("sql", sqlStr).Interface("args", args).Msg("executing SQL")
	if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
		log.Error().Err(err).Int("conversation_id", conversationID).Msg("error incrementing unread count")
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		log.Error().Err(err).Msg("error committing send transaction")
		return nil, err
	}

	message.Sender, message.Receiver = cs.participantSummaries(ctx, in.SenderID, in.ReceiverID)
	log.Info().Int("message_id", message.ID).Int("conversation_id", conversationID).Msg("message sent")
	return &message, nil
}

func (cs *chatService) findOrCreateConversation(ctx context.Context, tx *sql.Tx, senderID, receiverID int) (int, error) {
	// Transaction-scoped advisory lock on the normalized pair. At READ
	// COMMITTED two concurrent first-sends would both miss the lookup and
	// both insert; the lock makes the second send wait and find the first
	// send's conversation.
	lo, hi := senderID, receiverID
	if lo > hi {
		lo, hi = hi, lo
	}
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1, $2)`, lo, hi); err != nil {
		log.Error().Err(err).Msg("error locking conversation pair")
		return 0, err
	}

	find := psql.Select("c.id").
		From("conversations c").
		Join("conversation_participants cp1 ON c.id = cp1.conversation_id").
		Join("conversation_participants cp2 ON c.id = cp2.conversation_id").
		Where(squirrel.Eq{
			"c.is_group":  false,
			"cp1.user_id": senderID,
			"cp2.user_id": receiverID,
		}).
		Limit(1)

	sqlStr, args, err := find.ToSql()
	if err != nil {
		log.Error().Err(err).Msg("failed to build SQL query")
		return 0, err
	}
	log.Debug().Str("sql", sqlStr).Interface("args", args).Msg("executing SQL")

	var conversationID int
	err = tx.QueryRowContext(ctx, sqlStr, args...).Scan(&conversationID)
	if err == nil {
		return conversationID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		log.Error().Err(err).Msg("error looking up conversation")
		return 0, err
	}

	create := psql.Insert("conversations").
		Columns("is_group").
		Values(false).
		Suffix("RETURNING id")
	sqlStr, args, err = create.ToSql()
	if err != nil {
		return 0, err
	}
	log.Debug().Str("sql", sqlStr).Interface("args", args).Msg("executing SQL")
	if err := tx.QueryRowContext(ctx, sqlStr, args...).Scan(&conversationID); err != nil {
		log.Error().Err(err).Msg("error creating conversation")
		return 0, err
	}

	participants := psql.Insert("conversation_participants").
		Columns("conversation_id", "user_id").
		Values(conversationID, senderID).
		Values(conversationID, receiverID)
	sqlStr, args, err = participants.ToSql()
	if err != nil {
		return 0, err
	}
	log.Debug().Str("sql", sqlStr).Interface("args", args).Msg("executing SQL")
	if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
		log.Error().Err(err).Int("conversation_id", conversationID).Msg("error adding participants")
		return 0, err
	}

	log.Info().Int("conversation_id", conversationID).Msg("conversation created")
	return conversationID, nil
}

func (cs *chatService) participantSummaries(ctx context.Context, senderID, receiverID int) (*models.UserSummary, *models.UserSummary) {
	query := psql.Select("id", "username", "profile_pic").
		From("users").
		Where(squirrel.Eq{"id": []int{senderID, receiverID}})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, nil
	}
	rows, err := cs.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error().Err(err).Msg("error fetching participant summaries")
		return nil, nil
	}
	defer rows.Close()

	var sender, receiver *models.UserSummary
	for rows.Next() {
		var u models.UserSummary
		if err := rows.Scan(&u.ID, &u.Username, &u.ProfilePic); err != nil {
			continue
		}
		switch u.ID {
		case senderID:
			summary := u
			sender = &summary
		case receiverID:
			summary := u
			receiver = &summary
		}
	}
	return sender, receiver
}

// GetMessages returns the conversation's messages oldest first. Fetching is
// itself a read action: the caller's pending received messages flip to READ
// and their unread counter resets.
func (cs *chatService) GetMessages(ctx context.Context, conversationID, userID int) ([]models.Message, error) {
	exists, isParticipant, err := cs.conversationMembership(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, models.ErrConversationNotFound
	}
	if !isParticipant {
		return nil, models.ErrForbidden
	}

	query := psql.Select(
		"m.id", "m.conversation_id", "m.sender_id", "m.receiver_id",
		"m.content", "m.content_type", "m.media_url", "m.message_status", "m.created_at",
		"s.id", "s.username", "s.profile_pic",
		"r.id", "r.username", "r.profile_pic").
		From("messages m").
		Join("users s ON s.id = m.sender_id").
		Join("users r ON r.id = m.receiver_id").
		Where(squirrel.Eq{"m.conversation_id": conversationID}).
		OrderBy("m.created_at ASC")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error().Err(err).Msg("failed to build SQL query")
		return nil, err
	}
	log.Debug().Str("sql", sqlStr).Interface("args", args).Msg("executing SQL")

	rows, err := cs.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error().Err(err).Int("conversation_id", conversationID).Msg("error fetching messages")
		return nil, err
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var msg models.Message
		var sender, receiver models.UserSummary
		err := rows.Scan(
			&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.ReceiverID,
			&msg.Content, &msg.ContentType, &msg.MediaURL, &msg.Status, &msg.CreatedAt,
			&sender.ID, &sender.Username, &sender.ProfilePic,
			&receiver.ID, &receiver.Username, &receiver.ProfilePic,
		)
		if err != nil {
			log.Error().Err(err).Msg("error scanning message row")
			return nil, err
		}
		msg.Sender = &sender
		msg.Receiver = &receiver
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := cs.markConversationRead(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	log.Debug().Int("conversation_id", conversationID).Int("count", len(messages)).Msg("messages fetched")
	return messages, nil
}

func (cs *chatService) conversationMembership(ctx context.Context, conversationID, userID int) (exists, isParticipant bool, err error) {
	query := `
        SELECT EXISTS (SELECT 1 FROM conversations WHERE id = $1),
               EXISTS (SELECT 1 FROM conversation_participants WHERE conversation_id = $1 AND user_id = $2)
    `
	err = cs.db.QueryRowContext(ctx, query, conversationID, userID).Scan(&exists, &isParticipant)
	if err != nil {
		log.Error().Err(err).Int("conversation_id", conversationID).Msg("error checking conversation membership")
		return false, false, err
	}
	return exists, isParticipant, nil
}

func (cs *chatService) markConversationRead(ctx context.Context, conversationID, userID int) error {
	tx, err := cs.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	statuses := psql.Update("messages").
		Set("message_status", models.MessageStatusRead).
		Where(squirrel.Eq{
			"conversation_id": conversationID,
			"receiver_id":     userID,
			"message_status":  []models.MessageStatus{models.MessageStatusSent, models.MessageStatusDelivered},
		})
	sqlStr, args, err := statuses.ToSql()
	if err != nil {
		return err
	}
	log.Debug().Str("sql", sqlStr).Interface("args", args).Msg("executing SQL")
	if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
		log.Error().Err(err).Int("conversation_id", conversationID).Msg("error marking messages read")
		return err
	}

	reset := psql.Update("conversation_participants").
		Set("unread_count", 0).
		Where(squirrel.Eq{"conversation_id": conversationID, "user_id": userID})
	sqlStr, args, err = reset.ToSql()
	if err != nil {
		return err
	}
	log.Debug().Str("sql", sqlStr).Interface("args", args).Msg("executing SQL")
	if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
		log.Error().Err(err).Int("conversation_id", conversationID).Msg("error resetting unread count")
		return err
	}

	return tx.Commit()
}

// MarkMessagesAsRead flips the given messages to READ, restricted to ones the
// caller received. Ids not addressed to the caller are silently excluded.
func (cs *chatService) MarkMessagesAsRead(ctx context.Context, userID int, messageIDs []int) ([]int, error) {
	owned, err := cs.ownedMessageIDs(ctx, messageIDs, squirrel.Eq{"receiver_id": userID})
	if err != nil {
		return nil, err
	}
	if len(owned) == 0 {
		return nil, models.ErrMessageNotFound
	}

	update := psql.Update("messages").
		Set("message_status", models.MessageStatusRead).
		Where(squirrel.Eq{"id": owned, "receiver_id": userID})
	sqlStr, args, err := update.ToSql()
	if err != nil {
		return nil, err
	}
	log.Debug().Str("sql", sqlStr).Interface("args", args).Msg("executing SQL")
	if _, err := cs.db.ExecContext(ctx, sqlStr, args...); err != nil {
		log.Error().Err(err).Ints("message_ids", owned).Msg("error marking messages read")
		return nil, err
	}

	log.Info().Ints("message_ids", owned).Int("user_id", userID).Msg("messages marked as read")
	return owned, nil
}

// DeleteMessages removes the given messages, restricted to ones the caller
// sent. Ids the caller does not own are silently excluded.
func (cs *chatService) DeleteMessages(ctx context.Context, userID int, messageIDs []int) (int, error) {
	owned, err := cs.ownedMessageIDs(ctx, messageIDs, squirrel.Eq{"sender_id": userID})
	if err != nil {
		return 0, err
	}
	if len(owned) == 0 {
		return 0, models.ErrMessageNotFound
	}

	del := psql.Delete("messages").
		Where(squirrel.Eq{"id": owned, "sender_id": userID})
	sqlStr, args, err := del.ToSql()
	if err != nil {
		return 0, err
	}
	log.Debug().Str("sql", sqlStr).Interface("args", args).Msg("executing SQL")
	if _, err := cs.db.ExecContext(ctx, sqlStr, args...); err != nil {
		log.Error().Err(err).Ints("message_ids", owned).Msg("error deleting messages")
		return 0, err
	}

	log.Info().Ints("message_ids", owned).Int("user_id", userID).Msg("messages deleted")
	return len(owned), nil
}

func (cs *chatService) ownedMessageIDs(ctx context.Context, messageIDs []int, ownership squirrel.Eq) ([]int, error) {
	if len(messageIDs) == 0 {
		return nil, models.ErrValidation
	}

	query := psql.Select("id").
		From("messages").
		Where(squirrel.Eq{"id": messageIDs}).
		Where(ownership)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error().Err(err).Msg("failed to build SQL query")
		return nil, err
	}
	log.Debug().Str("sql", sqlStr).Interface("args", args).Msg("executing SQL")

	rows, err := cs.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error().Err(err).Msg("error fetching owned messages")
		return nil, err
	}
	defer rows.Close()

	var owned []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		owned = append(owned, id)
	}
	return owned, rows.Err()
}

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

type StatusService interface {
	CreateStatus(ctx context.Context, in CreateStatusInput) (*models.UserStatus, error)
	GetActiveStatuses(ctx context.Context) ([]models.UserStatus, error)
	ViewStatus(ctx context.Context, statusID, viewerID int) (*models.StatusView, error)
	GetStatusViewers(ctx context.Context, statusID, callerID int) ([]models.StatusView, error)
	DeleteStatus(ctx context.Context, statusID, callerID int) error
}

type CreateStatusInput struct {
	UserID      int
	Content     *string
	ContentType models.ContentType
	MediaURL    *string
}

type statusService struct {
	db *sql.DB
}

func NewStatusService(db *sql.DB) *statusService {
	return &statusService{db: db}
}

func (ss *statusService) CreateStatus(ctx context.Context, in CreateStatusInput) (*models.UserStatus, error) {
	expiresAt := time.Now().Add(models.StatusTTL)

	query := psql.Insert("user_statuses").
		Columns("user_id", "content", "content_type", "media_url", "expires_at").
		Values(in.UserID, in.Content, in.ContentType, in.MediaURL, expiresAt).
		Suffix("RETURNING id, created_at")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error().Err(err).Msg("failed to build SQL query")
		return nil, err
	}
	log.Debug().Str("sql", sqlStr).Interface("args", args).Msg("executing SQL")

	status := models.UserStatus{
		UserID:      in.UserID,
		Content:     in.Content,
		ContentType: in.ContentType,
		MediaURL:    in.MediaURL,
		ExpiresAt:   expiresAt,
		Views:       make([]models.StatusView, 0),
	}
	if err := ss.db.QueryRowContext(ctx, sqlStr, args...).Scan(&status.ID, &status.CreatedAt); err != nil {
		log.Error().Err(err).Int("user_id", in.UserID).Msg("error creating status")
		return nil, err
	}

	status.User = ss.userSummary(ctx, in.UserID)
	log.Info().Int("status_id", status.ID).Int("user_id", in.UserID).Msg("status created")
	return &status, nil
}

// GetActiveStatuses lists every status that has not yet expired, newest first,
// with the owner projection and nested viewer list. Expired rows stay in the
// store; they are only excluded here.
func (ss *statusService) GetActiveStatuses(ctx context.Context) ([]models.UserStatus, error) {
	query := psql.Select(
		"st.id", "st.user_id", "st.content", "st.content_type", "st.media_url",
		"st.expires_at", "st.created_at",
		"u.id", "u.username", "u.profile_pic").
		From("user_statuses st").
		Join("users u ON u.id = st.user_id").
		Where(squirrel.Gt{"st.expires_at": time.Now()}).
		OrderBy("st.created_at DESC")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error().Err(err).Msg("failed to build SQL query")
		return nil, err
	}
	log.Debug().Str("sql", sqlStr).Interface("args", args).Msg("executing SQL")

	rows, err := ss.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error().Err(err).Msg("error fetching statuses")
		return nil, err
	}
	defer rows.Close()

	statuses := make([]models.UserStatus, 0)
	var statusIDs []int
	for rows.Next() {
		var status models.UserStatus
		var owner models.UserSummary
		err := rows.Scan(
			&status.ID, &status.UserID, &status.Content, &status.ContentType,
			&status.MediaURL, &status.ExpiresAt, &status.CreatedAt,
			&owner.ID, &owner.Username, &owner.ProfilePic,
		)
		if err != nil {
			log.Error().Err(err).Msg("error scanning status row")
			return nil, err
		}
		status.User = &owner
		status.Views = make([]models.StatusView, 0)
		statuses = append(statuses, status)
		statusIDs = append(statusIDs, status.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(statuses) == 0 {
		return statuses, nil
	}

	views, err := ss.viewsForStatuses(ctx, statusIDs)
	if err != nil {
		return nil, err
	}
	for i := range statuses {
		if v, ok := views[statuses[i].ID]; ok {
			statuses[i].Views = v
		}
	}
	return statuses, nil
}

func (ss *statusService) viewsForStatuses(ctx context.Context, statusIDs []int) (map[int][]models.StatusView, error) {
	query := psql.Select(
		"v.id", "v.status_id", "v.viewer_id", "v.viewed_at",
		"u.id", "u.username", "u.profile_pic").
		From("user_status_views v").
		Join("users u ON u.id = v.viewer_id").
		Where(squirrel.Eq{"v.status_id": statusIDs}).
		OrderBy("v.viewed_at ASC")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}
	log.Debug().Str("sql", sqlStr).Interface("args", args).Msg("executing SQL")

	rows, err := ss.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error().Err(err).Msg("error fetching status views")
		return nil, err
	}
	defer rows.Close()

	views := make(map[int][]models.StatusView)
	for rows.Next() {
		var view models.StatusView
		var viewer models.UserSummary
		err := rows.Scan(&view.ID, &view.StatusID, &view.ViewerID, &view.ViewedAt,
			&viewer.ID, &viewer.Username, &viewer.ProfilePic)
		if err != nil {
			return nil, err
		}
		view.Viewer = &viewer
		views[view.StatusID] = append(views[view.StatusID], view)
	}
	return views, rows.Err()
}

// ViewStatus records a view receipt for the pair (status, viewer). The insert
// is conditional on the unique pair so a repeat view is a no-op rather than a
// second row, with no read-then-write window.
func (ss *statusService) ViewStatus(ctx context.Context, statusID, viewerID int) (*models.StatusView, error) {
	var exists bool
	err := ss.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_statuses WHERE id = $1 AND expires_at > NOW())`,
		statusID,
	).Scan(&exists)
	if err != nil {
		log.Error().Err(err).Int("status_id", statusID).Msg("error checking status")
		return nil, err
	}
	if !exists {
		return nil, models.ErrStatusNotFound
	}

	insert := psql.Insert("user_status_views").
		Columns("status_id", "viewer_id").
		Values(statusID, viewerID).
		Suffix("ON CONFLICT (status_id, viewer_id) DO NOTHING")
	sqlStr, args, err := insert.ToSql()
	if err != nil {
		return nil, err
	}
	log.Debug().Str("sql", sqlStr).Interface("args", args).Msg("executing SQL")
	if _, err := ss.db.ExecContext(ctx, sqlStr, args...); err != nil {
		log.Error().Err(err).Int("status_id", statusID).Int("viewer_id", viewerID).Msg("error recording view")
		return nil, err
	}

	query := psql.Select("id", "status_id", "viewer_id", "viewed_at").
		From("user_status_views").
		Where(squirrel.Eq{"status_id": statusID, "viewer_id": viewerID})
	sqlStr, args, err = query.ToSql()
	if err != nil {
		return nil, err
	}

	var view models.StatusView
	err = ss.db.QueryRowContext(ctx, sqlStr, args...).Scan(&view.ID, &view.StatusID, &view.ViewerID, &view.ViewedAt)
	if err != nil {
		log.Error().Err(err).Int("status_id", statusID).Msg("error fetching view receipt")
		return nil, err
	}
	return &view, nil
}

// GetStatusViewers lists the view receipts of a status. Only the owner may
// enumerate viewers; expiry does not matter here, the row just has to exist.
func (ss *statusService) GetStatusViewers(ctx context.Context, statusID, callerID int) ([]models.StatusView, error) {
	if err := ss.requireOwner(ctx, statusID, callerID); err != nil {
		return nil, err
	}

	views, err := ss.viewsForStatuses(ctx, []int{statusID})
	if err != nil {
		return nil, err
	}
	result := views[statusID]
	if result == nil {
		result = make([]models.StatusView, 0)
	}
	return result, nil
}

func (ss *statusService) DeleteStatus(ctx context.Context, statusID, callerID int) error {
	if err := ss.requireOwner(ctx, statusID, callerID); err != nil {
		return err
	}

	del := psql.Delete("user_statuses").Where(squirrel.Eq{"id": statusID})
	sqlStr, args, err := del.ToSql()
	if err != nil {
		return err
	}
	log.Debug().Str("sql", sqlStr).Interface("args", args).Msg("executing SQL")
	if _, err := ss.db.ExecContext(ctx, sqlStr, args...); err != nil {
		log.Error().Err(err).Int("status_id", statusID).Msg("error deleting status")
		return err
	}

	log.Info().Int("status_id", statusID).Int("user_id", callerID).Msg("status deleted")
	return nil
}

func (ss *statusService) requireOwner(ctx context.Context, statusID, callerID int) error {
	query := psql.Select("user_id").From("user_statuses").Where(squirrel.Eq{"id": statusID})
	sqlStr, args, err := query.ToSql()
	if err != nil {
		return err
	}
	log.Debug().Str("sql", sqlStr).Interface("args", args).Msg("executing SQL")

	var ownerID int
	err = ss.db.QueryRowContext(ctx, sqlStr, args...).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrStatusNotFound
		}
		log.Error().Err(err).Int("status_id", statusID).Msg("error fetching status owner")
		return err
	}
	if ownerID != callerID {
		return models.ErrForbidden
	}
	return nil
}

func (ss *statusService) userSummary(ctx context.Context, userID int) *models.UserSummary {
	query := psql.Select("id", "username", "profile_pic").
		From("users").
		Where(squirrel.Eq{"id": userID})
	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil
	}

	var u models.UserSummary
	if err := ss.db.QueryRowContext(ctx, sqlStr, args...).Scan(&u.ID, &u.Username, &u.ProfilePic); err != nil {
		log.Error().Err(err).Int("user_id", userID).Msg("error fetching user summary")
		return nil
	}
	return &u
}

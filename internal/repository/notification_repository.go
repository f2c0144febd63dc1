package repository

import (
	"context"
	"time"

	"hrdesk-backend/internal/db"
	"hrdesk-backend/internal/domain"
)

type NoticeRepository struct {
	DB *db.Postgres
}

const noticeColumns = `id, title, body, priority, status, published_at, unpublished_at, created_by, created_at, updated_at`

func (r NoticeRepository) CreateNotice(ctx context.Context, n domain.Notice) (*domain.Notice, error) {
	return scanNotice(r.DB.Pool.QueryRow(ctx, `
		INSERT INTO notices (title, body, priority, status, created_by, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5, now(), now())
		RETURNING `+noticeColumns, n.Title, n.Body, n.Priority, string(n.Status), n.CreatedBy))
}

func (r NoticeRepository) UpdateNotice(ctx context.Context, n domain.Notice) (*domain.Notice, error) {
	out, err := scanNotice(r.DB.Pool.QueryRow(ctx, `
		UPDATE notices SET title=$2, body=$3, priority=$4, updated_at=now()
		WHERE id=$1
		RETURNING `+noticeColumns, n.ID, n.Title, n.Body, n.Priority))
	if err != nil {
		return nil, notFound(err)
	}
	return out, nil
}

func (r NoticeRepository) GetNotice(ctx context.Context, id int64) (*domain.Notice, error) {
	n, err := scanNotice(r.DB.Pool.QueryRow(ctx, `SELECT `+noticeColumns+` FROM notices WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return n, nil
}

func (r NoticeRepository) ListNotices(ctx context.Context, status domain.NoticeStatus) ([]domain.Notice, error) {
	var s *string
	if status != "" {
		v := string(status)
		s = &v
	}
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT `+noticeColumns+` FROM notices
		WHERE ($1::text IS NULL OR status=$1)
		ORDER BY COALESCE(published_at, created_at) DESC, id DESC
	`, s)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanNotice)
}

func (r NoticeRepository) SetNoticeStatus(ctx context.Context, id int64, status domain.NoticeStatus, at time.Time) (*domain.Notice, error) {
	n, err := scanNotice(r.DB.Pool.QueryRow(ctx, `
		UPDATE notices SET
			status=$2,
			published_at=CASE WHEN $2='published' THEN $3 ELSE published_at END,
			unpublished_at=CASE WHEN $2='unpublished' THEN $3 ELSE unpublished_at END,
			updated_at=now()
		WHERE id=$1
		RETURNING `+noticeColumns, id, string(status), at))
	if err != nil {
		return nil, notFound(err)
	}
	return n, nil
}

func (r NoticeRepository) DeleteNotice(ctx context.Context, id int64) error {
	return execOne(ctx, r.DB.Pool, `DELETE FROM notices WHERE id=$1`, id)
}

func scanNotice(row rowScanner) (*domain.Notice, error) {
	var n domain.Notice
	if err := row.Scan(&n.ID, &n.Title, &n.Body, &n.Priority, (*string)(&n.Status), &n.PublishedAt, &n.UnpublishedAt,
		&n.CreatedBy, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	return &n, nil
}

type NotificationRepository struct {
	DB *db.Postgres
}

const notificationColumns = `id, user_id, notice_id, title, message, type, created_at, read_at`

func (r NotificationRepository) CreateNotification(ctx context.Context, n domain.Notification) (*domain.Notification, error) {
	createdAt := n.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	out, err := scanNotification(r.DB.Pool.QueryRow(ctx, `
		INSERT INTO notifications (user_id, notice_id, title, message, type, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING `+notificationColumns, n.UserID, n.NoticeID, n.Title, n.Message, string(n.Type), createdAt))
	if err != nil {
		return nil, writeErr(err)
	}
	return out, nil
}

func (r NotificationRepository) FanOutNotification(ctx context.Context, n domain.Notification) (int, error) {
	createdAt := n.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	tag, err := r.DB.Pool.Exec(ctx, `
		INSERT INTO notifications (user_id, notice_id, title, message, type, created_at)
		SELECT id, $1, $2, $3, $4, $5 FROM users
	`, n.NoticeID, n.Title, n.Message, string(n.Type), createdAt)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r NotificationRepository) ListNotifications(ctx context.Context, userID int64, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanNotification)
}

func (r NotificationRepository) CountUnread(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.DB.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id=$1 AND read_at IS NULL`, userID).Scan(&n)
	return n, err
}

func (r NotificationRepository) MarkRead(ctx context.Context, userID, id int64, at time.Time) error {
	return execOne(ctx, r.DB.Pool, `
		UPDATE notifications SET read_at=COALESCE(read_at, $3) WHERE id=$1 AND user_id=$2
	`, id, userID, at)
}

func (r NotificationRepository) MarkAllRead(ctx context.Context, userID int64, at time.Time) (int, error) {
	tag, err := r.DB.Pool.Exec(ctx, `UPDATE notifications SET read_at=$2 WHERE user_id=$1 AND read_at IS NULL`, userID, at)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func scanNotification(row rowScanner) (*domain.Notification, error) {
	var n domain.Notification
	if err := row.Scan(&n.ID, &n.UserID, &n.NoticeID, &n.Title, &n.Message, (*string)(&n.Type), &n.CreatedAt, &n.ReadAt); err != nil {
		return nil, err
	}
	return &n, nil
}

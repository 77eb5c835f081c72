package repository

import (
	"context"

	"hotelbook/internal/database"
	"hotelbook/internal/models"

	"github.com/lib/pq"
)

type NotificationRepository struct {
	db database.Querier
}

func NewNotificationRepository(db database.Querier) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (user_id, booking_id, notification_type, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_read, created_at`

	return r.db.QueryRowContext(ctx, query, n.UserID, n.BookingID, n.Type, n.Message).
		Scan(&n.ID, &n.IsRead, &n.CreatedAt)
}

func (r *NotificationRepository) ListForUser(ctx context.Context, userID int64, limit, offset int) ([]models.Notification, error) {
	query := `
		SELECT id, user_id, booking_id, notification_type, message, is_read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.BookingID, &n.Type, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *NotificationRepository) UnreadCount(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read`, userID).Scan(&count)
	return count, err
}

// MarkRead reports false when the notification does not belong to userID.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND NOT is_read`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type DeviceTokenRepository struct {
	db database.Querier
}

func NewDeviceTokenRepository(db database.Querier) *DeviceTokenRepository {
	return &DeviceTokenRepository{db: db}
}

// Register binds a token to a user, moving it if another user held it.
func (r *DeviceTokenRepository) Register(ctx context.Context, t *models.DeviceToken) error {
	query := `
		INSERT INTO device_tokens (user_id, token, platform)
		VALUES ($1, $2, $3)
		ON CONFLICT (token) DO UPDATE SET user_id = EXCLUDED.user_id, platform = EXCLUDED.platform
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query, t.UserID, t.Token, t.Platform).Scan(&t.ID, &t.CreatedAt)
}

func (r *DeviceTokenRepository) Unregister(ctx context.Context, userID int64, token string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM device_tokens WHERE user_id = $1 AND token = $2`, userID, token)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *DeviceTokenRepository) TokensForUser(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT token FROM device_tokens WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}

// Prune removes tokens the push provider reported as invalid.
func (r *DeviceTokenRepository) Prune(ctx context.Context, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM device_tokens WHERE token = ANY($1)`, pq.Array(tokens))
	return err
}

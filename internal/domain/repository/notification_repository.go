package repository

import (
	"assignment_desk/internal/domain/model"
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

type NotificationRepository interface {
	// Create stores n unless a notification for the same event and user
	// already exists, in which case it is a no-op.
	Create(ctx context.Context, n *model.Notification) error
	ListByUser(ctx context.Context, userID string) ([]model.Notification, error)
}

type pgNotificationRepository struct {
	db *sql.DB
}

func NewPgNotificationRepository(db *sql.DB) NotificationRepository {
	return &pgNotificationRepository{db: db}
}

func (r *pgNotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	query := `INSERT INTO notifications (id, user_id, assignment_id, event_id, kind, message, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          ON CONFLICT (event_id, user_id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, n.ID, n.UserID, n.AssignmentID, n.EventID, n.Kind, n.Message, n.CreatedAt)
	if err != nil {
		return errors.Wrap(err, "pgNotificationRepository.Create")
	}
	return nil
}

func (r *pgNotificationRepository) ListByUser(ctx context.Context, userID string) ([]model.Notification, error) {
	query := `SELECT id, user_id, assignment_id, event_id, kind, message, created_at
	          FROM notifications WHERE user_id = $1
	          ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, errors.Wrap(err, "pgNotificationRepository.ListByUser query")
	}
	defer rows.Close()

	notifications := []model.Notification{}
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.AssignmentID, &n.EventID, &n.Kind, &n.Message, &n.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "pgNotificationRepository.ListByUser scan")
		}
		notifications = append(notifications, n)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "pgNotificationRepository.ListByUser rows.Err")
	}
	return notifications, nil
}

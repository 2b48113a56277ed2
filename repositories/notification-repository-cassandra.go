package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"task-tracker/logging"
	"task-tracker/models"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
)

type NotificationCassandraRepo struct {
	session *gocql.Session
}

// NewNotificationCassandraRepo connects to host, creating the notifications
// keyspace and table when they are missing.
func NewNotificationCassandraRepo(host string) (*NotificationCassandraRepo, error) {
	cluster := gocql.NewCluster(host)
	cluster.Keyspace = "system"
	cluster.Timeout = 5 * time.Second
	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to cassandra at %s: %w", host, err)
	}

	err = session.Query(
		`CREATE KEYSPACE IF NOT EXISTS notifications
		 WITH replication = {
			 'class': 'SimpleStrategy',
			 'replication_factor': 1
		 }`).Exec()
	session.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to create keyspace: %w", err)
	}

	cluster.Keyspace = "notifications"
	cluster.Consistency = gocql.One
	session, err = cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to notifications keyspace: %w", err)
	}

	repo := &NotificationCassandraRepo{session: session}
	if err := repo.createTable(); err != nil {
		session.Close()
		return nil, err
	}

	logging.Logger.Infof("Event ID: CASSANDRA_CONNECTED, Description: Connected to Cassandra notifications keyspace at %s", host)
	return repo, nil
}

func (r *NotificationCassandraRepo) createTable() error {
	err := r.session.Query(
		`CREATE TABLE IF NOT EXISTS task_notifications (
			id UUID,
			username TEXT,
			task_id TEXT,
			message TEXT,
			created_at TIMESTAMP,
			is_read BOOLEAN,
			PRIMARY KEY ((username), created_at, id)
		) WITH CLUSTERING ORDER BY (created_at DESC, id ASC)`).Exec()
	if err != nil {
		return fmt.Errorf("failed to create notifications table: %w", err)
	}
	return nil
}

func (r *NotificationCassandraRepo) Close() {
	r.session.Close()
	logging.Logger.Info("Event ID: CASSANDRA_SESSION_CLOSED, Description: Cassandra session closed")
}

func (r *NotificationCassandraRepo) Save(ctx context.Context, n models.Notification) error {
	err := r.session.Query(
		`INSERT INTO task_notifications (id, username, task_id, message, created_at, is_read)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		gocql.UUID(n.ID), n.Username, n.TaskID, n.Message, n.CreatedAt, n.IsRead,
	).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}
	return nil
}

// FindByUsername returns the notifications of username, newest first.
func (r *NotificationCassandraRepo) FindByUsername(ctx context.Context, username string) ([]models.Notification, error) {
	iter := r.session.Query(
		`SELECT id, username, task_id, message, created_at, is_read
		 FROM task_notifications WHERE username = ?`,
		username,
	).WithContext(ctx).Iter()

	notifications := []models.Notification{}
	var (
		id gocql.UUID
		n  models.Notification
	)
	for iter.Scan(&id, &n.Username, &n.TaskID, &n.Message, &n.CreatedAt, &n.IsRead) {
		n.ID = uuid.UUID(id)
		notifications = append(notifications, n)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to retrieve notifications: %w", err)
	}
	return notifications, nil
}

// MarkAsRead flags one notification of username as read. The clustering key
// needs created_at, so the row is looked up first.
func (r *NotificationCassandraRepo) MarkAsRead(ctx context.Context, username string, id uuid.UUID) error {
	var createdAt time.Time
	err := r.session.Query(
		`SELECT created_at FROM task_notifications WHERE username = ? AND id = ? ALLOW FILTERING`,
		username, gocql.UUID(id),
	).WithContext(ctx).Scan(&createdAt)
	if errors.Is(err, gocql.ErrNotFound) {
		return ErrNotificationNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to look up notification: %w", err)
	}

	err = r.session.Query(
		`UPDATE task_notifications SET is_read = true WHERE username = ? AND created_at = ? AND id = ?`,
		username, createdAt, gocql.UUID(id),
	).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}
	return nil
}

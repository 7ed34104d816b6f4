package store

import (
	"context"
	"database/sql"

	"github.com/avvvet/card-services/internal/cardsvc/models"
	"github.com/pkg/errors"
)

type SQLiteSubscriberStore struct {
	db *sql.DB
}

func NewSQLiteSubscriberStore(db *sql.DB) *SQLiteSubscriberStore {
	return &SQLiteSubscriberStore{db: db}
}

func (s *SQLiteSubscriberStore) Migrate(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS subscribers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL UNIQUE,
			username TEXT,
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return models.StorageError("migrate subscribers", err)
	}
	return nil
}

func (s *SQLiteSubscriberStore) Upsert(ctx context.Context, sub models.Subscriber) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO subscribers (user_id, username, first_name, last_name)
		VALUES (?, ?, ?, ?)
	`, sub.UserID, sub.Username, sub.FirstName, sub.LastName)
	if err != nil {
		return false, models.StorageError("upsert subscriber", errors.Wrapf(err, "user %d", sub.UserID))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, models.StorageError("upsert subscriber", err)
	}
	return n == 1, nil
}

func (s *SQLiteSubscriberStore) List(ctx context.Context) ([]models.Subscriber, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, COALESCE(username, ''), first_name, last_name, created_at
		FROM subscribers
		ORDER BY id
	`)
	if err != nil {
		return nil, models.StorageError("list subscribers", err)
	}
	defer rows.Close()

	subs := []models.Subscriber{}
	for rows.Next() {
		var sub models.Subscriber
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.Username, &sub.FirstName, &sub.LastName, &sub.CreatedAt); err != nil {
			return nil, models.StorageError("scan subscriber", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, models.StorageError("list subscribers", err)
	}
	return subs, nil
}

package store

import (
	"context"

	"github.com/avvvet/card-services/internal/cardsvc/models"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

type PgSubscriberStore struct {
	db *pgxpool.Pool
}

func NewPgSubscriberStore(db *pgxpool.Pool) *PgSubscriberStore {
	return &PgSubscriberStore{db: db}
}

func (s *PgSubscriberStore) Migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS subscribers (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL UNIQUE,
			username TEXT,
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`
	if _, err := s.db.Exec(ctx, query); err != nil {
		return models.StorageError("migrate subscribers", err)
	}
	return nil
}

func (s *PgSubscriberStore) Upsert(ctx context.Context, sub models.Subscriber) (bool, error) {
	// ON CONFLICT keeps the first record; no prior existence check
	query := `
        INSERT INTO subscribers (user_id, username, first_name, last_name)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (user_id) DO NOTHING;
    `

	tag, err := s.db.Exec(ctx, query, sub.UserID, sub.Username, sub.FirstName, sub.LastName)
	if err != nil {
		return false, models.StorageError("upsert subscriber", errors.Wrapf(err, "user %d", sub.UserID))
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PgSubscriberStore) List(ctx context.Context) ([]models.Subscriber, error) {
	query := `
		SELECT id, user_id, COALESCE(username, ''), first_name, last_name, created_at
		FROM subscribers
		ORDER BY id
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, models.StorageError("list subscribers", err)
	}
	defer rows.Close()

	subs := []models.Subscriber{}
	for rows.Next() {
		var sub models.Subscriber
		err := rows.Scan(
			&sub.ID,
			&sub.UserID,
			&sub.Username,
			&sub.FirstName,
			&sub.LastName,
			&sub.CreatedAt,
		)
		if err != nil {
			return nil, models.StorageError("scan subscriber", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, models.StorageError("list subscribers", err)
	}

	return subs, nil
}

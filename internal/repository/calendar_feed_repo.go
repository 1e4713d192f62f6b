package repository

import (
	"database/sql"
	"fmt"

	"salonbook/internal/db"
)

type CalendarFeedRepository struct {
	DB *sql.DB
}

func NewCalendarFeedRepository(database *sql.DB) *CalendarFeedRepository {
	return &CalendarFeedRepository{DB: database}
}

func (r *CalendarFeedRepository) ListFeedsByProvider(providerID int) ([]db.CalendarFeed, error) {
	rows, err := r.DB.Query(
		`SELECT id, provider_id, calendar_id, access_token, created_at
		 FROM calendar_feeds WHERE provider_id = $1`,
		providerID,
	)
	if err != nil {
		return nil, fmt.Errorf("error querying calendar feeds: %w", err)
	}
	defer rows.Close()

	var feeds []db.CalendarFeed
	for rows.Next() {
		var f db.CalendarFeed
		if err := rows.Scan(&f.ID, &f.ProviderID, &f.CalendarID, &f.AccessToken, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning calendar feed: %w", err)
		}
		feeds = append(feeds, f)
	}
	return feeds, rows.Err()
}

func (r *CalendarFeedRepository) CreateFeed(f *db.CalendarFeed) error {
	return r.DB.QueryRow(
		`INSERT INTO calendar_feeds (provider_id, calendar_id, access_token)
		 VALUES ($1, $2, $3) RETURNING id, created_at`,
		f.ProviderID, f.CalendarID, f.AccessToken,
	).Scan(&f.ID, &f.CreatedAt)
}

func (r *CalendarFeedRepository) DeleteFeed(providerID, feedID int) error {
	res, err := r.DB.Exec(
		`DELETE FROM calendar_feeds WHERE provider_id = $1 AND id = $2`,
		providerID, feedID,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

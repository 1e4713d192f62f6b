package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"salonbook/internal/db"
)

type EventTypeRepository struct {
	DB *sql.DB
}

func NewEventTypeRepository(database *sql.DB) *EventTypeRepository {
	return &EventTypeRepository{DB: database}
}

func (r *EventTypeRepository) ListEventTypes(salonID int) ([]db.EventType, error) {
	rows, err := r.DB.Query(
		`SELECT id, salon_id, name, duration_min, slot_interval_min, min_notice_min,
		        buffer_before_min, buffer_after_min, price_cents, currency
		 FROM event_types WHERE salon_id = $1 ORDER BY name`,
		salonID,
	)
	if err != nil {
		return nil, fmt.Errorf("error querying event types: %w", err)
	}
	defer rows.Close()

	var types []db.EventType
	for rows.Next() {
		var et db.EventType
		err := rows.Scan(&et.ID, &et.SalonID, &et.Name, &et.DurationMin, &et.SlotIntervalMin,
			&et.MinNoticeMin, &et.BufferBeforeMin, &et.BufferAfterMin, &et.PriceCents, &et.Currency)
		if err != nil {
			return nil, fmt.Errorf("error scanning event type: %w", err)
		}
		types = append(types, et)
	}
	return types, rows.Err()
}

func (r *EventTypeRepository) GetEventType(salonID, id int) (*db.EventType, error) {
	var et db.EventType
	err := r.DB.QueryRow(
		`SELECT id, salon_id, name, duration_min, slot_interval_min, min_notice_min,
		        buffer_before_min, buffer_after_min, price_cents, currency
		 FROM event_types WHERE salon_id = $1 AND id = $2`,
		salonID, id,
	).Scan(&et.ID, &et.SalonID, &et.Name, &et.DurationMin, &et.SlotIntervalMin,
		&et.MinNoticeMin, &et.BufferBeforeMin, &et.BufferAfterMin, &et.PriceCents, &et.Currency)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("event type %d not found: %w", id, err)
		}
		return nil, fmt.Errorf("error querying event type: %w", err)
	}
	return &et, nil
}

func (r *EventTypeRepository) CreateEventType(et *db.EventType) error {
	return r.DB.QueryRow(
		`INSERT INTO event_types
		 (salon_id, name, duration_min, slot_interval_min, min_notice_min,
		  buffer_before_min, buffer_after_min, price_cents, currency)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		et.SalonID, et.Name, et.DurationMin, et.SlotIntervalMin, et.MinNoticeMin,
		et.BufferBeforeMin, et.BufferAfterMin, et.PriceCents, et.Currency,
	).Scan(&et.ID)
}

func (r *EventTypeRepository) UpdateEventType(et *db.EventType) error {
	res, err := r.DB.Exec(
		`UPDATE event_types
		 SET name = $1, duration_min = $2, slot_interval_min = $3, min_notice_min = $4,
		     buffer_before_min = $5, buffer_after_min = $6, price_cents = $7, currency = $8
		 WHERE salon_id = $9 AND id = $10`,
		et.Name, et.DurationMin, et.SlotIntervalMin, et.MinNoticeMin,
		et.BufferBeforeMin, et.BufferAfterMin, et.PriceCents, et.Currency,
		et.SalonID, et.ID,
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

func (r *EventTypeRepository) DeleteEventType(salonID, id int) error {
	res, err := r.DB.Exec(`DELETE FROM event_types WHERE salon_id = $1 AND id = $2`, salonID, id)
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

package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"salonbook/internal/db"
)

type ScheduleRepository struct {
	DB *sql.DB
}

func NewScheduleRepository(database *sql.DB) *ScheduleRepository {
	return &ScheduleRepository{DB: database}
}

func (r *ScheduleRepository) GetProvider(salonID, providerID int) (*db.Provider, error) {
	var p db.Provider
	err := r.DB.QueryRow(
		`SELECT id, salon_id, name, time_zone, active FROM providers WHERE salon_id = $1 AND id = $2`,
		salonID, providerID,
	).Scan(&p.ID, &p.SalonID, &p.Name, &p.TimeZone, &p.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("provider %d not found: %w", providerID, err)
		}
		return nil, fmt.Errorf("error querying provider: %w", err)
	}
	return &p, nil
}

func (r *ScheduleRepository) ListWeeklyRules(providerID int) ([]db.WeeklyRule, error) {
	rows, err := r.DB.Query(
		`SELECT id, provider_id, day_of_week, start_time, end_time
		 FROM weekly_rules WHERE provider_id = $1
		 ORDER BY day_of_week, start_time`,
		providerID,
	)
	if err != nil {
		return nil, fmt.Errorf("error querying weekly rules: %w", err)
	}
	defer rows.Close()

	var rules []db.WeeklyRule
	for rows.Next() {
		var rule db.WeeklyRule
		if err := rows.Scan(&rule.ID, &rule.ProviderID, &rule.DayOfWeek, &rule.StartTime, &rule.EndTime); err != nil {
			return nil, fmt.Errorf("error scanning weekly rule: %w", err)
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func (r *ScheduleRepository) CreateWeeklyRule(rule *db.WeeklyRule) error {
	return r.DB.QueryRow(
		`INSERT INTO weekly_rules (provider_id, day_of_week, start_time, end_time)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		rule.ProviderID, rule.DayOfWeek, rule.StartTime, rule.EndTime,
	).Scan(&rule.ID)
}

func (r *ScheduleRepository) DeleteWeeklyRule(providerID, ruleID int) error {
	res, err := r.DB.Exec(
		`DELETE FROM weekly_rules WHERE provider_id = $1 AND id = $2`,
		providerID, ruleID,
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

// ListOverrides returns the provider's overrides inside [from, to], both
// "2006-01-02" dates inclusive.
func (r *ScheduleRepository) ListOverrides(providerID int, from, to string) ([]db.DateOverride, error) {
	rows, err := r.DB.Query(
		`SELECT id, provider_id, date, start_time, end_time
		 FROM date_overrides WHERE provider_id = $1 AND date >= $2 AND date <= $3
		 ORDER BY date`,
		providerID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("error querying date overrides: %w", err)
	}
	defer rows.Close()

	var overrides []db.DateOverride
	for rows.Next() {
		var o db.DateOverride
		if err := rows.Scan(&o.ID, &o.ProviderID, &o.Date, &o.StartTime, &o.EndTime); err != nil {
			return nil, fmt.Errorf("error scanning date override: %w", err)
		}
		overrides = append(overrides, o)
	}
	return overrides, rows.Err()
}

// UpsertOverride inserts or replaces the override for its date; the schema's
// UNIQUE(provider_id, date) keeps the at-most-one-per-date invariant.
func (r *ScheduleRepository) UpsertOverride(o *db.DateOverride) error {
	return r.DB.QueryRow(
		`INSERT INTO date_overrides (provider_id, date, start_time, end_time)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (provider_id, date)
		 DO UPDATE SET start_time = EXCLUDED.start_time, end_time = EXCLUDED.end_time
		 RETURNING id`,
		o.ProviderID, o.Date, o.StartTime, o.EndTime,
	).Scan(&o.ID)
}

func (r *ScheduleRepository) DeleteOverride(providerID int, date string) error {
	res, err := r.DB.Exec(
		`DELETE FROM date_overrides WHERE provider_id = $1 AND date = $2`,
		providerID, date,
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

package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"salonbook/internal/db"
)

type StaffAuthRepository interface {
	GetByEmail(email string) (*db.Staff, error)
	CreateSalonWithOwner(salonName, email, password, phone, otp string, otpExpires time.Time) error
	SetOTP(staffID int, otp string, expires time.Time) error
	MarkVerified(staffID int) error
}

type staffAuthRepository struct {
	db *sql.DB
}

func NewStaffAuthRepository(database *sql.DB) StaffAuthRepository {
	return &staffAuthRepository{db: database}
}

func (r *staffAuthRepository) GetByEmail(email string) (*db.Staff, error) {
	var s db.Staff
	err := r.db.QueryRow(
		`SELECT id, salon_id, email, password_hash, phone, verified, otp_code, otp_expires_at
		 FROM staff WHERE email = $1`,
		email,
	).Scan(&s.ID, &s.SalonID, &s.Email, &s.PasswordHash, &s.Phone, &s.Verified, &s.OTPCode, &s.OTPExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// CreateSalonWithOwner creates the tenant row and its owner account in one
// transaction; the owner starts unverified until the OTP is confirmed.
func (r *staffAuthRepository) CreateSalonWithOwner(salonName, email, password, phone, otp string, otpExpires time.Time) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var salonID int
	err = tx.QueryRow(
		`INSERT INTO salons (name, plan_status) VALUES ($1, 'trial') RETURNING id`,
		salonName,
	).Scan(&salonID)
	if err != nil {
		return fmt.Errorf("error creating salon: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO staff (salon_id, email, password_hash, phone, verified, otp_code, otp_expires_at)
		 VALUES ($1, $2, $3, $4, false, $5, $6)`,
		salonID, email, hashed, phone, otp, otpExpires,
	)
	if err != nil {
		return fmt.Errorf("error creating staff account: %w", err)
	}

	return tx.Commit()
}

func (r *staffAuthRepository) SetOTP(staffID int, otp string, expires time.Time) error {
	_, err := r.db.Exec(
		`UPDATE staff SET otp_code = $1, otp_expires_at = $2 WHERE id = $3`,
		otp, expires, staffID,
	)
	return err
}

func (r *staffAuthRepository) MarkVerified(staffID int) error {
	_, err := r.db.Exec(
		`UPDATE staff SET verified = true, otp_code = '' WHERE id = $1`,
		staffID,
	)
	return err
}

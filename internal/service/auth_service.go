package service

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"salonbook/internal/repository"
	"salonbook/internal/utils"
)

const otpTTL = 10 * time.Minute

type StaffAuthService interface {
	Signup(salonName, email, password, phone string) error
	VerifyOTP(email, code string) error
	ResendOTP(email string) error
	Login(email, password string) (string, error)
}

type staffAuthService struct {
	repo repository.StaffAuthRepository
	// sendCode delivers the OTP; swapped out in tests.
	sendCode func(phone, message string) error
}

func NewStaffAuthService(repo repository.StaffAuthRepository) StaffAuthService {
	return &staffAuthService{repo: repo, sendCode: SendSMS}
}

// Signup creates the salon and its owner account in one step. The account
// stays unverified until the SMS code is confirmed.
func (s *staffAuthService) Signup(salonName, email, password, phone string) error {
	if salonName == "" || email == "" || password == "" || phone == "" {
		return errors.New("salon name, email, password and phone are all required")
	}

	existing, err := s.repo.GetByEmail(email)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrEmailTaken
	}

	otp, err := generateOTP()
	if err != nil {
		return err
	}
	if err := s.repo.CreateSalonWithOwner(salonName, email, password, phone, otp, time.Now().UTC().Add(otpTTL)); err != nil {
		return err
	}

	s.deliverOTP(phone, otp)
	return nil
}

func (s *staffAuthService) VerifyOTP(email, code string) error {
	staff, err := s.repo.GetByEmail(email)
	if err != nil {
		return err
	}
	if staff == nil {
		return ErrOTPInvalid
	}
	if staff.Verified {
		return nil
	}
	if code == "" || time.Now().UTC().After(staff.OTPExpiresAt) {
		return ErrOTPInvalid
	}
	if subtle.ConstantTimeCompare([]byte(staff.OTPCode), []byte(code)) != 1 {
		return ErrOTPInvalid
	}
	return s.repo.MarkVerified(staff.ID)
}

func (s *staffAuthService) ResendOTP(email string) error {
	staff, err := s.repo.GetByEmail(email)
	if err != nil {
		return err
	}
	if staff == nil || staff.Verified {
		return ErrOTPInvalid
	}

	otp, err := generateOTP()
	if err != nil {
		return err
	}
	if err := s.repo.SetOTP(staff.ID, otp, time.Now().UTC().Add(otpTTL)); err != nil {
		return err
	}

	s.deliverOTP(staff.Phone, otp)
	return nil
}

func (s *staffAuthService) Login(email, password string) (string, error) {
	staff, err := s.repo.GetByEmail(email)
	if err != nil {
		return "", err
	}
	if staff == nil {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(staff.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	if !staff.Verified {
		return "", ErrAccountNotVerified
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return "", errors.New("JWT_SECRET not set")
	}

	claims := jwt.MapClaims{
		"staff_id": staff.ID,
		"salon_id": staff.SalonID,
		"email":    staff.Email,
		"exp":      time.Now().Add(time.Hour * 1).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func (s *staffAuthService) deliverOTP(phone, otp string) {
	message := fmt.Sprintf("Your SalonBook verification code is %s. It expires in %d minutes.", otp, int(otpTTL.Minutes()))
	go func() {
		if err := s.sendCode(phone, message); err != nil {
			utils.GetLogger().Error("sending verification SMS failed", zap.String("phone", phone), zap.Error(err))
		}
	}()
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("error generating verification code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

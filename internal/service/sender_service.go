package service

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"salonbook/internal/entities"
	"salonbook/internal/utils"
)

// SenderService delivers booking status notifications by email and SMS. It
// implements Notifier; all sends are best effort and never fail the caller.
type SenderService struct {
	SalonName string
	// DisplayZone is the zone booking times are rendered in. Notifications
	// are fire-and-forget so this stays a coarse per-deployment setting.
	DisplayZone *time.Location
}

func NewSenderService() *SenderService {
	name := os.Getenv("BRAND_NAME")
	if name == "" {
		name = "SalonBook"
	}
	zone, err := time.LoadLocation(os.Getenv("DISPLAY_TIME_ZONE"))
	if err != nil {
		zone = time.UTC
	}
	return &SenderService{SalonName: name, DisplayZone: zone}
}

func (s *SenderService) NotifyBookingStatus(booking entities.BookingResponse, status string) {
	translated := statusTranslation(status, booking.Language)
	s.sendBookingEmail(booking, translated)
	s.sendBookingSMS(booking, translated)
}

func (s *SenderService) sendBookingEmail(booking entities.BookingResponse, status string) {
	logger := utils.GetLogger()

	emailData := entities.BookingEmailData{
		ClientName:         booking.ClientName,
		BookingCode:        booking.Code,
		SalonName:          s.SalonName,
		EventTypeName:      booking.EventTypeName,
		ProviderName:       booking.ProviderName,
		StartTimeFormatted: booking.StartTime.In(s.DisplayZone).Format("02 Jan 2006 15:04 MST"),
		EndTimeFormatted:   booking.EndTime.In(s.DisplayZone).Format("02 Jan 2006 15:04 MST"),
		CurrentYear:        time.Now().In(s.DisplayZone).Year(),
		Language:           booking.Language,
		Status:             status,
	}

	var emailSubject, plainTextBody string
	switch booking.Language {
	case "es":
		emailSubject = fmt.Sprintf("Tu cita en %s está %s - Código: %s", s.SalonName, status, booking.Code)
		plainTextBody = fmt.Sprintf(
			"Hola %s,\n\nTu cita en %s está %s.\n\n"+
				"Detalles de la cita:\n"+
				"Código: %s\n"+
				"Inicio: %s\n"+
				"Fin: %s\n\n"+
				"Gracias por elegir %s.",
			booking.ClientName, s.SalonName, status, booking.Code,
			emailData.StartTimeFormatted, emailData.EndTimeFormatted, s.SalonName,
		)
	default:
		emailSubject = fmt.Sprintf("Your %s appointment is %s - Code: %s", s.SalonName, status, booking.Code)
		plainTextBody = fmt.Sprintf(
			"Hello %s,\n\nYour appointment at %s is %s.\n\n"+
				"Appointment details:\n"+
				"Code: %s\n"+
				"Starts: %s\n"+
				"Ends: %s\n\n"+
				"Thank you for choosing %s.",
			booking.ClientName, s.SalonName, status, booking.Code,
			emailData.StartTimeFormatted, emailData.EndTimeFormatted, s.SalonName,
		)
	}

	var htmlBody string
	tmplPath := filepath.Join("internal", "templates", "booking_email.html")
	tmpl, err := template.ParseFiles(tmplPath)
	if err != nil {
		logger.Warn("parsing email template failed, sending plain text only",
			zap.String("path", tmplPath), zap.Error(err))
	} else {
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, emailData); err != nil {
			logger.Warn("rendering email template failed",
				zap.String("code", booking.Code), zap.Error(err))
		} else {
			htmlBody = buf.String()
		}
	}

	go func(toEmail, toName, subject, plainBody, htmlBodyContent string) {
		if err := SendEmailWithSendGrid(toEmail, toName, subject, plainBody, htmlBodyContent); err != nil {
			utils.GetLogger().Error("sending booking email failed",
				zap.String("code", booking.Code), zap.Error(err))
		}
	}(booking.ClientEmail, booking.ClientName, emailSubject, plainTextBody, htmlBody)
}

func (s *SenderService) sendBookingSMS(booking entities.BookingResponse, status string) {
	start := booking.StartTime.In(s.DisplayZone).Format("02/01 15:04")

	var smsMessage string
	switch booking.Language {
	case "es":
		smsMessage = fmt.Sprintf("%s: ¡Tu cita %s está %s!\nInicio: %s.\nMás detalles en tu correo.",
			s.SalonName, booking.Code, status, start)
	default:
		smsMessage = fmt.Sprintf("%s: Appointment %s is %s!\nStarts: %s.\nMore details in your email.",
			s.SalonName, booking.Code, status, start)
	}

	go func(phone, message string) {
		if err := SendSMS(phone, message); err != nil {
			utils.GetLogger().Error("sending booking SMS failed",
				zap.String("code", booking.Code), zap.String("phone", phone), zap.Error(err))
		}
	}(booking.ClientPhone, smsMessage)
}

func statusTranslation(status, lang string) string {
	if lang == "es" {
		switch status {
		case statusPending:
			return "pendiente"
		case statusConfirmed:
			return "confirmada"
		case "completed":
			return "completada"
		case statusCancelled:
			return "cancelada"
		}
	}
	return status
}

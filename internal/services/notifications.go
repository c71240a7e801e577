package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/medicore/clinic-api/internal/models"
)

// NotificationService sends SMS through the Textbelt HTTP API.
type NotificationService struct {
	apiKey string
}

func NewNotificationService(apiKey string) *NotificationService {
	return &NotificationService{apiKey: apiKey}
}

// SendBookingConfirmationSMS tells the patient their claim on a slot went
// through. Fired in a goroutine so it never blocks the API response.
func (s *NotificationService) SendBookingConfirmationSMS(patient *models.User, apt *models.Appointment, doctorName string) {
	if patient.Phone == "" {
		log.Println("SMS not sent: Patient has no phone number.")
		return
	}

	smsBody := fmt.Sprintf(
		"Appointment booked: Dr. %s on %s. Payment (%s) is pending.",
		doctorName,
		apt.AppointmentDate.Format("Jan 2 at 3:04 PM"),
		apt.Payment.Method,
	)

	go s.sendSMS(patient.Phone, smsBody)
}

// SendCancellationSMS tells the patient a booked slot was cancelled.
func (s *NotificationService) SendCancellationSMS(patient *models.User, apt *models.Appointment) {
	if patient.Phone == "" {
		log.Println("SMS not sent: Patient has no phone number.")
		return
	}

	smsBody := fmt.Sprintf(
		"Appointment on %s has been cancelled.",
		apt.AppointmentDate.Format("Jan 2 at 3:04 PM"),
	)

	go s.sendSMS(patient.Phone, smsBody)
}

func (s *NotificationService) sendSMS(phone, message string) {
	// Textbelt free key allows 1 SMS per day. Get a paid key for more.
	postBody, _ := json.Marshal(map[string]string{
		"phone":   phone,
		"message": message,
		"key":     s.apiKey,
	})

	resp, err := http.Post("https://textbelt.com/text", "application/json", bytes.NewBuffer(postBody))
	if err != nil {
		log.Printf("Failed to send Textbelt request for number %s: %v", phone, err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)

	success, _ := result["success"].(bool)
	if !success {
		errorMsg, _ := result["error"].(string)
		log.Printf("Failed to send SMS via Textbelt to %s. Reason: %s", phone, errorMsg)
	} else {
		log.Printf("Successfully sent SMS via Textbelt to %s", phone)
	}
}

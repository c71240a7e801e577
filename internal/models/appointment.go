package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Appointment statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusDone      = "done"
)

// Payment methods.
const (
	MethodCash   = "cash"
	MethodPaypal = "paypal"
	MethodCard   = "card"
)

// Payment statuses.
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
	PaymentFailed  = "failed"
)

// Payment is the sub-record embedded in an appointment. Choosing a method
// stamps MethodChosenAt; PaidAt is set only when the payment settles.
type Payment struct {
	Amount         float64    `bson:"amount" json:"amount"`
	Method         string     `bson:"method" json:"method"`
	Status         string     `bson:"status" json:"status"`
	MethodChosenAt *time.Time `bson:"methodChosenAt,omitempty" json:"methodChosenAt,omitempty"`
	PaidAt         *time.Time `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	ReceiptRef     string     `bson:"receiptRef,omitempty" json:"receiptRef,omitempty"`
}

// Appointment is a bookable slot. PatientID is nil while the slot is open;
// once a patient claims it the reference never reverts (cancellation only
// changes the status).
type Appointment struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	DoctorID        primitive.ObjectID  `bson:"doctorId" json:"doctorId"`
	PatientID       *primitive.ObjectID `bson:"patientId" json:"patientId"`
	AppointmentDate time.Time           `bson:"appointmentDate" json:"appointmentDate"`
	Status          string              `bson:"status" json:"status"`
	Payment         Payment             `bson:"payment" json:"payment"`
	Diagnosis       string              `bson:"diagnosis" json:"diagnosis"`
	Feedback        string              `bson:"feedback,omitempty" json:"feedback,omitempty"`
	Rating          int                 `bson:"rating,omitempty" json:"rating,omitempty"`
}

// Open reports whether the slot can still be claimed.
func (a *Appointment) Open() bool {
	return a.PatientID == nil && a.Status == StatusPending
}

func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusDone:
		return true
	}
	return false
}

func ValidMethod(m string) bool {
	switch m {
	case MethodCash, MethodPaypal, MethodCard:
		return true
	}
	return false
}

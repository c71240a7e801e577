package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/medicore/clinic-api/internal/models"
)

// Sentinel errors. Handlers map these to 404/409; anything else is a
// datastore failure and becomes a 500.
var (
	ErrNotFound       = errors.New("store: not found")
	ErrSlotClaimed    = errors.New("store: slot already claimed")
	ErrDuplicateEmail = errors.New("store: email already registered")
	ErrDoctorExists   = errors.New("store: doctor record already exists")
	ErrAlreadySettled = errors.New("store: payment already settled")
)

// ClinicalUpdate carries the fields a doctor may change on their own slot.
// Nil means "leave untouched".
type ClinicalUpdate struct {
	Status    *string
	Diagnosis *string
}

// DoctorInfo is the slice of doctor data joined into slot listings.
type DoctorInfo struct {
	ID             primitive.ObjectID `json:"id"`
	Name           string             `json:"name"`
	Specialization string             `json:"specialization"`
	Price          float64            `json:"price"`
}

// OpenSlot is an unclaimed appointment with its doctor's public details.
type OpenSlot struct {
	models.Appointment
	Doctor DoctorInfo `json:"doctor"`
}

// DoctorSlot is a doctor's appointment with the booked patient joined in.
type DoctorSlot struct {
	models.Appointment
	PatientName  string `json:"patientName,omitempty"`
	PatientEmail string `json:"patientEmail,omitempty"`
}

// PatientSlot is a patient's appointment with the doctor's name joined in.
type PatientSlot struct {
	models.Appointment
	DoctorName     string `json:"doctorName"`
	Specialization string `json:"specialization"`
}

// OpenSlotQuery filters the open-slot listing. Date restricts to a single
// day; DoctorName and Category are case-insensitive substring matches
// against the doctor's display name and specialization.
type OpenSlotQuery struct {
	Date       *time.Time
	DoctorName string
	Category   string
}

type AppointmentStore interface {
	Insert(ctx context.Context, apt *models.Appointment) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Appointment, error)
	ListOpen(ctx context.Context, q OpenSlotQuery) ([]OpenSlot, error)
	ListByDoctor(ctx context.Context, doctorID primitive.ObjectID) ([]DoctorSlot, error)
	ListByPatient(ctx context.Context, patientID primitive.ObjectID) ([]PatientSlot, error)
	Claim(ctx context.Context, id, patientID primitive.ObjectID, amount float64, method string, at time.Time) error
	UpdateClinical(ctx context.Context, id primitive.ObjectID, upd ClinicalUpdate) error
	SetStatus(ctx context.Context, id primitive.ObjectID, status string) error
	SetFeedback(ctx context.Context, id primitive.ObjectID, feedback string, rating int) error
	SetPaymentMethod(ctx context.Context, id primitive.ObjectID, method string, at time.Time) error
	SettlePayment(ctx context.Context, id primitive.ObjectID, at time.Time, receiptRef string) error
}

type UserStore interface {
	Insert(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error)
	List(ctx context.Context) ([]models.User, error)
	SetRole(ctx context.Context, id primitive.ObjectID, role string) error
	UpdateProfile(ctx context.Context, id primitive.ObjectID, name, phone string) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type DoctorStore interface {
	Insert(ctx context.Context, d *models.Doctor) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Doctor, error)
	FindByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Doctor, error)
}

type ContactStore interface {
	Insert(ctx context.Context, c *models.Contact) error
}

// Store bundles the mongo-backed implementations over one database handle.
type Store struct {
	Appointments AppointmentStore
	Users        UserStore
	Doctors      DoctorStore
	Contacts     ContactStore
}

func New(db *mongo.Database) *Store {
	return &Store{
		Appointments: &appointmentStore{db: db},
		Users:        &userStore{db: db},
		Doctors:      &doctorStore{db: db},
		Contacts:     &contactStore{db: db},
	}
}

// EnsureIndexes creates the indexes the invariants depend on: unique user
// emails, one doctor record per user, and the slot-listing access paths.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("users").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}
	_, err = db.Collection("doctors").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}
	_, err = db.Collection("appointments").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "doctorId", Value: 1}, {Key: "appointmentDate", Value: 1}}},
		{Keys: bson.D{{Key: "patientId", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "appointmentDate", Value: 1}}},
	})
	return err
}

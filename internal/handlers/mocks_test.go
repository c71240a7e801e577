package handlers

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/medicore/clinic-api/internal/models"
	"github.com/medicore/clinic-api/internal/store"
)

// -- In-memory fakes for the store interfaces --

type mockUserStore struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]models.User
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{users: make(map[primitive.ObjectID]models.User)}
}

func (m *mockUserStore) Insert(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return store.ErrDuplicateEmail
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	m.users[u.ID] = *u
	return nil
}

func (m *mockUserStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (m *mockUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockUserStore) FindByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[primitive.ObjectID]models.User, len(ids))
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (m *mockUserStore) List(_ context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *mockUserStore) SetRole(_ context.Context, id primitive.ObjectID, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.Role = role
	m.users[id] = u
	return nil
}

func (m *mockUserStore) UpdateProfile(_ context.Context, id primitive.ObjectID, name, phone string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return store.ErrNotFound
	}
	if name != "" {
		u.Name = name
	}
	if phone != "" {
		u.Phone = phone
	}
	m.users[id] = u
	return nil
}

func (m *mockUserStore) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

type mockDoctorStore struct {
	mu      sync.Mutex
	doctors map[primitive.ObjectID]models.Doctor
}

func newMockDoctorStore() *mockDoctorStore {
	return &mockDoctorStore{doctors: make(map[primitive.ObjectID]models.Doctor)}
}

func (m *mockDoctorStore) Insert(_ context.Context, d *models.Doctor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.doctors {
		if existing.UserID == d.UserID {
			return store.ErrDoctorExists
		}
	}
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	m.doctors[d.ID] = *d
	return nil
}

func (m *mockDoctorStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.doctors[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &d, nil
}

func (m *mockDoctorStore) FindByUserID(_ context.Context, userID primitive.ObjectID) (*models.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.doctors {
		if d.UserID == userID {
			d := d
			return &d, nil
		}
	}
	return nil, store.ErrNotFound
}

type mockContactStore struct {
	mu       sync.Mutex
	messages []models.Contact
}

func (m *mockContactStore) Insert(_ context.Context, c *models.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, *c)
	return nil
}

// mockAppointmentStore mirrors the mongo store's semantics, including the
// conditional claim and settle updates.
type mockAppointmentStore struct {
	mu           sync.Mutex
	appointments map[primitive.ObjectID]models.Appointment
	doctors      *mockDoctorStore
	users        *mockUserStore
}

func newMockAppointmentStore(doctors *mockDoctorStore, users *mockUserStore) *mockAppointmentStore {
	return &mockAppointmentStore{
		appointments: make(map[primitive.ObjectID]models.Appointment),
		doctors:      doctors,
		users:        users,
	}
}

func (m *mockAppointmentStore) Insert(_ context.Context, apt *models.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if apt.ID.IsZero() {
		apt.ID = primitive.NewObjectID()
	}
	m.appointments[apt.ID] = *apt
	return nil
}

func (m *mockAppointmentStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	apt, ok := m.appointments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &apt, nil
}

func (m *mockAppointmentStore) ListOpen(ctx context.Context, q store.OpenSlotQuery) ([]store.OpenSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	slots := make([]store.OpenSlot, 0)
	for _, apt := range m.appointments {
		if apt.Status != models.StatusPending || apt.PatientID != nil {
			continue
		}
		if apt.AppointmentDate.Before(now) {
			continue
		}
		if q.Date != nil {
			y1, m1, d1 := q.Date.Date()
			y2, m2, d2 := apt.AppointmentDate.Date()
			if y1 != y2 || m1 != m2 || d1 != d2 {
				continue
			}
		}
		doctor, err := m.doctors.FindByID(ctx, apt.DoctorID)
		if err != nil {
			continue
		}
		name := ""
		if u, err := m.users.FindByID(ctx, doctor.UserID); err == nil {
			name = u.Name
		}
		if q.DoctorName != "" && !strings.Contains(strings.ToLower(name), strings.ToLower(q.DoctorName)) {
			continue
		}
		if q.Category != "" && !strings.Contains(strings.ToLower(doctor.Specialization), strings.ToLower(q.Category)) {
			continue
		}
		slots = append(slots, store.OpenSlot{
			Appointment: apt,
			Doctor: store.DoctorInfo{
				ID:             doctor.ID,
				Name:           name,
				Specialization: doctor.Specialization,
				Price:          doctor.Price,
			},
		})
	}
	return slots, nil
}

func (m *mockAppointmentStore) ListByDoctor(ctx context.Context, doctorID primitive.ObjectID) ([]store.DoctorSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	slots := make([]store.DoctorSlot, 0)
	for _, apt := range m.appointments {
		if apt.DoctorID != doctorID {
			continue
		}
		slot := store.DoctorSlot{Appointment: apt}
		if apt.PatientID != nil {
			if u, err := m.users.FindByID(ctx, *apt.PatientID); err == nil {
				slot.PatientName = u.Name
				slot.PatientEmail = u.Email
			}
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

func (m *mockAppointmentStore) ListByPatient(ctx context.Context, patientID primitive.ObjectID) ([]store.PatientSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	slots := make([]store.PatientSlot, 0)
	for _, apt := range m.appointments {
		if apt.PatientID == nil || *apt.PatientID != patientID {
			continue
		}
		slot := store.PatientSlot{Appointment: apt}
		if d, err := m.doctors.FindByID(ctx, apt.DoctorID); err == nil {
			slot.Specialization = d.Specialization
			if u, err := m.users.FindByID(ctx, d.UserID); err == nil {
				slot.DoctorName = u.Name
			}
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

func (m *mockAppointmentStore) Claim(_ context.Context, id, patientID primitive.ObjectID, amount float64, method string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	apt, ok := m.appointments[id]
	if !ok {
		return store.ErrNotFound
	}
	if apt.PatientID != nil || apt.Status != models.StatusPending {
		return store.ErrSlotClaimed
	}
	apt.PatientID = &patientID
	apt.Payment.Amount = amount
	apt.Payment.Method = method
	apt.Payment.Status = models.PaymentPending
	apt.Payment.MethodChosenAt = &at
	m.appointments[id] = apt
	return nil
}

func (m *mockAppointmentStore) UpdateClinical(_ context.Context, id primitive.ObjectID, upd store.ClinicalUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	apt, ok := m.appointments[id]
	if !ok {
		return store.ErrNotFound
	}
	if upd.Status != nil {
		apt.Status = *upd.Status
	}
	if upd.Diagnosis != nil {
		apt.Diagnosis = *upd.Diagnosis
	}
	m.appointments[id] = apt
	return nil
}

func (m *mockAppointmentStore) SetStatus(_ context.Context, id primitive.ObjectID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	apt, ok := m.appointments[id]
	if !ok {
		return store.ErrNotFound
	}
	apt.Status = status
	m.appointments[id] = apt
	return nil
}

func (m *mockAppointmentStore) SetFeedback(_ context.Context, id primitive.ObjectID, feedback string, rating int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	apt, ok := m.appointments[id]
	if !ok {
		return store.ErrNotFound
	}
	apt.Feedback = feedback
	if rating != 0 {
		apt.Rating = rating
	}
	m.appointments[id] = apt
	return nil
}

func (m *mockAppointmentStore) SetPaymentMethod(_ context.Context, id primitive.ObjectID, method string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	apt, ok := m.appointments[id]
	if !ok {
		return store.ErrNotFound
	}
	apt.Payment.Method = method
	apt.Payment.Status = models.PaymentPending
	apt.Payment.MethodChosenAt = &at
	m.appointments[id] = apt
	return nil
}

func (m *mockAppointmentStore) SettlePayment(_ context.Context, id primitive.ObjectID, at time.Time, receiptRef string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	apt, ok := m.appointments[id]
	if !ok {
		return store.ErrNotFound
	}
	if apt.Payment.Status != models.PaymentPending {
		return store.ErrAlreadySettled
	}
	apt.Payment.Status = models.PaymentPaid
	apt.Payment.PaidAt = &at
	apt.Payment.ReceiptRef = receiptRef
	m.appointments[id] = apt
	return nil
}

func (m *mockAppointmentStore) get(id primitive.ObjectID) models.Appointment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appointments[id]
}

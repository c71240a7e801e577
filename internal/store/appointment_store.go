package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/medicore/clinic-api/internal/models"
)

type appointmentStore struct {
	db *mongo.Database
}

func (s *appointmentStore) collection() *mongo.Collection {
	return s.db.Collection("appointments")
}

func (s *appointmentStore) Insert(ctx context.Context, apt *models.Appointment) error {
	if apt.ID.IsZero() {
		apt.ID = primitive.NewObjectID()
	}
	_, err := s.collection().InsertOne(ctx, apt)
	return err
}

func (s *appointmentStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Appointment, error) {
	var apt models.Appointment
	err := s.collection().FindOne(ctx, bson.M{"_id": id}).Decode(&apt)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &apt, nil
}

// openSlotFilter builds the appointment-side filter for the open listing:
// unclaimed, still pending, and never in the past. A requested date narrows
// the window to that day, clipped at the current time.
func openSlotFilter(q OpenSlotQuery, doctorIDs []primitive.ObjectID, now time.Time) bson.M {
	start := now
	filter := bson.M{
		"status":    models.StatusPending,
		"patientId": nil,
	}
	if q.Date != nil {
		dayStart := time.Date(q.Date.Year(), q.Date.Month(), q.Date.Day(), 0, 0, 0, 0, q.Date.Location())
		dayEnd := dayStart.Add(24 * time.Hour)
		if dayStart.After(start) {
			start = dayStart
		}
		filter["appointmentDate"] = bson.M{"$gte": start, "$lt": dayEnd}
	} else {
		filter["appointmentDate"] = bson.M{"$gte": start}
	}
	if doctorIDs != nil {
		filter["doctorId"] = bson.M{"$in": doctorIDs}
	}
	return filter
}

func (s *appointmentStore) ListOpen(ctx context.Context, q OpenSlotQuery) ([]OpenSlot, error) {
	// Resolve the doctor side first: specialization filter against the
	// doctor record, name filter against the linked user.
	docFilter := bson.M{}
	if q.Category != "" {
		docFilter["specialization"] = bson.M{"$regex": regexEscape(q.Category), "$options": "i"}
	}
	cursor, err := s.db.Collection("doctors").Find(ctx, docFilter)
	if err != nil {
		return nil, err
	}
	var doctors []models.Doctor
	if err = cursor.All(ctx, &doctors); err != nil {
		return nil, err
	}
	if len(doctors) == 0 {
		return []OpenSlot{}, nil
	}

	userIDs := make([]primitive.ObjectID, 0, len(doctors))
	for _, d := range doctors {
		userIDs = append(userIDs, d.UserID)
	}
	userCursor, err := s.db.Collection("users").Find(ctx, bson.M{"_id": bson.M{"$in": userIDs}})
	if err != nil {
		return nil, err
	}
	var users []models.User
	if err = userCursor.All(ctx, &users); err != nil {
		return nil, err
	}
	names := make(map[primitive.ObjectID]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}

	info := make(map[primitive.ObjectID]DoctorInfo, len(doctors))
	doctorIDs := make([]primitive.ObjectID, 0, len(doctors))
	for _, d := range doctors {
		name := names[d.UserID]
		if q.DoctorName != "" && !strings.Contains(strings.ToLower(name), strings.ToLower(q.DoctorName)) {
			continue
		}
		info[d.ID] = DoctorInfo{ID: d.ID, Name: name, Specialization: d.Specialization, Price: d.Price}
		doctorIDs = append(doctorIDs, d.ID)
	}
	if len(doctorIDs) == 0 {
		return []OpenSlot{}, nil
	}

	filter := openSlotFilter(q, doctorIDs, time.Now())
	findOptions := options.Find().SetSort(bson.D{{Key: "appointmentDate", Value: 1}})
	aptCursor, err := s.collection().Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	var appointments []models.Appointment
	if err = aptCursor.All(ctx, &appointments); err != nil {
		return nil, err
	}

	slots := make([]OpenSlot, 0, len(appointments))
	for _, apt := range appointments {
		slots = append(slots, OpenSlot{Appointment: apt, Doctor: info[apt.DoctorID]})
	}
	return slots, nil
}

func (s *appointmentStore) ListByDoctor(ctx context.Context, doctorID primitive.ObjectID) ([]DoctorSlot, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "appointmentDate", Value: 1}})
	cursor, err := s.collection().Find(ctx, bson.M{"doctorId": doctorID}, findOptions)
	if err != nil {
		return nil, err
	}
	var appointments []models.Appointment
	if err = cursor.All(ctx, &appointments); err != nil {
		return nil, err
	}

	patientIDs := make([]primitive.ObjectID, 0, len(appointments))
	for _, apt := range appointments {
		if apt.PatientID != nil {
			patientIDs = append(patientIDs, *apt.PatientID)
		}
	}
	patients, err := s.findUsers(ctx, patientIDs)
	if err != nil {
		return nil, err
	}

	slots := make([]DoctorSlot, 0, len(appointments))
	for _, apt := range appointments {
		slot := DoctorSlot{Appointment: apt}
		if apt.PatientID != nil {
			if p, ok := patients[*apt.PatientID]; ok {
				slot.PatientName = p.Name
				slot.PatientEmail = p.Email
			}
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

func (s *appointmentStore) ListByPatient(ctx context.Context, patientID primitive.ObjectID) ([]PatientSlot, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "appointmentDate", Value: 1}})
	cursor, err := s.collection().Find(ctx, bson.M{"patientId": patientID}, findOptions)
	if err != nil {
		return nil, err
	}
	var appointments []models.Appointment
	if err = cursor.All(ctx, &appointments); err != nil {
		return nil, err
	}
	if len(appointments) == 0 {
		return []PatientSlot{}, nil
	}

	doctorIDs := make([]primitive.ObjectID, 0, len(appointments))
	for _, apt := range appointments {
		doctorIDs = append(doctorIDs, apt.DoctorID)
	}
	docCursor, err := s.db.Collection("doctors").Find(ctx, bson.M{"_id": bson.M{"$in": doctorIDs}})
	if err != nil {
		return nil, err
	}
	var doctors []models.Doctor
	if err = docCursor.All(ctx, &doctors); err != nil {
		return nil, err
	}
	userIDs := make([]primitive.ObjectID, 0, len(doctors))
	for _, d := range doctors {
		userIDs = append(userIDs, d.UserID)
	}
	users, err := s.findUsers(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.Doctor, len(doctors))
	for _, d := range doctors {
		byID[d.ID] = d
	}

	slots := make([]PatientSlot, 0, len(appointments))
	for _, apt := range appointments {
		slot := PatientSlot{Appointment: apt}
		if d, ok := byID[apt.DoctorID]; ok {
			slot.Specialization = d.Specialization
			slot.DoctorName = users[d.UserID].Name
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

// Claim attaches a patient to an open slot. The update is a single
// conditional write: it matches only while patientId is still null and the
// slot is pending, so concurrent claims cannot both succeed.
func (s *appointmentStore) Claim(ctx context.Context, id, patientID primitive.ObjectID, amount float64, method string, at time.Time) error {
	filter := bson.M{
		"_id":       id,
		"patientId": nil,
		"status":    models.StatusPending,
	}
	update := bson.M{"$set": bson.M{
		"patientId":              patientID,
		"payment.amount":         amount,
		"payment.method":         method,
		"payment.status":         models.PaymentPending,
		"payment.methodChosenAt": at,
	}}
	result, err := s.collection().UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		// Lost the race or bad id; a plain read tells us which.
		if _, err := s.FindByID(ctx, id); err != nil {
			return err
		}
		return ErrSlotClaimed
	}
	return nil
}

func (s *appointmentStore) UpdateClinical(ctx context.Context, id primitive.ObjectID, upd ClinicalUpdate) error {
	fields := bson.M{}
	if upd.Status != nil {
		fields["status"] = *upd.Status
	}
	if upd.Diagnosis != nil {
		fields["diagnosis"] = *upd.Diagnosis
	}
	if len(fields) == 0 {
		return nil
	}
	return s.setFields(ctx, id, fields)
}

func (s *appointmentStore) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	return s.setFields(ctx, id, bson.M{"status": status})
}

func (s *appointmentStore) SetFeedback(ctx context.Context, id primitive.ObjectID, feedback string, rating int) error {
	fields := bson.M{"feedback": feedback}
	if rating != 0 {
		fields["rating"] = rating
	}
	return s.setFields(ctx, id, fields)
}

func (s *appointmentStore) SetPaymentMethod(ctx context.Context, id primitive.ObjectID, method string, at time.Time) error {
	return s.setFields(ctx, id, bson.M{
		"payment.method":         method,
		"payment.status":         models.PaymentPending,
		"payment.methodChosenAt": at,
	})
}

// SettlePayment is the stub settlement path: pending -> paid, stamping
// paidAt and the receipt reference. Conditional on the payment still being
// pending so a double settle surfaces as ErrAlreadySettled.
func (s *appointmentStore) SettlePayment(ctx context.Context, id primitive.ObjectID, at time.Time, receiptRef string) error {
	filter := bson.M{"_id": id, "payment.status": models.PaymentPending}
	update := bson.M{"$set": bson.M{
		"payment.status":     models.PaymentPaid,
		"payment.paidAt":     at,
		"payment.receiptRef": receiptRef,
	}}
	result, err := s.collection().UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		if _, err := s.FindByID(ctx, id); err != nil {
			return err
		}
		return ErrAlreadySettled
	}
	return nil
}

func (s *appointmentStore) setFields(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	result, err := s.collection().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *appointmentStore) findUsers(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error) {
	users := make(map[primitive.ObjectID]models.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}
	cursor, err := s.db.Collection("users").Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var list []models.User
	if err = cursor.All(ctx, &list); err != nil {
		return nil, err
	}
	for _, u := range list {
		users[u.ID] = u
	}
	return users, nil
}

// regexEscape quotes regex metacharacters so substring filters stay literal.
func regexEscape(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`\.+*?()|[]{}^$`, r) {
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

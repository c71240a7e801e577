package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/medicore/clinic-api/internal/models"
)

type doctorStore struct {
	db *mongo.Database
}

// Insert relies on the unique index on userId: a concurrent double
// promotion of the same user hits the index, not an existence check.
func (s *doctorStore) Insert(ctx context.Context, d *models.Doctor) error {
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	if d.AvailableSlots == nil {
		d.AvailableSlots = []string{}
	}
	_, err := s.db.Collection("doctors").InsertOne(ctx, d)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDoctorExists
	}
	return err
}

func (s *doctorStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Doctor, error) {
	var d models.Doctor
	err := s.db.Collection("doctors").FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *doctorStore) FindByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Doctor, error) {
	var d models.Doctor
	err := s.db.Collection("doctors").FindOne(ctx, bson.M{"userId": userID}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

type contactStore struct {
	db *mongo.Database
}

func (s *contactStore) Insert(ctx context.Context, c *models.Contact) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	_, err := s.db.Collection("contacts").InsertOne(ctx, c)
	return err
}

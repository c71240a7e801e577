package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles a user account can hold.
const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
	RoleAdmin   = "admin"
)

type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name     string             `bson:"name" json:"name"`
	Email    string             `bson:"email" json:"email"`
	Password string             `bson:"password" json:"-"` // Hide from JSON responses
	Phone    string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Gender   string             `bson:"gender,omitempty" json:"gender,omitempty"`
	Role     string             `bson:"role" json:"role"`
	Image    string             `bson:"image,omitempty" json:"image,omitempty"`
}

// Doctor extends a User with role "doctor". Exactly one doctor record may
// exist per user; the store keeps a unique index on userId.
type Doctor struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID `bson:"userId" json:"userId"`
	Specialization string             `bson:"specialization" json:"specialization"`
	Price          float64            `bson:"price" json:"price"`
	Experience     int                `bson:"experience" json:"experience"`
	Bio            string             `bson:"bio" json:"bio"`
	Category       string             `bson:"category" json:"category"`
	AvailableSlots []string           `bson:"availableSlots" json:"availableSlots"`
}

// Contact is an inbound contact-form submission. No lifecycle beyond creation.
type Contact struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Subject   string             `bson:"subject" json:"subject"`
	Message   string             `bson:"message" json:"message"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/medicore/clinic-api/internal/models"
	"github.com/medicore/clinic-api/internal/store"
)

// ListUsers returns every user account for the admin dashboard.
func (h *Handler) ListUsers(c *gin.Context) {
	ctx, cancel := h.requestCtx(c)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

type updateRoleRequest struct {
	UserID         string   `json:"userId" binding:"required"`
	NewRole        string   `json:"newRole" binding:"required"`
	Specialization string   `json:"specialization"`
	Price          float64  `json:"price"`
	Experience     int      `json:"experience"`
	Bio            string   `json:"bio"`
	Category       string   `json:"category"`
	AvailableSlots []string `json:"availableSlots"`
}

// UpdateUserRole changes a user's role. Promoting to doctor also creates
// the doctor profile; the unique index on userId makes a repeat promotion
// a no-op rather than a duplicate record.
func (h *Handler) UpdateUserRole(c *gin.Context) {
	var req updateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId and newRole are required"})
		return
	}

	userID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}
	switch req.NewRole {
	case models.RolePatient, models.RoleDoctor, models.RoleAdmin:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown role"})
		return
	}

	ctx, cancel := h.requestCtx(c)
	defer cancel()

	if err := h.Users.SetRole(ctx, userID, req.NewRole); err != nil {
		storeError(c, err)
		return
	}

	if req.NewRole == models.RoleDoctor {
		doctor := models.Doctor{
			UserID:         userID,
			Specialization: req.Specialization,
			Price:          req.Price,
			Experience:     req.Experience,
			Bio:            req.Bio,
			Category:       req.Category,
			AvailableSlots: req.AvailableSlots,
		}
		err := h.Doctors.Insert(ctx, &doctor)
		if err != nil && !errors.Is(err, store.ErrDoctorExists) {
			storeError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "User updated successfully"})
}

// DeleteUser removes a user account. Only patients can be deleted.
func (h *Handler) DeleteUser(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	ctx, cancel := h.requestCtx(c)
	defer cancel()

	user, err := h.Users.FindByID(ctx, userID)
	if err != nil {
		storeError(c, err)
		return
	}
	if user.Role != models.RolePatient {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only patient accounts can be deleted"})
		return
	}

	if err := h.Users.Delete(ctx, userID); err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// PatientAppointments lists a given patient's appointments with doctor
// names, for the admin dashboard.
func (h *Handler) PatientAppointments(c *gin.Context) {
	patientID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid patient ID"})
		return
	}

	ctx, cancel := h.requestCtx(c)
	defer cancel()

	slots, err := h.Appointments.ListByPatient(ctx, patientID)
	if err != nil {
		storeError(c, err)
		return
	}
	if len(slots) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "No appointments found for this patient."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": slots})
}

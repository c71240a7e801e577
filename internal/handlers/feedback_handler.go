package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/medicore/clinic-api/internal/models"
)

// SubmitFeedback writes the patient's feedback and rating onto one of
// their own completed appointments. Rejected unless the appointment is
// done; nothing is written on rejection.
func (h *Handler) SubmitFeedback(c *gin.Context) {
	patientID, role, ok := actingUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	if role != models.RolePatient {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only patients can submit feedback."})
		return
	}

	var req struct {
		AppointmentID string `json:"appointmentId" binding:"required"`
		Feedback      string `json:"feedback" binding:"required"`
		Rating        int    `json:"rating"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Appointment ID and feedback are required"})
		return
	}
	if req.Rating != 0 && (req.Rating < 1 || req.Rating > 5) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Rating must be between 1 and 5"})
		return
	}

	aptID, err := primitive.ObjectIDFromHex(req.AppointmentID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid appointment ID"})
		return
	}

	ctx, cancel := h.requestCtx(c)
	defer cancel()

	apt, err := h.Appointments.FindByID(ctx, aptID)
	if err != nil {
		storeError(c, err)
		return
	}
	if apt.PatientID == nil || *apt.PatientID != patientID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not your appointment"})
		return
	}
	if apt.Status != models.StatusDone {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Feedback can only be submitted for completed appointments"})
		return
	}

	if err := h.Appointments.SetFeedback(ctx, aptID, req.Feedback, req.Rating); err != nil {
		storeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Feedback submitted successfully"})
}

// ListPatientAppointments returns the patient's own slots, partitioned
// into upcoming and past against the current time.
func (h *Handler) ListPatientAppointments(c *gin.Context) {
	patientID, _, ok := actingUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	ctx, cancel := h.requestCtx(c)
	defer cancel()

	slots, err := h.Appointments.ListByPatient(ctx, patientID)
	if err != nil {
		storeError(c, err)
		return
	}

	upcoming := make([]any, 0)
	past := make([]any, 0)
	now := time.Now()
	for _, slot := range slots {
		if slot.AppointmentDate.After(now) {
			upcoming = append(upcoming, slot)
		} else {
			past = append(past, slot)
		}
	}

	c.JSON(http.StatusOK, gin.H{"upcoming": upcoming, "past": past})
}

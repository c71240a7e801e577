package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/medicore/clinic-api/internal/models"
	"github.com/medicore/clinic-api/internal/store"
)

// authenticatedDoctor resolves the acting user's doctor profile.
func (h *Handler) authenticatedDoctor(c *gin.Context, ctx context.Context) (*models.Doctor, bool) {
	userID, role, ok := actingUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return nil, false
	}
	if role != models.RoleDoctor {
		c.JSON(http.StatusForbidden, gin.H{"error": "Permission denied."})
		return nil, false
	}
	doctor, err := h.Doctors.FindByUserID(ctx, userID)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "Doctor profile not found"})
		return nil, false
	}
	return doctor, true
}

// CreateSlot publishes an open slot from a date and a time of day. The
// slot starts pending and unclaimed with the doctor's price as the
// payment amount.
func (h *Handler) CreateSlot(c *gin.Context) {
	var req struct {
		Date string `json:"date" binding:"required"`
		Time string `json:"time" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Date and time are required"})
		return
	}

	appointmentDate, err := time.Parse("2006-01-02T15:04", req.Date+"T"+req.Time)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date/time"})
		return
	}

	ctx, cancel := h.requestCtx(c)
	defer cancel()
	doctor, ok := h.authenticatedDoctor(c, ctx)
	if !ok {
		return
	}

	apt := models.Appointment{
		ID:              primitive.NewObjectID(),
		DoctorID:        doctor.ID,
		PatientID:       nil,
		AppointmentDate: appointmentDate,
		Status:          models.StatusPending,
		Payment: models.Payment{
			Amount: doctor.Price,
			Method: models.MethodCard,
			Status: models.PaymentPending,
		},
		Diagnosis: "",
	}

	if err := h.Appointments.Insert(ctx, &apt); err != nil {
		storeError(c, err)
		return
	}

	h.Cache.InvalidateSlots(ctx)
	c.JSON(http.StatusCreated, gin.H{"success": true, "appointment": apt})
}

// ListDoctorAppointments returns the doctor's own slots ascending by date
// with the booked patients joined in.
func (h *Handler) ListDoctorAppointments(c *gin.Context) {
	ctx, cancel := h.requestCtx(c)
	defer cancel()
	doctor, ok := h.authenticatedDoctor(c, ctx)
	if !ok {
		return
	}

	slots, err := h.Appointments.ListByDoctor(ctx, doctor.ID)
	if err != nil {
		storeError(c, err)
		return
	}
	if slots == nil {
		slots = make([]store.DoctorSlot, 0)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"appointments": slots,
		"doctor": gin.H{
			"id":             doctor.ID,
			"specialization": doctor.Specialization,
			"price":          doctor.Price,
		},
	})
}

// UpdateDoctorAppointment sets status and/or diagnosis on one of the
// doctor's own slots. Status changes go through the transition table.
func (h *Handler) UpdateDoctorAppointment(c *gin.Context) {
	aptID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid appointment ID"})
		return
	}

	var req struct {
		Status    *string `json:"status,omitempty"`
		Diagnosis *string `json:"diagnosis,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.Status == nil && req.Diagnosis == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}

	ctx, cancel := h.requestCtx(c)
	defer cancel()
	doctor, ok := h.authenticatedDoctor(c, ctx)
	if !ok {
		return
	}

	apt, err := h.Appointments.FindByID(ctx, aptID)
	if err != nil {
		storeError(c, err)
		return
	}
	if apt.DoctorID != doctor.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not your appointment"})
		return
	}

	if req.Status != nil {
		if err := models.CheckTransition(models.RoleDoctor, apt.Status, *req.Status); err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
	}
	if req.Diagnosis != nil && h.Cfg.DiagnosisRequiresDone {
		becomesDone := apt.Status == models.StatusDone ||
			(req.Status != nil && *req.Status == models.StatusDone)
		if !becomesDone {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Diagnosis can only be written on completed appointments"})
			return
		}
	}

	upd := store.ClinicalUpdate{Status: req.Status, Diagnosis: req.Diagnosis}
	if err := h.Appointments.UpdateClinical(ctx, aptID, upd); err != nil {
		storeError(c, err)
		return
	}

	h.Cache.InvalidateSlots(ctx)

	if req.Status != nil && *req.Status == models.StatusCancelled && apt.PatientID != nil {
		if patient, err := h.Users.FindByID(ctx, *apt.PatientID); err == nil {
			h.NotificationSvc.SendCancellationSMS(patient, apt)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Appointment updated successfully"})
}

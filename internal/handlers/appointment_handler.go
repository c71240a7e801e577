package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/medicore/clinic-api/internal/models"
	"github.com/medicore/clinic-api/internal/store"
)

// ListOpenAppointments returns the bookable slots: pending, unclaimed and
// not in the past, each with the doctor's name, specialization and price.
// Filters: ?date=2006-01-02, ?doctorName=, ?category=.
func (h *Handler) ListOpenAppointments(c *gin.Context) {
	query := store.OpenSlotQuery{
		DoctorName: c.Query("doctorName"),
		Category:   c.Query("category"),
	}
	if dateStr := c.Query("date"); dateStr != "" {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format, use YYYY-MM-DD"})
			return
		}
		query.Date = &date
	}

	ctx, cancel := h.requestCtx(c)
	defer cancel()

	cacheKey := fmt.Sprintf("open:d=%s&n=%s&c=%s", c.Query("date"), query.DoctorName, query.Category)
	var slots []store.OpenSlot
	if h.Cache.GetListing(ctx, cacheKey, &slots) {
		c.JSON(http.StatusOK, gin.H{"appointments": slots})
		return
	}

	slots, err := h.Appointments.ListOpen(ctx, query)
	if err != nil {
		storeError(c, err)
		return
	}

	h.Cache.SetListing(ctx, cacheKey, slots)
	c.JSON(http.StatusOK, gin.H{"appointments": slots})
}

type createAppointmentRequest struct {
	DoctorID        string  `json:"doctorId" binding:"required"`
	PatientID       string  `json:"patientId"`
	AppointmentDate string  `json:"appointmentDate" binding:"required"`
	Status          string  `json:"status"`
	Payment         *struct {
		Amount float64 `json:"amount"`
		Method string  `json:"method"`
	} `json:"payment"`
}

// CreateAppointment is the raw slot create used by the admin dashboard.
func (h *Handler) CreateAppointment(c *gin.Context) {
	var req createAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	doctorID, err := primitive.ObjectIDFromHex(req.DoctorID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid doctor ID"})
		return
	}
	date, err := time.Parse(time.RFC3339, req.AppointmentDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid appointmentDate, use RFC3339"})
		return
	}
	status := req.Status
	if status == "" {
		status = models.StatusPending
	}
	if !models.ValidStatus(status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status"})
		return
	}

	ctx, cancel := h.requestCtx(c)
	defer cancel()

	doctor, err := h.Doctors.FindByID(ctx, doctorID)
	if err != nil {
		storeError(c, err)
		return
	}

	apt := models.Appointment{
		ID:              primitive.NewObjectID(),
		DoctorID:        doctor.ID,
		AppointmentDate: date,
		Status:          status,
		Payment: models.Payment{
			Amount: doctor.Price,
			Method: models.MethodCard,
			Status: models.PaymentPending,
		},
	}
	if req.PatientID != "" {
		patientID, err := primitive.ObjectIDFromHex(req.PatientID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid patient ID"})
			return
		}
		apt.PatientID = &patientID
	}
	if req.Payment != nil {
		if req.Payment.Amount != 0 {
			apt.Payment.Amount = req.Payment.Amount
		}
		if req.Payment.Method != "" {
			if !models.ValidMethod(req.Payment.Method) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown payment method"})
				return
			}
			apt.Payment.Method = req.Payment.Method
		}
	}

	if err := h.Appointments.Insert(ctx, &apt); err != nil {
		storeError(c, err)
		return
	}

	h.Cache.InvalidateSlots(ctx)
	c.JSON(http.StatusCreated, gin.H{"message": "Appointment added successfully", "appointment": apt})
}

// BookAppointment claims an open slot for the authenticated patient. The
// claim itself is one conditional update in the store; losing the race
// yields a 409, never a silent overwrite.
func (h *Handler) BookAppointment(c *gin.Context) {
	patientID, role, ok := actingUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	if role != models.RolePatient {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only patients can book appointments."})
		return
	}

	aptID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid appointment ID"})
		return
	}

	var req struct {
		PaymentMethod string `json:"paymentMethod" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Payment method is required"})
		return
	}
	if !models.ValidMethod(req.PaymentMethod) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown payment method"})
		return
	}

	ctx, cancel := h.requestCtx(c)
	defer cancel()

	// The slot's price comes from its doctor. This read only feeds the
	// payment amount; whether the claim wins is decided by the
	// conditional update below.
	apt, err := h.Appointments.FindByID(ctx, aptID)
	if err != nil {
		storeError(c, err)
		return
	}
	doctor, err := h.Doctors.FindByID(ctx, apt.DoctorID)
	if err != nil {
		storeError(c, err)
		return
	}

	if err := h.Appointments.Claim(ctx, aptID, patientID, doctor.Price, req.PaymentMethod, time.Now()); err != nil {
		storeError(c, err)
		return
	}

	h.Cache.InvalidateSlots(ctx)

	booked, err := h.Appointments.FindByID(ctx, aptID)
	if err != nil {
		storeError(c, err)
		return
	}

	if patient, err := h.Users.FindByID(ctx, patientID); err == nil {
		doctorName := ""
		if du, err := h.Users.FindByID(ctx, doctor.UserID); err == nil {
			doctorName = du.Name
		}
		h.NotificationSvc.SendBookingConfirmationSMS(patient, booked, doctorName)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Appointment booked successfully", "appointment": booked})
}

// CancelAppointment lets a patient back out of their own slot while it is
// still pending. The patient reference stays on the record.
func (h *Handler) CancelAppointment(c *gin.Context) {
	patientID, role, ok := actingUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	if role != models.RolePatient {
		c.JSON(http.StatusForbidden, gin.H{"error": "Permission denied."})
		return
	}

	aptID, err := primitive.ObjectIDFromHex(c.Param("id"))
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
	if err := models.CheckTransition(models.RolePatient, apt.Status, models.StatusCancelled); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	if err := h.Appointments.SetStatus(ctx, aptID, models.StatusCancelled); err != nil {
		storeError(c, err)
		return
	}

	h.Cache.InvalidateSlots(ctx)
	c.JSON(http.StatusOK, gin.H{"message": "Appointment cancelled successfully"})
}

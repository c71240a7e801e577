package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/medicore/clinic-api/internal/models"
)

// paymentMethods is what the payment page offers.
var paymentMethods = []string{models.MethodCash, models.MethodPaypal, models.MethodCard}

// ChoosePaymentMethod records the patient's payment intent: the method and
// when it was chosen. Settlement is a separate step; payment.status stays
// pending here.
func (h *Handler) ChoosePaymentMethod(c *gin.Context) {
	patientID, role, ok := actingUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req struct {
		AppointmentID string `json:"appointmentId" binding:"required"`
		PaymentMethod string `json:"paymentMethod" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Appointment ID and payment method are required"})
		return
	}
	if !models.ValidMethod(req.PaymentMethod) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown payment method"})
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
	if role == models.RolePatient && (apt.PatientID == nil || *apt.PatientID != patientID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not your appointment"})
		return
	}

	if err := h.Appointments.SetPaymentMethod(ctx, aptID, req.PaymentMethod, time.Now()); err != nil {
		storeError(c, err)
		return
	}

	patientName := ""
	if apt.PatientID != nil {
		if patient, err := h.Users.FindByID(ctx, *apt.PatientID); err == nil {
			patientName = patient.Name
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"patientName":    patientName,
		"price":          apt.Payment.Amount,
		"paymentMethods": paymentMethods,
		"paymentStatus":  models.PaymentPending,
		"appointmentId":  apt.ID,
	})
}

// SettlePayment is the payment-confirmation path. No gateway exists, so
// this moves a pending payment to paid, stamps paidAt and mints the
// receipt reference.
func (h *Handler) SettlePayment(c *gin.Context) {
	aptID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid appointment ID"})
		return
	}

	ctx, cancel := h.requestCtx(c)
	defer cancel()

	receiptRef := uuid.New().String()
	if err := h.Appointments.SettlePayment(ctx, aptID, time.Now(), receiptRef); err != nil {
		storeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Payment settled",
		"appointmentId": aptID,
		"receiptRef":    receiptRef,
	})
}

// PaymentReceipt renders a PDF receipt for a settled payment.
func (h *Handler) PaymentReceipt(c *gin.Context) {
	userID, role, ok := actingUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
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
	if apt.Payment.Status != models.PaymentPaid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Payment is not settled yet"})
		return
	}
	if role == models.RolePatient && (apt.PatientID == nil || *apt.PatientID != userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not your appointment"})
		return
	}

	doctor, err := h.Doctors.FindByID(ctx, apt.DoctorID)
	if err != nil {
		storeError(c, err)
		return
	}
	doctorName := ""
	if du, err := h.Users.FindByID(ctx, doctor.UserID); err == nil {
		doctorName = du.Name
	}
	patientName := ""
	if apt.PatientID != nil {
		if pu, err := h.Users.FindByID(ctx, *apt.PatientID); err == nil {
			patientName = pu.Name
		}
	}

	pdfBytes, err := buildReceiptPDF(apt, doctorName, doctor.Specialization, patientName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate receipt"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="receipt.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

func buildReceiptPDF(apt *models.Appointment, doctorName, specialization, patientName string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, "Clinic Payment Receipt", "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 10, "Appointment", "1", 1, "C", false, 0, "")
	receiptRow(pdf, "Receipt Ref", apt.Payment.ReceiptRef)
	receiptRow(pdf, "Doctor", doctorName)
	receiptRow(pdf, "Specialization", specialization)
	receiptRow(pdf, "Patient", patientName)
	receiptRow(pdf, "Date", apt.AppointmentDate.Format("2006-01-02 15:04"))

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 10, "Payment", "1", 1, "C", false, 0, "")
	receiptRow(pdf, "Method", apt.Payment.Method)
	if apt.Payment.PaidAt != nil {
		receiptRow(pdf, "Paid at", apt.Payment.PaidAt.Format("2006-01-02 15:04"))
	}
	pdf.SetFont("Arial", "B", 13)
	receiptRow(pdf, "Amount Paid", fmt.Sprintf("%.2f", apt.Payment.Amount))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func receiptRow(pdf *gofpdf.Fpdf, label, value string) {
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(60, 8, label, "1", 0, "L", false, 0, "")
	pdf.CellFormat(0, 8, value, "1", 1, "L", false, 0, "")
}

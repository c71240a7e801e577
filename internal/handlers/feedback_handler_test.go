package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/medicore/clinic-api/internal/models"
)

func TestSubmitFeedback(t *testing.T) {
	e := newTestEnv()
	_, doctor := e.addDoctor(t, "Dr. Salma", "salma@clinic.test", "Ophthalmology", 50)
	patient := e.addPatient(t, "Basel", "basel@example.com")
	stranger := e.addPatient(t, "Nadia", "nadia@example.com")

	bookedSlot := func(status string) models.Appointment {
		apt := e.addSlot(t, doctor.ID, time.Now().Add(24*time.Hour), doctor.Price)
		if err := e.appointments.Claim(nil, apt.ID, patient.ID, doctor.Price, models.MethodCash, time.Now()); err != nil {
			t.Fatal(err)
		}
		if status != models.StatusPending {
			if err := e.appointments.SetStatus(nil, apt.ID, status); err != nil {
				t.Fatal(err)
			}
		}
		return e.appointments.get(apt.ID)
	}

	t.Run("AcceptedWhenDone", func(t *testing.T) {
		apt := bookedSlot(models.StatusDone)
		w := e.do(t, &actor{patient.ID, models.RolePatient}, http.MethodPost, "/api/user/feedback",
			map[string]any{"appointmentId": apt.ID.Hex(), "feedback": "Great visit", "rating": 5})
		wantStatus(t, w, http.StatusOK)

		got := e.appointments.get(apt.ID)
		if got.Feedback != "Great visit" || got.Rating != 5 {
			t.Fatalf("feedback=%q rating=%d, want Great visit/5", got.Feedback, got.Rating)
		}
	})

	t.Run("RejectedBeforeDone", func(t *testing.T) {
		for _, status := range []string{models.StatusPending, models.StatusConfirmed, models.StatusCancelled} {
			apt := bookedSlot(status)
			w := e.do(t, &actor{patient.ID, models.RolePatient}, http.MethodPost, "/api/user/feedback",
				map[string]any{"appointmentId": apt.ID.Hex(), "feedback": "Too soon", "rating": 3})
			wantStatus(t, w, http.StatusBadRequest)

			if got := e.appointments.get(apt.ID); got.Feedback != "" || got.Rating != 0 {
				t.Fatalf("feedback written on %s appointment", status)
			}
		}
	})

	t.Run("RatingOutOfRange", func(t *testing.T) {
		apt := bookedSlot(models.StatusDone)
		for _, rating := range []int{-1, 6, 100} {
			w := e.do(t, &actor{patient.ID, models.RolePatient}, http.MethodPost, "/api/user/feedback",
				map[string]any{"appointmentId": apt.ID.Hex(), "feedback": "ok", "rating": rating})
			wantStatus(t, w, http.StatusBadRequest)
		}
	})

	t.Run("EmptyFeedback", func(t *testing.T) {
		apt := bookedSlot(models.StatusDone)
		w := e.do(t, &actor{patient.ID, models.RolePatient}, http.MethodPost, "/api/user/feedback",
			map[string]any{"appointmentId": apt.ID.Hex(), "feedback": "", "rating": 4})
		wantStatus(t, w, http.StatusBadRequest)
	})

	t.Run("NotOwner", func(t *testing.T) {
		apt := bookedSlot(models.StatusDone)
		w := e.do(t, &actor{stranger.ID, models.RolePatient}, http.MethodPost, "/api/user/feedback",
			map[string]any{"appointmentId": apt.ID.Hex(), "feedback": "Not mine", "rating": 1})
		wantStatus(t, w, http.StatusForbidden)
	})

	t.Run("UnknownAppointment", func(t *testing.T) {
		w := e.do(t, &actor{patient.ID, models.RolePatient}, http.MethodPost, "/api/user/feedback",
			map[string]any{"appointmentId": "ffffffffffffffffffffffff", "feedback": "hello", "rating": 2})
		wantStatus(t, w, http.StatusNotFound)
	})
}

func TestListPatientAppointments(t *testing.T) {
	e := newTestEnv()
	_, doctor := e.addDoctor(t, "Dr. Salma", "salma@clinic.test", "Ophthalmology", 50)
	patient := e.addPatient(t, "Basel", "basel@example.com")

	past := e.addSlot(t, doctor.ID, time.Now().Add(-48*time.Hour), doctor.Price)
	future := e.addSlot(t, doctor.ID, time.Now().Add(48*time.Hour), doctor.Price)
	for _, slot := range []models.Appointment{past, future} {
		apt := e.appointments.get(slot.ID)
		apt.PatientID = &patient.ID
		if err := e.appointments.Insert(nil, &apt); err != nil {
			t.Fatal(err)
		}
	}

	w := e.do(t, &actor{patient.ID, models.RolePatient}, http.MethodGet, "/api/user/appointments", nil)
	wantStatus(t, w, http.StatusOK)

	var got struct {
		Upcoming []models.Appointment `json:"upcoming"`
		Past     []models.Appointment `json:"past"`
	}
	decodeJSON(t, w, &got)
	if len(got.Upcoming) != 1 || got.Upcoming[0].ID != future.ID {
		t.Fatalf("upcoming = %+v, want just the future slot", got.Upcoming)
	}
	if len(got.Past) != 1 || got.Past[0].ID != past.ID {
		t.Fatalf("past = %+v, want just the past slot", got.Past)
	}
}

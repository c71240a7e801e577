package models

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		role, from, to string
		want           bool
	}{
		{RoleDoctor, StatusPending, StatusConfirmed, true},
		{RoleDoctor, StatusPending, StatusCancelled, true},
		{RoleDoctor, StatusConfirmed, StatusCancelled, true},
		{RoleDoctor, StatusConfirmed, StatusDone, true},
		{RoleDoctor, StatusPending, StatusDone, false},
		{RoleDoctor, StatusCancelled, StatusConfirmed, false},
		{RoleDoctor, StatusDone, StatusPending, false},
		{RoleDoctor, StatusDone, StatusCancelled, false},
		{RolePatient, StatusPending, StatusCancelled, true},
		{RolePatient, StatusPending, StatusConfirmed, false},
		{RolePatient, StatusConfirmed, StatusCancelled, false},
		{RolePatient, StatusConfirmed, StatusDone, false},
		{RoleAdmin, StatusPending, StatusConfirmed, false},
	}
	for _, tc := range tests {
		if got := CanTransition(tc.role, tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s -> %s) = %v, want %v", tc.role, tc.from, tc.to, got, tc.want)
		}
	}
}

func TestCheckTransition(t *testing.T) {
	if err := CheckTransition(RoleDoctor, StatusPending, StatusConfirmed); err != nil {
		t.Fatalf("legal transition rejected: %v", err)
	}
	if err := CheckTransition(RoleDoctor, StatusPending, "archived"); err == nil {
		t.Fatal("unknown status accepted")
	}
	if err := CheckTransition(RoleDoctor, StatusPending, StatusDone); err == nil {
		t.Fatal("pending -> done accepted for doctor")
	}
}

func TestValidators(t *testing.T) {
	for _, s := range []string{StatusPending, StatusConfirmed, StatusCancelled, StatusDone} {
		if !ValidStatus(s) {
			t.Errorf("ValidStatus(%q) = false", s)
		}
	}
	if ValidStatus("scheduled") {
		t.Error("ValidStatus accepted an unknown status")
	}
	for _, m := range []string{MethodCash, MethodPaypal, MethodCard} {
		if !ValidMethod(m) {
			t.Errorf("ValidMethod(%q) = false", m)
		}
	}
	if ValidMethod("cheque") {
		t.Error("ValidMethod accepted an unknown method")
	}
}

func TestOpen(t *testing.T) {
	apt := Appointment{Status: StatusPending}
	if !apt.Open() {
		t.Fatal("pending unclaimed slot should be open")
	}
	apt.Status = StatusCancelled
	if apt.Open() {
		t.Fatal("cancelled slot reported open")
	}
}

package models

import "fmt"

// transition is one legal (actor, from, to) status move. All status
// mutations go through CanTransition; anything absent from the table is
// rejected, so a slot can never jump straight from pending to done or be
// revived after cancellation.
type transition struct {
	role, from, to string
}

var allowedTransitions = map[transition]bool{
	{RoleDoctor, StatusPending, StatusConfirmed}:   true,
	{RoleDoctor, StatusPending, StatusCancelled}:   true,
	{RoleDoctor, StatusConfirmed, StatusCancelled}: true,
	{RoleDoctor, StatusConfirmed, StatusDone}:      true,
	// A patient may only back out of a slot that is still pending.
	{RolePatient, StatusPending, StatusCancelled}: true,
}

// CanTransition reports whether the given actor role may move an
// appointment from one status to another.
func CanTransition(role, from, to string) bool {
	return allowedTransitions[transition{role, from, to}]
}

// CheckTransition is CanTransition with a caller-facing error.
func CheckTransition(role, from, to string) error {
	if !ValidStatus(to) {
		return fmt.Errorf("unknown status %q", to)
	}
	if !CanTransition(role, from, to) {
		return fmt.Errorf("%s may not move an appointment from %q to %q", role, from, to)
	}
	return nil
}

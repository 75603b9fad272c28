package enums

import "fmt"

// RentalStatus tracks the lifecycle of a rental booking.
type RentalStatus string

const (
	RentalStatusPending   RentalStatus = "pending"
	RentalStatusConfirmed RentalStatus = "confirmed"
	RentalStatusActive    RentalStatus = "active"
	RentalStatusCompleted RentalStatus = "completed"
	RentalStatusCancelled RentalStatus = "cancelled"
	RentalStatusOverdue   RentalStatus = "overdue"
)

var validRentalStatuses = []RentalStatus{
	RentalStatusPending,
	RentalStatusConfirmed,
	RentalStatusActive,
	RentalStatusCompleted,
	RentalStatusCancelled,
	RentalStatusOverdue,
}

// BlockingRentalStatuses hold an inventory item for their date range.
var BlockingRentalStatuses = []RentalStatus{
	RentalStatusPending,
	RentalStatusConfirmed,
	RentalStatusActive,
	RentalStatusOverdue,
}

var rentalTransitions = map[RentalStatus][]RentalStatus{
	RentalStatusPending:   {RentalStatusConfirmed, RentalStatusCancelled},
	RentalStatusConfirmed: {RentalStatusActive, RentalStatusCancelled},
	RentalStatusActive:    {RentalStatusCompleted, RentalStatusOverdue},
	RentalStatusOverdue:   {RentalStatusCompleted},
}

// String implements fmt.Stringer.
func (s RentalStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known RentalStatus.
func (s RentalStatus) IsValid() bool {
	for _, candidate := range validRentalStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether next is reachable from s in one step.
func (s RentalStatus) CanTransitionTo(next RentalStatus) bool {
	for _, candidate := range rentalTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// IsCancellable reports whether a rental in this status may still be cancelled.
func (s RentalStatus) IsCancellable() bool {
	return s == RentalStatusPending || s == RentalStatusConfirmed
}

// ParseRentalStatus converts raw input into a RentalStatus.
func ParseRentalStatus(value string) (RentalStatus, error) {
	for _, candidate := range validRentalStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid rental status %q", value)
}

// RentalStatusStrings returns the blocking statuses as plain strings for SQL IN clauses.
func RentalStatusStrings(statuses []RentalStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

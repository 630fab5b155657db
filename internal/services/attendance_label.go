package services

import (
	"fmt"

	"github.com/joshua-takyi/nearby/internal/models"
)

const EmptyAttendanceLabel = "Be the first to join"

// AttendanceLabel renders the attendee line shown under an event. A zero
// count always renders the empty state, never "0 going".
func AttendanceLabel(snap models.AttendanceSnapshot, viewerIsMember bool) string {
	count := snap.AttendeeCount
	if count <= 0 {
		return EmptyAttendanceLabel
	}
	if !viewerIsMember {
		return fmt.Sprintf("%d going", count)
	}

	others := count - 1
	switch others {
	case 0:
		return "You are going"
	case 1:
		return "You and 1 other"
	default:
		return fmt.Sprintf("You and %d others", others)
	}
}

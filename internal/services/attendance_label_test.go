package services

import (
	"testing"

	"github.com/joshua-takyi/nearby/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestAttendanceLabel(t *testing.T) {
	tests := []struct {
		count  int
		member bool
		want   string
	}{
		{0, false, "Be the first to join"},
		{0, true, "Be the first to join"},
		{1, true, "You are going"},
		{2, true, "You and 1 other"},
		{5, true, "You and 4 others"},
		{1, false, "1 going"},
		{12, false, "12 going"},
	}

	for _, tt := range tests {
		got := AttendanceLabel(models.AttendanceSnapshot{AttendeeCount: tt.count}, tt.member)
		assert.Equal(t, tt.want, got, "count=%d member=%v", tt.count, tt.member)
	}
}

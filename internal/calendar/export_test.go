package calendar

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshua-takyi/nearby/internal/models"
)

func exportEvent() *models.Event {
	return &models.Event{
		ID:            uuid.MustParse("6f1c2d3e-4b5a-4c6d-8e9f-0a1b2c3d4e5f"),
		Title:         "Cider tasting",
		Description:   "Bring a glass\nMeet the makers",
		StartDateTime: "2024-03-15T18:30",
		EndDateTime:   "2024-03-15T20:00",
	}
}

func TestEventSpanDefaultsEnd(t *testing.T) {
	ev := exportEvent()
	ev.EndDateTime = ""

	start, end, err := EventSpan(ev, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC), start)
	assert.Equal(t, start.Add(60*time.Minute), end)
}

func TestEventSpanRejectsBadStart(t *testing.T) {
	ev := exportEvent()
	ev.StartDateTime = "soon"
	_, _, err := EventSpan(ev, time.UTC)
	assert.Error(t, err)
}

func TestGoogleCalendarURL(t *testing.T) {
	berlin := time.FixedZone("CET", 3600)

	link, err := GoogleCalendarURL(exportEvent(), "Old Mill, Main St", berlin)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(link, "https://calendar.google.com/calendar/render?action=TEMPLATE"))
	assert.Contains(t, link, "&dates=20240315T173000Z/20240315T190000Z")
	assert.Contains(t, link, "&text=Cider+tasting")
	assert.Contains(t, link, "&location=Old+Mill%2C+Main+St")
	assert.Contains(t, link, "&details=Bring+a+glass%0AMeet+the+makers")
}

func TestICS(t *testing.T) {
	stamp := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	out, err := ICS(exportEvent(), "Old Mill", "nearby.app", time.UTC, stamp)
	require.NoError(t, err)

	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "VERSION:2.0")
	assert.Contains(t, out, "UID:6f1c2d3e-4b5a-4c6d-8e9f-0a1b2c3d4e5f@nearby.app")
	assert.Contains(t, out, "DTSTAMP:20240301T080000Z")
	assert.Contains(t, out, "DTSTART:20240315T183000Z")
	assert.Contains(t, out, "DTEND:20240315T200000Z")
	assert.Contains(t, out, "SUMMARY:Cider tasting")
	assert.Contains(t, out, `DESCRIPTION:Bring a glass\nMeet the makers`)
	assert.Contains(t, out, "LOCATION:Old Mill")
	assert.Contains(t, out, "END:VEVENT")
}

func TestICSFilename(t *testing.T) {
	assert.Equal(t, "cider-tasting.ics", ICSFilename(exportEvent()))
	assert.Equal(t, "event.ics", ICSFilename(&models.Event{Title: "!!!"}))
}

package calendar

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/joshua-takyi/nearby/internal/models"
)

const (
	// UTCStampLayout is YYYYMMDDTHHmmssZ.
	UTCStampLayout    = "20060102T150405Z"
	DefaultDuration   = 60 * time.Minute
	googleCalendarURL = "https://calendar.google.com/calendar/render"
	productID         = "-//Nearby//Community Events//EN"
)

// EventSpan resolves an event's start and end instants in loc. A missing or
// unparsable end defaults to start + DefaultDuration.
func EventSpan(ev *models.Event, loc *time.Location) (time.Time, time.Time, error) {
	start, err := ParseLocalIn(ev.StartDateTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start_date_time: %w", err)
	}

	end := start.Add(DefaultDuration)
	if raw, explicit := ev.EffectiveEnd(); explicit {
		if parsed, err := ParseLocalIn(raw, loc); err == nil && !parsed.Before(start) {
			end = parsed
		}
	}
	return start, end, nil
}

// GoogleCalendarURL builds an "add to calendar" deep link. dates is
// <start>/<end> in UTC with no punctuation.
func GoogleCalendarURL(ev *models.Event, location string, loc *time.Location) (string, error) {
	start, end, err := EventSpan(ev, loc)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(googleCalendarURL)
	b.WriteString("?action=TEMPLATE")
	b.WriteString("&text=" + url.QueryEscape(ev.Title))
	b.WriteString("&dates=" + start.UTC().Format(UTCStampLayout) + "/" + end.UTC().Format(UTCStampLayout))
	if ev.Description != "" {
		b.WriteString("&details=" + url.QueryEscape(ev.Description))
	}
	if location != "" {
		b.WriteString("&location=" + url.QueryEscape(location))
	}
	return b.String(), nil
}

// ICS renders a single-event iCalendar payload. The UID is <eventId>@<domain>.
func ICS(ev *models.Event, location, domain string, loc *time.Location, now time.Time) (string, error) {
	start, end, err := EventSpan(ev, loc)
	if err != nil {
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetProductId(productID)
	cal.SetMethod(ics.MethodPublish)

	vevent := cal.AddEvent(fmt.Sprintf("%s@%s", ev.ID, domain))
	vevent.SetDtStampTime(now)
	vevent.SetStartAt(start)
	vevent.SetEndAt(end)
	vevent.SetSummary(ev.Title)
	vevent.SetDescription(ev.Description)
	vevent.SetLocation(location)

	return cal.Serialize(), nil
}

// ICSFilename is a download name derived from the title.
func ICSFilename(ev *models.Event) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == ' ' || r == '-' || r == '_':
			return '-'
		}
		return -1
	}, ev.Title)
	name = strings.Trim(name, "-")
	if name == "" {
		name = "event"
	}
	return name + ".ics"
}

// Package ics renders association events as an iCalendar (RFC 5545) feed.
package ics

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"league/internal/domain/event"
)

// Feed describes the calendar being exported.
type Feed struct {
	Name    string // X-WR-CALNAME, usually the association name
	BaseURL string // used to build per-event URLs, no trailing slash
	Now     time.Time
}

// Render builds the calendar for events. UIDs are stable per event ID so
// subscribed clients update entries in place.
// PRE: events are ordered as they should appear
// POST: returns a VCALENDAR with one VEVENT per event, times in UTC
func Render(f Feed, events []event.Event) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//league//events//EN")
	if f.Name != "" {
		cal.SetXWRCalName(f.Name)
	}

	stamp := f.Now
	if stamp.IsZero() {
		stamp = time.Now()
	}

	for _, e := range events {
		ve := cal.AddEvent(uid(e.ID))
		ve.SetDtStampTime(stamp.UTC())
		ve.SetCreatedTime(e.CreatedAt.UTC())
		ve.SetStartAt(e.StartAt.UTC())
		ve.SetEndAt(e.EndAt.UTC())
		ve.SetSummary(e.Title)
		if e.Location != "" {
			ve.SetLocation(e.Location)
		}
		if e.Description != "" {
			ve.SetDescription(e.Description)
		}
		if e.Type != "" {
			ve.AddProperty(ical.ComponentPropertyCategories, strings.ToUpper(e.Type))
		}
		if e.IsPublic() {
			ve.AddProperty(ical.ComponentPropertyClass, "PUBLIC")
		} else {
			ve.AddProperty(ical.ComponentPropertyClass, "PRIVATE")
		}
		if f.BaseURL != "" {
			ve.SetURL(fmt.Sprintf("%s/api/events/%s", f.BaseURL, e.ID))
		}
	}
	return cal.Serialize()
}

func uid(eventID string) string {
	return eventID + "@league"
}

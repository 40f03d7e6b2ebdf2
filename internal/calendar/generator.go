package calendar

import (
	"fmt"
	"net/url"
	"time"

	"github.com/punktual/backend/internal/model"
)

// Provider endpoints. Each platform consumes a query-string URL against a
// fixed base, except Apple which takes an inline ICS payload.
const (
	googleBase    = "https://calendar.google.com/calendar/render"
	outlookBase   = "https://outlook.live.com/calendar/0/deeplink/compose"
	office365Base = "https://outlook.office.com/calendar/0/deeplink/compose"
	yahooBase     = "https://calendar.yahoo.com/"
)

// Timestamp layouts required by the providers.
const (
	stampLayoutUTC  = "20060102T150405Z" // Google/Yahoo timed events
	dateLayoutShort = "20060102"         // Google/Yahoo all-day events
	outlookLayout   = "2006-01-02T15:04:05Z"
	outlookDateOnly = "2006-01-02"
)

// Generator derives per-platform calendar links from event data. It performs
// no network or state access; the clock is injectable so ICS timestamps are
// reproducible in tests.
type Generator struct {
	now func() time.Time
}

// NewGenerator creates a link generator using the wall clock.
func NewGenerator() *Generator {
	return &Generator{now: time.Now}
}

// NewGeneratorAt creates a link generator with a fixed clock.
func NewGeneratorAt(now func() time.Time) *Generator {
	return &Generator{now: now}
}

// Generate produces one link (or inline ICS payload) per requested platform.
// If required fields are missing or unparsable it returns an empty set rather
// than an error; completeness messaging is the caller's concern.
func (g *Generator) Generate(event model.EventData, platforms []model.Platform) model.CalendarLinks {
	links := make(model.CalendarLinks)

	if event.Title == "" {
		return links
	}
	start, err := event.StartAt()
	if err != nil {
		return links
	}
	end, err := event.EndAt()
	if err != nil {
		return links
	}
	if !event.IsAllDay && (event.StartTime == "" || event.EndTime == "") {
		return links
	}

	for _, p := range platforms {
		switch p {
		case model.PlatformGoogle:
			links[p] = googleLink(event, start, end)
		case model.PlatformOutlook:
			links[p] = outlookLink(outlookBase, event, start, end)
		case model.PlatformOffice365:
			links[p] = outlookLink(office365Base, event, start, end)
		case model.PlatformYahoo:
			links[p] = yahooLink(event, start, end)
		case model.PlatformApple:
			links[p] = g.appleICS(event, start, end)
		}
	}
	return links
}

// googleLink builds a calendar.google.com render URL. All-day events use
// date-only values with an exclusive end date.
func googleLink(event model.EventData, start, end time.Time) string {
	q := url.Values{}
	q.Set("action", "TEMPLATE")
	q.Set("text", event.Title)
	if event.IsAllDay {
		q.Set("dates", fmt.Sprintf("%s/%s",
			start.Format(dateLayoutShort),
			end.AddDate(0, 0, 1).Format(dateLayoutShort)))
	} else {
		q.Set("dates", fmt.Sprintf("%s/%s",
			start.UTC().Format(stampLayoutUTC),
			end.UTC().Format(stampLayoutUTC)))
	}
	if event.Description != "" {
		q.Set("details", event.Description)
	}
	if event.Location != "" {
		q.Set("location", event.Location)
	}
	return googleBase + "?" + q.Encode()
}

// outlookLink builds a deeplink compose URL for outlook.live.com or
// outlook.office.com; the two differ only in host.
func outlookLink(base string, event model.EventData, start, end time.Time) string {
	q := url.Values{}
	q.Set("path", "/calendar/action/compose")
	q.Set("rru", "addevent")
	q.Set("subject", event.Title)
	if event.IsAllDay {
		q.Set("startdt", start.Format(outlookDateOnly))
		q.Set("enddt", end.AddDate(0, 0, 1).Format(outlookDateOnly))
		q.Set("allday", "true")
	} else {
		q.Set("startdt", start.UTC().Format(outlookLayout))
		q.Set("enddt", end.UTC().Format(outlookLayout))
	}
	if event.Description != "" {
		q.Set("body", event.Description)
	}
	if event.Location != "" {
		q.Set("location", event.Location)
	}
	return base + "?" + q.Encode()
}

// yahooLink builds a calendar.yahoo.com URL (v=60 template).
func yahooLink(event model.EventData, start, end time.Time) string {
	q := url.Values{}
	q.Set("v", "60")
	q.Set("title", event.Title)
	if event.IsAllDay {
		q.Set("st", start.Format(dateLayoutShort))
		q.Set("et", end.AddDate(0, 0, 1).Format(dateLayoutShort))
		q.Set("dur", "allday")
	} else {
		q.Set("st", start.UTC().Format(stampLayoutUTC))
		q.Set("et", end.UTC().Format(stampLayoutUTC))
	}
	if event.Description != "" {
		q.Set("desc", event.Description)
	}
	if event.Location != "" {
		q.Set("in_loc", event.Location)
	}
	return yahooBase + "?" + q.Encode()
}

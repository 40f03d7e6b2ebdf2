package calendar

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/punktual/backend/internal/model"
)

// reminderTriggers maps the form's reminder codes to iCalendar trigger
// durations (negative offsets before DTSTART).
var reminderTriggers = map[string]string{
	"15min":  "-PT15M",
	"30min":  "-PT30M",
	"1hour":  "-PT1H",
	"2hours": "-PT2H",
	"1day":   "-P1D",
	"2days":  "-P2D",
	"1week":  "-P1W",
}

// appleICS renders the event as an inline iCalendar VEVENT block. Apple
// Calendar consumes the payload directly instead of following a URL.
// All-day events carry date-only DTSTART/DTEND with the exclusive end
// convention (end date = last day + 1).
func (g *Generator) appleICS(event model.EventData, start, end time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//Punktual//Add to Calendar//EN")

	ev := cal.AddEvent(eventUID(event, start))
	ev.SetDtStampTime(g.now())
	ev.SetSummary(event.Title)
	if event.Description != "" {
		ev.SetDescription(event.Description)
	}
	if event.Location != "" {
		ev.SetLocation(event.Location)
	}

	if event.IsAllDay {
		ev.SetAllDayStartAt(start)
		ev.SetAllDayEndAt(end.AddDate(0, 0, 1))
	} else {
		ev.SetStartAt(start)
		ev.SetEndAt(end)
	}

	if trigger, ok := reminderTriggers[event.ReminderTime]; ok {
		alarm := ev.AddAlarm()
		alarm.SetAction(ics.ActionDisplay)
		alarm.SetTrigger(trigger)
	}

	return cal.Serialize()
}

// eventUID derives a stable UID from the event content so regenerating the
// same event produces the same ICS identity.
func eventUID(event model.EventData, start time.Time) string {
	h := sha256.Sum256([]byte(event.Title + "|" + start.UTC().Format(stampLayoutUTC)))
	return hex.EncodeToString(h[:8]) + "@punktual.app"
}

package calendar

import (
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/punktual/backend/internal/model"
)

func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC)
	}
}

func TestAppleICS_TimedEvent(t *testing.T) {
	g := NewGeneratorAt(fixedClock())
	links := g.Generate(timedEvent(), []model.Platform{model.PlatformApple})
	payload := links[model.PlatformApple]

	assert.Contains(t, payload, "BEGIN:VCALENDAR")
	assert.Contains(t, payload, "BEGIN:VEVENT")
	assert.Contains(t, payload, "SUMMARY:Launch")
	assert.Contains(t, payload, "LOCATION:Main Hall")
	assert.Contains(t, payload, "DTSTART:20250601T090000Z")
	assert.Contains(t, payload, "DTEND:20250601T100000Z")
	assert.Contains(t, payload, "END:VEVENT")
}

func TestAppleICS_AllDayExclusiveEnd(t *testing.T) {
	g := NewGeneratorAt(fixedClock())
	links := g.Generate(allDayEvent(), []model.Platform{model.PlatformApple})
	payload := links[model.PlatformApple]

	assert.Contains(t, payload, "DTSTART;VALUE=DATE:20250601")
	// last day + 1, per the iCalendar all-day convention
	assert.Contains(t, payload, "DTEND;VALUE=DATE:20250604")
}

func TestAppleICS_Reminder(t *testing.T) {
	g := NewGeneratorAt(fixedClock())
	event := timedEvent()
	event.ReminderTime = "15min"

	links := g.Generate(event, []model.Platform{model.PlatformApple})
	payload := links[model.PlatformApple]

	assert.Contains(t, payload, "BEGIN:VALARM")
	assert.Contains(t, payload, "TRIGGER:-PT15M")
	assert.Contains(t, payload, "ACTION:DISPLAY")

	t.Run("unknown reminder code emits no alarm", func(t *testing.T) {
		event.ReminderTime = "sometime"
		links := g.Generate(event, []model.Platform{model.PlatformApple})
		assert.NotContains(t, links[model.PlatformApple], "BEGIN:VALARM")
	})
}

func TestAppleICS_DeterministicUID(t *testing.T) {
	g := NewGeneratorAt(fixedClock())

	first := g.Generate(timedEvent(), []model.Platform{model.PlatformApple})
	second := g.Generate(timedEvent(), []model.Platform{model.PlatformApple})
	assert.Equal(t, first[model.PlatformApple], second[model.PlatformApple])
}

func TestAppleICS_RoundTripsThroughParser(t *testing.T) {
	g := NewGeneratorAt(fixedClock())
	links := g.Generate(timedEvent(), []model.Platform{model.PlatformApple})

	cal, err := ics.ParseCalendar(strings.NewReader(links[model.PlatformApple]))
	require.NoError(t, err)
	require.Len(t, cal.Events(), 1)

	start, err := cal.Events()[0].GetStartAt()
	require.NoError(t, err)
	end, err := cal.Events()[0].GetEndAt()
	require.NoError(t, err)
	assert.True(t, start.Before(end))
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// Date and time-of-day layouts used by the form fields. Dates and times are
// kept as separate strings because all-day events carry no time component.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Platform identifies a calendar provider a button can target.
type Platform string

const (
	PlatformGoogle    Platform = "google"
	PlatformApple     Platform = "apple"
	PlatformOutlook   Platform = "outlook"
	PlatformOffice365 Platform = "office365"
	PlatformYahoo     Platform = "yahoo"
)

// AllPlatforms lists every supported platform in display order.
var AllPlatforms = []Platform{
	PlatformGoogle,
	PlatformApple,
	PlatformOutlook,
	PlatformOffice365,
	PlatformYahoo,
}

// EventData holds the user-entered event fields of the form.
type EventData struct {
	Title        string `json:"title" validate:"required,notblank"`
	Description  string `json:"description,omitempty"`
	Location     string `json:"location,omitempty"`
	StartDate    string `json:"startDate" validate:"required"`
	EndDate      string `json:"endDate" validate:"required"`
	StartTime    string `json:"startTime,omitempty" validate:"required_unless=IsAllDay true"`
	EndTime      string `json:"endTime,omitempty" validate:"required_unless=IsAllDay true"`
	IsAllDay     bool   `json:"isAllDay"`
	ReminderTime string `json:"reminderTime,omitempty"`
}

// StartAt combines StartDate and StartTime into a UTC instant.
// For all-day events the time component is midnight.
func (e *EventData) StartAt() (time.Time, error) {
	return combineDateTime(e.StartDate, e.StartTime, e.IsAllDay)
}

// EndAt combines EndDate and EndTime into a UTC instant.
func (e *EventData) EndAt() (time.Time, error) {
	return combineDateTime(e.EndDate, e.EndTime, e.IsAllDay)
}

func combineDateTime(date, tod string, allDay bool) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, date, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	if allDay || tod == "" {
		return d, nil
	}
	t, err := time.ParseInLocation(TimeLayout, tod, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return d.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute), nil
}

// ButtonStyle enumerates the visual button variants.
type ButtonStyle string

const (
	StyleStandard ButtonStyle = "standard"
	StyleMinimal  ButtonStyle = "minimal"
	StylePill     ButtonStyle = "pill"
	StyleOutlined ButtonStyle = "outlined"
)

// ButtonSize enumerates the button size variants.
type ButtonSize string

const (
	SizeSmall  ButtonSize = "small"
	SizeMedium ButtonSize = "medium"
	SizeLarge  ButtonSize = "large"
)

// ButtonLayout selects between a single dropdown button and a row of
// per-platform links.
type ButtonLayout string

const (
	LayoutDropdown   ButtonLayout = "dropdown"
	LayoutIndividual ButtonLayout = "individual"
)

// ButtonData holds the customization fields of the form.
type ButtonData struct {
	ButtonStyle       ButtonStyle  `json:"buttonStyle"`
	ButtonSize        ButtonSize   `json:"buttonSize"`
	ButtonLayout      ButtonLayout `json:"buttonLayout"`
	ColorTheme        string       `json:"colorTheme,omitempty"`
	TextColor         string       `json:"textColor,omitempty"`
	SelectedPlatforms []Platform   `json:"selectedPlatforms" validate:"min=1"`
	ShowIcons         bool         `json:"showIcons"`
}

// CalendarLinks maps platforms to their generated URL. The Apple entry is the
// inline ICS payload rather than a URL. Links are derived on demand and never
// persisted.
type CalendarLinks map[Platform]string

// Event is a persisted event record owned by a user.
type Event struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	EventData EventData `json:"event_data"`
	CreatedAt time.Time `json:"created_at"`
}

// Button is the persisted customization attached to an event.
type Button struct {
	ID         uuid.UUID  `json:"id"`
	EventID    uuid.UUID  `json:"event_id"`
	ButtonData ButtonData `json:"button_data"`
	CreatedAt  time.Time  `json:"created_at"`
}

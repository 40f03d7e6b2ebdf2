package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/punktual/backend/internal/model"
)

func snippetButton(layout model.ButtonLayout) model.ButtonData {
	return model.ButtonData{
		ButtonStyle:       model.StyleStandard,
		ButtonSize:        model.SizeMedium,
		ButtonLayout:      layout,
		SelectedPlatforms: []model.Platform{model.PlatformGoogle, model.PlatformYahoo},
	}
}

func TestRenderSnippet_Dropdown(t *testing.T) {
	links := model.CalendarLinks{
		model.PlatformGoogle: "https://calendar.google.com/calendar/render?action=TEMPLATE",
		model.PlatformYahoo:  "https://calendar.yahoo.com/?v=60",
	}

	html, err := RenderSnippet(snippetButton(model.LayoutDropdown), links)
	require.NoError(t, err)

	assert.Contains(t, html, `class="punktual-toggle"`)
	assert.Contains(t, html, `class="punktual-menu"`)
	assert.Contains(t, html, "Google Calendar")
	assert.Contains(t, html, "Yahoo Calendar")
	assert.NotContains(t, html, "Apple Calendar")

	// Display order is fixed regardless of map iteration order.
	assert.Less(t, strings.Index(html, "Google Calendar"), strings.Index(html, "Yahoo Calendar"))
}

func TestRenderSnippet_IndividualLinks(t *testing.T) {
	links := model.CalendarLinks{
		model.PlatformGoogle: "https://calendar.google.com/calendar/render?action=TEMPLATE",
	}

	html, err := RenderSnippet(snippetButton(model.LayoutIndividual), links)
	require.NoError(t, err)

	assert.Contains(t, html, `class="punktual-link"`)
	assert.NotContains(t, html, "punktual-toggle")
}

func TestRenderSnippet_AppleDataURI(t *testing.T) {
	ics := "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"
	links := model.CalendarLinks{model.PlatformApple: ics}

	button := snippetButton(model.LayoutDropdown)
	button.SelectedPlatforms = []model.Platform{model.PlatformApple}

	html, err := RenderSnippet(button, links)
	require.NoError(t, err)

	assert.Contains(t, html, "data:text/calendar;charset=utf-8,BEGIN:VCALENDAR")
	assert.NotContains(t, html, "\r\n", "ICS payload must be escaped inside the href")
}

func TestRenderSnippet_ColorsAndIcons(t *testing.T) {
	button := snippetButton(model.LayoutDropdown)
	button.ColorTheme = "#1a73e8"
	button.TextColor = "#ffffff"
	button.ShowIcons = true

	links := model.CalendarLinks{model.PlatformGoogle: "https://calendar.google.com/"}

	html, err := RenderSnippet(button, links)
	require.NoError(t, err)

	assert.Contains(t, html, "--punktual-bg:#1a73e8;")
	assert.Contains(t, html, "--punktual-fg:#ffffff;")
	assert.Contains(t, html, "punktual-icon-google")
}

func TestRenderSnippet_NoColorsNoStyleAttr(t *testing.T) {
	html, err := RenderSnippet(snippetButton(model.LayoutDropdown), model.CalendarLinks{
		model.PlatformGoogle: "https://calendar.google.com/",
	})
	require.NoError(t, err)
	assert.NotContains(t, html, "style=")
}

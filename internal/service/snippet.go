package service

import (
	"html/template"
	"net/url"
	"strings"

	"github.com/punktual/backend/internal/model"
)

// platformLabels are the display names used inside the generated snippet.
var platformLabels = map[model.Platform]string{
	model.PlatformGoogle:    "Google Calendar",
	model.PlatformApple:     "Apple Calendar",
	model.PlatformOutlook:   "Outlook.com",
	model.PlatformOffice365: "Office 365",
	model.PlatformYahoo:     "Yahoo Calendar",
}

var snippetTemplate = template.Must(template.New("snippet").Parse(`<!-- Punktual add-to-calendar button -->
<div class="punktual-button punktual-{{.Style}} punktual-{{.Size}}"{{if .ColorStyle}} style="{{.ColorStyle}}"{{end}}>
{{- if .Dropdown}}
  <button type="button" class="punktual-toggle">Add to Calendar</button>
  <ul class="punktual-menu">
{{- range .Links}}
    <li><a href="{{.URL}}" target="_blank" rel="noopener">{{if .Icon}}<span class="punktual-icon punktual-icon-{{.Platform}}"></span>{{end}}{{.Label}}</a></li>
{{- end}}
  </ul>
{{- else}}
{{- range .Links}}
  <a class="punktual-link" href="{{.URL}}" target="_blank" rel="noopener">{{if .Icon}}<span class="punktual-icon punktual-icon-{{.Platform}}"></span>{{end}}{{.Label}}</a>
{{- end}}
{{- end}}
</div>`))

type snippetLink struct {
	Platform model.Platform
	Label    string
	URL      template.URL
	Icon     bool
}

type snippetData struct {
	Style      model.ButtonStyle
	Size       model.ButtonSize
	Dropdown   bool
	ColorStyle template.CSS
	Links      []snippetLink
}

// RenderSnippet produces the embeddable HTML for the configured button and
// generated links. The Apple link becomes a data: URI carrying the inline ICS
// payload so the snippet stays self-contained.
func RenderSnippet(button model.ButtonData, links model.CalendarLinks) (string, error) {
	data := snippetData{
		Style:    button.ButtonStyle,
		Size:     button.ButtonSize,
		Dropdown: button.ButtonLayout != model.LayoutIndividual,
	}

	var style strings.Builder
	if button.ColorTheme != "" {
		style.WriteString("--punktual-bg:" + button.ColorTheme + ";")
	}
	if button.TextColor != "" {
		style.WriteString("--punktual-fg:" + button.TextColor + ";")
	}
	data.ColorStyle = template.CSS(style.String())

	// Iterate in display order so output is deterministic.
	for _, p := range model.AllPlatforms {
		href, ok := links[p]
		if !ok {
			continue
		}
		if p == model.PlatformApple {
			href = "data:text/calendar;charset=utf-8," + url.PathEscape(href)
		}
		data.Links = append(data.Links, snippetLink{
			Platform: p,
			Label:    platformLabels[p],
			URL:      template.URL(href),
			Icon:     button.ShowIcons,
		})
	}

	var out strings.Builder
	if err := snippetTemplate.Execute(&out, data); err != nil {
		return "", err
	}
	return out.String(), nil
}

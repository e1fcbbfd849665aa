package usecase

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/user/agro-alert/internal/domain"
)

// smsMaxLen keeps SMS bodies inside a single GSM segment.
const smsMaxLen = 160

var bannerColors = map[domain.Priority]string{
	domain.PriorityLow:    "#8a8a8a",
	domain.PriorityMedium: "#2e7d32",
	domain.PriorityHigh:   "#ef6c00",
	domain.PriorityUrgent: "#c62828",
}

var emailTemplate = template.Must(template.New("alert_email").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; margin: 0; padding: 0;">
  <div style="background-color: {{.Color}}; color: #ffffff; padding: 12px 16px;">
    <strong>{{.PriorityLabel}}</strong> {{.Title}}
  </div>
  <div style="padding: 16px;">
    <p>{{.Message}}</p>
  </div>
</body>
</html>
`))

type emailData struct {
	Color         string
	PriorityLabel string
	Title         string
	Message       string
}

// RenderEmail produces the HTML body with a priority-colored banner.
func RenderEmail(title, message string, priority domain.Priority) (string, error) {
	color, ok := bannerColors[priority]
	if !ok {
		color = bannerColors[domain.PriorityMedium]
	}
	var b strings.Builder
	err := emailTemplate.Execute(&b, emailData{
		Color:         color,
		PriorityLabel: strings.ToUpper(string(priority)),
		Title:         title,
		Message:       message,
	})
	if err != nil {
		return "", fmt.Errorf("render email template: %w", err)
	}
	return b.String(), nil
}

// RenderSMS produces the single-line "[PRIORITY] title: message" form,
// truncated rune-safely to one SMS segment.
func RenderSMS(title, message string, priority domain.Priority) string {
	line := fmt.Sprintf("[%s] %s: %s", strings.ToUpper(string(priority)), title, message)
	line = strings.ReplaceAll(line, "\n", " ")
	runes := []rune(line)
	if len(runes) <= smsMaxLen {
		return line
	}
	return string(runes[:smsMaxLen-1]) + "…"
}

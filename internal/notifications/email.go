package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/attribution-dashboard/brand-mentions/internal/models"
	"github.com/pkg/errors"
	"gopkg.in/gomail.v2"
)

const emailMentionLimit = 10

var emailTemplate = template.Must(template.New("email").Funcs(template.FuncMap{
	"title":    capitalize,
	"truncate": func(length int, s string) string { return truncate(s, length) },
	"date":     func(value string) string { return shortDate(value, "Jan 2, 2006") },
	"counts":   sortedCounts,
	"limit": func(mentions []models.Mention) []models.Mention {
		return mentions[:min(emailMentionLimit, len(mentions))]
	},
}).Parse(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.BrandName}} Mentions Report</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { background-color: #0078d4; color: white; padding: 20px; border-radius: 5px; }
        .summary { background-color: #f5f5f5; padding: 15px; margin: 20px 0; border-radius: 5px; }
        .mention { border-left: 4px solid #0078d4; padding: 10px; margin: 10px 0; background-color: #fafafa; }
        .mention-title { font-weight: bold; margin-bottom: 5px; }
        .mention-meta { color: #666; font-size: 0.9em; }
        .positive { border-left-color: #107c10; }
        .negative { border-left-color: #d13438; }
        .neutral { border-left-color: #605e5c; }
    </style>
</head>
<body>
    <div class="header">
        <h1>{{.BrandName}} Mentions Report</h1>
        <p>{{.Period}} report generated on {{.GeneratedAt.UTC.Format "January 2, 2006 at 3:04 PM UTC"}}</p>
    </div>

    <div class="summary">
        <h2>Summary</h2>
        <p><strong>Total Mentions:</strong> {{.TotalMentions}}</p>
        {{range counts .Summary.sentiment}}
            <p><strong>{{title .Key}} Mentions:</strong> {{.Count}}</p>
        {{end}}
    </div>

    {{if .Mentions}}
    <h2>Recent Mentions</h2>
    {{range limit .Mentions}}
        <div class="mention {{.Sentiment}}">
            <div class="mention-title">
                <a href="{{.URL}}" target="_blank">{{.Title}}</a>
            </div>
            <div class="mention-meta">
                By {{.Author}} on {{.Source}} | {{date .CreatedAt}} | Relevance: {{printf "%.2f" .RelevanceScore}}
            </div>
            {{if .Content}}
            <p>{{truncate 200 .Content}}</p>
            {{end}}
        </div>
    {{end}}
    {{end}}

    <hr>
    <p><small>This report was generated automatically by the brand mentions service.</small></p>
</body>
</html>
`))

func (s *Service) sendEmail(report *models.Report) error {
	subject := fmt.Sprintf("%s Mentions Report - %s (%d mentions)",
		report.BrandName, report.Period, report.TotalMentions)

	htmlBody, err := buildEmailHTML(report)
	if err != nil {
		return errors.Wrap(err, "failed to build email HTML")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", buildEmailText(report))
	m.AddAlternative("text/html", htmlBody)

	if err := s.send(m); err != nil {
		return errors.Wrap(err, "failed to send email")
	}

	return nil
}

func buildEmailHTML(report *models.Report) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, report); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func buildEmailText(report *models.Report) string {
	var text strings.Builder

	text.WriteString(fmt.Sprintf("%s Mentions Report - %s\n", report.BrandName, report.Period))
	text.WriteString(fmt.Sprintf("Generated: %s\n\n", report.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC")))

	text.WriteString("SUMMARY\n")
	text.WriteString("=======\n")
	text.WriteString(fmt.Sprintf("Total Mentions: %d\n", report.TotalMentions))

	for _, entry := range sortedCounts(report.Summary["sentiment"]) {
		text.WriteString(fmt.Sprintf("%s Mentions: %d\n", capitalize(entry.Key), entry.Count))
	}

	if len(report.Mentions) > 0 {
		text.WriteString("\nRECENT MENTIONS\n")
		text.WriteString("===============\n")

		for i, mention := range report.Mentions[:min(emailMentionLimit, len(report.Mentions))] {
			text.WriteString(fmt.Sprintf("\n%d. %s\n", i+1, mention.Title))
			text.WriteString(fmt.Sprintf("   Source: %s | Author: %s | Date: %s\n",
				mention.Source, mention.Author, shortDate(mention.CreatedAt, "Jan 2, 2006")))
			text.WriteString(fmt.Sprintf("   URL: %s\n", mention.URL))
			if mention.Content != "" {
				text.WriteString(fmt.Sprintf("   Content: %s\n", truncate(mention.Content, 200)))
			}
		}
	}

	text.WriteString("\n---\nThis report was generated automatically by the brand mentions service.\n")

	return text.String()
}

package notifications

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/attribution-dashboard/brand-mentions/internal/config"
	"github.com/attribution-dashboard/brand-mentions/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// Service handles sending notifications via various channels
type Service struct {
	config *config.Config
	client *resty.Client
	send   func(m *gomail.Message) error
}

// Ensure Service implements NotificationInterface
var _ NotificationInterface = (*Service)(nil)

// TeamsMessage represents a Microsoft Teams message
type TeamsMessage struct {
	Type       string         `json:"@type"`
	Context    string         `json:"@context"`
	ThemeColor string         `json:"themeColor,omitempty"`
	Title      string         `json:"title"`
	Text       string         `json:"text"`
	Sections   []TeamsSection `json:"sections,omitempty"`
}

type TeamsSection struct {
	ActivityTitle    string      `json:"activityTitle,omitempty"`
	ActivitySubtitle string      `json:"activitySubtitle,omitempty"`
	ActivityText     string      `json:"activityText,omitempty"`
	Facts            []TeamsFact `json:"facts,omitempty"`
	Markdown         bool        `json:"markdown,omitempty"`
}

type TeamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewService creates a new notification service
func NewService(cfg *config.Config) *Service {
	s := &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
	s.send = func(m *gomail.Message) error {
		d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
		return d.DialAndSend(m)
	}
	return s
}

// SendReport sends a report via configured notification channels
func (s *Service) SendReport(report *models.Report) error {
	var failures []string

	if s.config.TeamsWebhookURL != "" {
		if err := s.postToTeams(s.buildTeamsMessage(report)); err != nil {
			logrus.Errorf("Failed to send Teams notification: %v", err)
			failures = append(failures, fmt.Sprintf("Teams: %v", err))
		} else {
			logrus.Info("Successfully sent report to Teams")
		}
	}

	if s.config.NotificationEmail != "" {
		if err := s.sendEmail(report); err != nil {
			logrus.Errorf("Failed to send email notification: %v", err)
			failures = append(failures, fmt.Sprintf("Email: %v", err))
		} else {
			logrus.Info("Successfully sent report via email")
		}
	}

	if len(failures) > 0 {
		return errors.Errorf("notification errors: %s", strings.Join(failures, "; "))
	}

	return nil
}

// SendAlert posts an alert card to Teams. Without a webhook the alert is only logged.
func (s *Service) SendAlert(alert *models.Alert) error {
	if s.config.TeamsWebhookURL == "" {
		logrus.Warnf("Alert %s not delivered, no Teams webhook configured: %s", alert.ID, alert.Title)
		return nil
	}

	message := &TeamsMessage{
		Type:       "MessageCard",
		Context:    "https://schema.org/extensions",
		ThemeColor: alertColor(alert.Type),
		Title:      alert.Title,
		Text:       strings.ReplaceAll(alert.Message, "\n", "\n\n"),
		Sections: []TeamsSection{{
			Facts: []TeamsFact{
				{Name: "Severity", Value: alert.Type},
				{Name: "Alert ID", Value: alert.ID},
				{Name: "Raised", Value: alert.CreatedAt.UTC().Format("2006-01-02 15:04:05 UTC")},
			},
		}},
	}
	if alert.Mention != nil {
		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "Mention",
			ActivityText:  mentionLine(*alert.Mention),
			Markdown:      true,
		})
	}

	if err := s.postToTeams(message); err != nil {
		return errors.Wrap(err, "failed to send alert")
	}
	logrus.Infof("Sent %s alert %s", alert.Type, alert.ID)
	return nil
}

func (s *Service) postToTeams(message *TeamsMessage) error {
	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(message).
		Post(s.config.TeamsWebhookURL)

	if err != nil {
		return errors.Wrap(err, "failed to send Teams message")
	}

	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusAccepted {
		return errors.Errorf("Teams webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return nil
}

func (s *Service) buildTeamsMessage(report *models.Report) *TeamsMessage {
	message := &TeamsMessage{
		Type:       "MessageCard",
		Context:    "https://schema.org/extensions",
		ThemeColor: "0078D4",
		Title:      fmt.Sprintf("%s Mentions Report - %s", report.BrandName, report.Period),
		Text:       fmt.Sprintf("Found %d mentions over the %s", report.TotalMentions, report.Period),
	}

	facts := []TeamsFact{
		{Name: "Total Mentions", Value: fmt.Sprintf("%d", report.TotalMentions)},
		{Name: "Generated", Value: report.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC")},
	}
	for _, entry := range sortedCounts(report.Summary["sentiment"]) {
		facts = append(facts, TeamsFact{
			Name:  fmt.Sprintf("%s Mentions", capitalize(entry.Key)),
			Value: fmt.Sprintf("%d", entry.Count),
		})
	}
	if top, ok := report.Summary["top_sources"].([]string); ok && len(top) > 0 {
		facts = append(facts, TeamsFact{Name: "Top Sources", Value: strings.Join(top, ", ")})
	}

	message.Sections = append(message.Sections, TeamsSection{
		ActivityTitle: "Summary",
		Facts:         facts,
		Markdown:      true,
	})

	if len(report.Mentions) > 0 {
		limit := min(5, len(report.Mentions))

		var lines []string
		for _, mention := range report.Mentions[:limit] {
			lines = append(lines, mentionLine(mention))
		}

		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "Recent Mentions",
			ActivityText:  strings.Join(lines, "\n\n"),
			Markdown:      true,
		})
	}

	return message
}

func mentionLine(mention models.Mention) string {
	return fmt.Sprintf("**[%s](%s)** - %s, %s (%s)",
		mention.Title, mention.URL, mention.Source, mention.Sentiment, shortDate(mention.CreatedAt, "Jan 2"))
}

func alertColor(kind string) string {
	switch kind {
	case "critical":
		return "D13438"
	case "urgent":
		return "FF8C00"
	default:
		return "0078D4"
	}
}

type countEntry struct {
	Key   string
	Count int
}

// sortedCounts orders a map[string]int summary entry by key; other values yield nothing
func sortedCounts(value interface{}) []countEntry {
	counts, ok := value.(map[string]int)
	if !ok {
		return nil
	}
	entries := make([]countEntry, 0, len(counts))
	for k, v := range counts {
		entries = append(entries, countEntry{k, v})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries
}

// shortDate formats a stored timestamp, falling back to the raw text when it cannot be parsed
func shortDate(value, layout string) string {
	if t, ok := models.ParseTimestamp(value); ok {
		return t.Format(layout)
	}
	if value == "" {
		return "unknown date"
	}
	return value
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func truncate(s string, length int) string {
	runes := []rune(s)
	if len(runes) <= length {
		return s
	}
	return string(runes[:length]) + "..."
}

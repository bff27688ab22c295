package notify

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"netdiag/internal/models"
)

type Slack struct {
	Webhook string
	Client  *http.Client
}

// NewSlack returns nil when no webhook is configured.
func NewSlack(webhook string) *Slack {
	if webhook == "" {
		return nil
	}
	return &Slack{
		Webhook: webhook,
		Client:  httpClient(),
	}
}

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type slackAttachment struct {
	Fallback string       `json:"fallback"`
	Color    string       `json:"color"`
	Title    string       `json:"title"`
	Text     string       `json:"text"`
	Fields   []slackField `json:"fields"`
	Footer   string       `json:"footer"`
	TS       int64        `json:"ts"`
}

type slackPayload struct {
	Attachments []slackAttachment `json:"attachments"`
}

func (s *Slack) Send(ctx context.Context, event models.AlertEvent) error {
	if s == nil || s.Webhook == "" {
		return fmt.Errorf("Slack.Send: slack disabled")
	}
	if err := postJSON(ctx, s.Client, s.Webhook, slackMessage(event, time.Now())); err != nil {
		return fmt.Errorf("Slack.Send: %w", err)
	}
	return nil
}

func slackMessage(event models.AlertEvent, now time.Time) slackPayload {
	label := event.Label()
	color := "warning"
	if event.Kind == models.AlertHostDown {
		color = "danger"
	}
	return slackPayload{Attachments: []slackAttachment{{
		Fallback: fmt.Sprintf("%s: %s %s", ServiceName, event.Host, label),
		Color:    color,
		Title:    "Network Alert: " + event.Host,
		Text:     fmt.Sprintf("%s - Value: %g", title(label), event.Value),
		Fields: []slackField{
			{Title: "Host", Value: event.Host, Short: true},
			{Title: "Alert Type", Value: label, Short: true},
			{Title: "Threshold", Value: strconv.FormatFloat(event.Threshold, 'g', -1, 64), Short: true},
			{Title: "Current Value", Value: strconv.FormatFloat(event.Value, 'g', -1, 64), Short: true},
		},
		Footer: ServiceName,
		TS:     now.Unix(),
	}}}
}

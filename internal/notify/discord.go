package notify

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"netdiag/internal/models"
)

const (
	discordRed    = 0xFF0000
	discordYellow = 0xFFFF00
)

type Discord struct {
	Webhook string
	Client  *http.Client
}

// NewDiscord returns nil when no webhook is configured.
func NewDiscord(webhook string) *Discord {
	if webhook == "" {
		return nil
	}
	return &Discord{
		Webhook: webhook,
		Client:  httpClient(),
	}
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordFooter struct {
	Text string `json:"text"`
}

type discordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Color       int            `json:"color"`
	Fields      []discordField `json:"fields"`
	Footer      discordFooter  `json:"footer"`
}

type discordPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

func (d *Discord) Send(ctx context.Context, event models.AlertEvent) error {
	if d == nil || d.Webhook == "" {
		return fmt.Errorf("Discord.Send: discord disabled")
	}
	if err := postJSON(ctx, d.Client, d.Webhook, discordMessage(event)); err != nil {
		return fmt.Errorf("Discord.Send: %w", err)
	}
	return nil
}

func discordMessage(event models.AlertEvent) discordPayload {
	label := event.Label()
	color := discordYellow
	if event.Kind == models.AlertHostDown {
		color = discordRed
	}
	return discordPayload{Embeds: []discordEmbed{{
		Title:       "Network Alert: " + event.Host,
		Description: title(label) + " detected",
		Color:       color,
		Fields: []discordField{
			{Name: "Host", Value: event.Host, Inline: true},
			{Name: "Alert Type", Value: label, Inline: true},
			{Name: "Threshold", Value: strconv.FormatFloat(event.Threshold, 'g', -1, 64), Inline: true},
			{Name: "Current Value", Value: strconv.FormatFloat(event.Value, 'g', -1, 64), Inline: true},
		},
		Footer: discordFooter{Text: ServiceName},
	}}}
}

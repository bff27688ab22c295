package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"netdiag/internal/models"
)

// Webhook posts the raw alert as JSON to any endpoint.
type Webhook struct {
	URL    string
	Client *http.Client
}

func NewWebhook(url string) *Webhook {
	if url == "" {
		return nil
	}
	return &Webhook{URL: url, Client: httpClient()}
}

// Payload is the generic alert document shared by the webhook and Kafka channels.
type Payload struct {
	Type      string    `json:"type"`
	Host      string    `json:"host"`
	AlertType string    `json:"alert_type"`
	Value     float64   `json:"value"`
	Threshold float64   `json:"threshold"`
	Unit      string    `json:"unit"`
	Timestamp time.Time `json:"timestamp"`
}

func NewPayload(event models.AlertEvent) Payload {
	return Payload{
		Type:      string(event.Kind),
		Host:      event.Host,
		AlertType: event.Label(),
		Value:     event.Value,
		Threshold: event.Threshold,
		Unit:      event.Unit(),
		Timestamp: event.Timestamp,
	}
}

func (w *Webhook) Send(ctx context.Context, event models.AlertEvent) error {
	if w == nil || w.URL == "" {
		return fmt.Errorf("Webhook.Send: webhook disabled")
	}
	if err := postJSON(ctx, w.Client, w.URL, NewPayload(event)); err != nil {
		return fmt.Errorf("Webhook.Send: %w", err)
	}
	return nil
}

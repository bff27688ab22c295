// Package notify delivers alert events to external channels.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"netdiag/internal/models"
)

// ServiceName labels outgoing messages.
const ServiceName = "netdiag"

const defaultHTTPTimeout = 5 * time.Second

// Notifier delivers one alert event.
type Notifier interface {
	Send(ctx context.Context, event models.AlertEvent) error
}

// Log writes the alert line to the service log.
type Log struct {
	Logger *zap.Logger
}

func NewLog(logger *zap.Logger) *Log {
	return &Log{Logger: logger}
}

func (l *Log) Send(_ context.Context, event models.AlertEvent) error {
	l.Logger.Warn(event.Message(),
		zap.String("host", event.Host),
		zap.String("type", string(event.Kind)),
		zap.Float64("value", event.Value),
		zap.Float64("threshold", event.Threshold),
	)
	return nil
}

func postJSON(ctx context.Context, client *http.Client, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notify.postJSON: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify.postJSON: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("notify.postJSON: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("notify.postJSON: %s returned %d", url, resp.StatusCode)
	}
	return nil
}

func httpClient() *http.Client {
	return &http.Client{Timeout: defaultHTTPTimeout}
}

// title upper-cases the first letter of every word, where any non-letter
// separates words: "packet_loss" becomes "Packet_Loss".
func title(label string) string {
	b := []byte(label)
	start := true
	for i, c := range b {
		isLetter := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		switch {
		case isLetter && start && c >= 'a':
			b[i] = c - ('a' - 'A')
		case isLetter && !start && c <= 'Z':
			b[i] = c + ('a' - 'A')
		}
		start = !isLetter
	}
	return string(b)
}

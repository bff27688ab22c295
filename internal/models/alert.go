package models

import (
	"fmt"
	"time"
)

// AlertKind identifies the single alert raised for a host in a cycle.
type AlertKind string

const (
	AlertHostDown    AlertKind = "host_down"
	AlertHighLoss    AlertKind = "high_loss"
	AlertHighLatency AlertKind = "high_latency"
)

// AlertEvent is a threshold breach found in a completed scan cycle
type AlertEvent struct {
	Kind      AlertKind `json:"type"`
	Host      string    `json:"host"`
	Value     float64   `json:"value"`
	Threshold float64   `json:"threshold"`
	Timestamp time.Time `json:"timestamp"`
}

// Unit returns the unit of Value.
func (e AlertEvent) Unit() string {
	if e.Kind == AlertHighLatency {
		return "ms"
	}
	return "%"
}

// Label is the short alert type used in webhook payloads.
func (e AlertEvent) Label() string {
	switch e.Kind {
	case AlertHostDown:
		return "down"
	case AlertHighLoss:
		return "packet_loss"
	case AlertHighLatency:
		return "latency"
	}
	return string(e.Kind)
}

// Message renders the alert the way it appears in the service log.
func (e AlertEvent) Message() string {
	switch e.Kind {
	case AlertHostDown:
		return fmt.Sprintf("ALERT: Host %s is unreachable", e.Host)
	case AlertHighLoss:
		return fmt.Sprintf("ALERT: Host %s packet loss %g%%", e.Host, e.Value)
	case AlertHighLatency:
		return fmt.Sprintf("ALERT: Host %s latency %gms", e.Host, e.Value)
	}
	return fmt.Sprintf("ALERT: Host %s %s", e.Host, e.Kind)
}

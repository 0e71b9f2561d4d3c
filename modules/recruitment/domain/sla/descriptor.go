// Package sla derives countdown standings for recruitment pipeline steps.
// The backend owns the pipeline state machine and SLA lifecycle; this package
// only classifies a read-only snapshot against the wall clock. Derivation is
// pure: same inputs and same instant always produce the same result.
package sla

import (
	"strings"
	"time"
)

// Descriptor is the read-only SLA shape the backend attaches to an entity
// while it sits at one pipeline step. Either DeadlineAt is given directly, or
// it is derivable from StartAt plus PlannedMinutes.
type Descriptor struct {
	StepName       string `json:"stepName"`
	PlannedMinutes int    `json:"plannedMinutes"`
	StartAt        string `json:"startAt,omitempty"`
	DeadlineAt     string `json:"deadlineAt,omitempty"`
}

var instantLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseInstant parses an upstream timestamp leniently. SLA display is
// advisory, so a malformed instant is treated as absent instead of an error.
func ParseInstant(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return time.Time{}, false
	}
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

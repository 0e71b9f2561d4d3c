package sla

import "time"

type Status string

const (
	StatusOnTime  Status = "ON_TIME"
	StatusDueSoon Status = "DUE_SOON"
	StatusOverdue Status = "OVERDUE"
)

// Reason explains why no standing could be derived. Neither value is an
// error: a step without configuration or without a start instant simply has
// nothing to count down.
type Reason string

const (
	ReasonNoSlaConfig      Reason = "NO_SLA_CONFIG"
	ReasonMissingStartTime Reason = "MISSING_START_TIME"
)

type BadgeVariant string

const (
	BadgeGreen  BadgeVariant = "green"
	BadgeOrange BadgeVariant = "orange"
	BadgeRed    BadgeVariant = "red"
	BadgeGray   BadgeVariant = "gray"
)

const (
	DefaultDueSoon = 10 * time.Minute
	// DefaultTimeZone is the single display zone deadlines are rendered in.
	DefaultTimeZone = "Asia/Kolkata"
)

// Overrides supply discrete raw inputs for entities that carry SLA context
// outside a Descriptor. Descriptor fields always win over overrides.
type Overrides struct {
	StepKey        string
	PlannedMinutes int
	StartAt        *time.Time
	DeadlineAt     *time.Time
}

type DeriveOptions struct {
	DueSoon  time.Duration // zero means DefaultDueSoon
	TimeZone string        // empty means DefaultTimeZone
}

// Countdown is one immutable evaluation of a step against the clock. It is
// recomputed fresh on every tick and never mutated.
type Countdown struct {
	StepName       string
	PlannedMinutes int
	HasSla         bool
	Reason         Reason
	DeadlineAt     *time.Time
	Remaining      *time.Duration
	IsOverdue      bool
	Status         Status
	BadgeVariant   BadgeVariant
	BadgeText      string
	DeadlineText   string
	PlannedText    string
}

// HasContext reports whether any SLA input was supplied at all. Entities
// that never had one render nothing rather than an empty chip.
func HasContext(desc *Descriptor, ov Overrides) bool {
	if desc != nil {
		return true
	}
	return ov.StepKey != "" || ov.PlannedMinutes != 0 || ov.StartAt != nil || ov.DeadlineAt != nil
}

// Derive maps a descriptor (or discrete overrides) and the current instant to
// a countdown standing.
//
// Resolution order for the deadline: the descriptor's own deadlineAt, then
// the override deadline, then start + planned duration. A deadline exactly
// equal to now counts as overdue.
func Derive(desc *Descriptor, ov Overrides, now time.Time, opts DeriveOptions) Countdown {
	dueSoon := opts.DueSoon
	if dueSoon <= 0 {
		dueSoon = DefaultDueSoon
	}
	tz := opts.TimeZone
	if tz == "" {
		tz = DefaultTimeZone
	}

	stepName := ov.StepKey
	planned := ov.PlannedMinutes
	if desc != nil {
		stepName = desc.StepName
		planned = desc.PlannedMinutes
	}

	var deadline *time.Time
	if desc != nil {
		if t, ok := ParseInstant(desc.DeadlineAt); ok {
			deadline = &t
		}
	}
	if deadline == nil && ov.DeadlineAt != nil {
		deadline = ov.DeadlineAt
	}
	if deadline == nil && planned > 0 {
		var start *time.Time
		if desc != nil {
			if t, ok := ParseInstant(desc.StartAt); ok {
				start = &t
			}
		}
		if start == nil && ov.StartAt != nil {
			start = ov.StartAt
		}
		if start != nil {
			t := start.Add(time.Duration(planned) * time.Minute)
			deadline = &t
		}
	}

	if planned <= 0 {
		return Countdown{
			StepName:     stepName,
			HasSla:       false,
			Reason:       ReasonNoSlaConfig,
			BadgeVariant: BadgeGray,
			BadgeText:    "No SLA",
		}
	}

	plannedText := FormatDuration(time.Duration(planned) * time.Minute)
	if deadline == nil {
		// Duration is configured but the step's clock has not started (or the
		// start instant was malformed), so the only thing to show is the plan.
		return Countdown{
			StepName:       stepName,
			PlannedMinutes: planned,
			HasSla:         false,
			Reason:         ReasonMissingStartTime,
			BadgeVariant:   BadgeGray,
			BadgeText:      "SLA pending",
			PlannedText:    plannedText,
		}
	}

	remaining := deadline.Sub(now)
	overdue := remaining <= 0

	status := StatusOnTime
	variant := BadgeGreen
	badgeText := FormatDuration(remaining) + " left"
	switch {
	case overdue:
		status = StatusOverdue
		variant = BadgeRed
		badgeText = "OVERDUE by " + FormatDuration(remaining)
	case remaining <= dueSoon:
		status = StatusDueSoon
		variant = BadgeOrange
	}

	return Countdown{
		StepName:       stepName,
		PlannedMinutes: planned,
		HasSla:         true,
		DeadlineAt:     deadline,
		Remaining:      &remaining,
		IsOverdue:      overdue,
		Status:         status,
		BadgeVariant:   variant,
		BadgeText:      badgeText,
		DeadlineText:   FormatDueAt(*deadline, tz),
		PlannedText:    plannedText,
	}
}

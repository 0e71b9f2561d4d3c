package viewmodels

import (
	"strconv"
	"time"

	"github.com/iota-uz/slatrack/modules/recruitment/domain/sla"
	"github.com/iota-uz/slatrack/modules/recruitment/services"
)

// CountdownBadge is the compact status chip rendered next to an entity.
type CountdownBadge struct {
	Variant string `json:"variant"`
	Text    string `json:"text"`
	// Detail sits beneath the badge: "deadline | planned" when a concrete
	// deadline exists, just the planned duration while the SLA is pending.
	Detail string `json:"detail,omitempty"`
}

// NewCountdownBadge maps a derived countdown to its badge. Nil in, nil out:
// entities that never had SLA context show no chip at all rather than an
// empty one.
func NewCountdownBadge(cd *sla.Countdown) *CountdownBadge {
	if cd == nil {
		return nil
	}
	badge := &CountdownBadge{
		Variant: string(cd.BadgeVariant),
		Text:    cd.BadgeText,
	}
	switch {
	case cd.DeadlineText != "" && cd.PlannedText != "":
		badge.Detail = cd.DeadlineText + " | " + cd.PlannedText
	case cd.PlannedText != "":
		badge.Detail = cd.PlannedText
	}
	return badge
}

// Countdown is the full wire shape of one evaluation.
type Countdown struct {
	StepName       string  `json:"stepName"`
	PlannedMinutes int     `json:"plannedMinutes"`
	HasSla         bool    `json:"hasSla"`
	Reason         string  `json:"reason,omitempty"`
	DeadlineAt     *string `json:"deadlineAt"`
	RemainingMs    *int64  `json:"remainingMs"`
	IsOverdue      bool    `json:"isOverdue"`
	Status         string  `json:"status,omitempty"`
	BadgeVariant   string  `json:"badgeVariant,omitempty"`
	BadgeText      string  `json:"badgeText,omitempty"`
	DeadlineText   string  `json:"deadlineText,omitempty"`
	PlannedText    string  `json:"plannedText,omitempty"`
}

func NewCountdown(cd sla.Countdown) Countdown {
	view := Countdown{
		StepName:       cd.StepName,
		PlannedMinutes: cd.PlannedMinutes,
		HasSla:         cd.HasSla,
		Reason:         string(cd.Reason),
		IsOverdue:      cd.IsOverdue,
		Status:         string(cd.Status),
		BadgeVariant:   string(cd.BadgeVariant),
		BadgeText:      cd.BadgeText,
		DeadlineText:   cd.DeadlineText,
		PlannedText:    cd.PlannedText,
	}
	if cd.DeadlineAt != nil {
		formatted := cd.DeadlineAt.UTC().Format(time.RFC3339)
		view.DeadlineAt = &formatted
	}
	if cd.Remaining != nil {
		ms := cd.Remaining.Milliseconds()
		view.RemainingMs = &ms
	}
	return view
}

// Unsupported or data-less cells render a dash, never a false zero.
const noValue = "—"

type StageRow struct {
	Stage      string     `json:"stage"`
	Supported  bool       `json:"supported"`
	HasData    bool       `json:"hasData"`
	SlaEnabled bool       `json:"slaEnabled"`
	Active     string     `json:"active"`
	Overdue    string     `json:"overdue"`
	OldestAt   *string    `json:"oldestAt"`
	Countdown  *Countdown `json:"countdown,omitempty"`
}

type Board struct {
	GeneratedAt string            `json:"generatedAt"`
	Partial     bool              `json:"partial"`
	Stages      []StageRow        `json:"stages"`
	Errors      map[string]string `json:"errors,omitempty"`
}

func NewBoard(board *services.Board) Board {
	view := Board{
		GeneratedAt: board.GeneratedAt.UTC().Format(time.RFC3339),
		Partial:     board.Partial,
		Stages:      make([]StageRow, 0, len(board.Stages)),
	}
	if len(board.SourceErrors) > 0 {
		view.Errors = board.SourceErrors
	}
	for _, summary := range board.Stages {
		view.Stages = append(view.Stages, newStageRow(summary))
	}
	return view
}

func newStageRow(summary services.StageSummary) StageRow {
	row := StageRow{
		Stage:      summary.Stage,
		Supported:  summary.Supported,
		HasData:    summary.HasData,
		SlaEnabled: summary.SlaEnabled,
		Active:     noValue,
		Overdue:    noValue,
	}
	if !summary.Supported || !summary.HasData {
		return row
	}
	row.Active = strconv.Itoa(summary.Active)
	if summary.SlaEnabled {
		row.Overdue = strconv.Itoa(summary.Overdue)
	}
	if summary.Oldest != nil {
		formatted := summary.Oldest.UTC().Format(time.RFC3339)
		row.OldestAt = &formatted
	}
	if summary.Countdown != nil {
		cd := NewCountdown(*summary.Countdown)
		row.Countdown = &cd
	}
	return row
}

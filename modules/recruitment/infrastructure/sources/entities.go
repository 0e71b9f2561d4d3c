package sources

import "github.com/iota-uz/slatrack/modules/recruitment/domain/sla"

// Upstream list payloads. Shapes vary per endpoint; every timestamp is an
// optional ISO-8601 string the backend may leave empty or null. Only the
// fields the board needs are decoded.

type JobPostingState struct {
	Completed   bool   `json:"completed"`
	CompletedAt string `json:"completedAt,omitempty"`
}

type Requisition struct {
	ID              string           `json:"id"`
	Status          string           `json:"status"`
	ApprovedAt      string           `json:"approvedAt,omitempty"`
	CreatedAt       string           `json:"createdAt,omitempty"`
	UpdatedAt       string           `json:"updatedAt,omitempty"`
	JobPostingState *JobPostingState `json:"jobPostingState,omitempty"`
	Sla             *sla.Descriptor  `json:"sla,omitempty"`
}

type Candidate struct {
	ID                    string          `json:"id"`
	Status                string          `json:"status"`
	WalkinAt              string          `json:"walkinAt,omitempty"`
	PreCallAt             string          `json:"preCallAt,omitempty"`
	OnlineTestSubmittedAt string          `json:"onlineTestSubmittedAt,omitempty"`
	CreatedAt             string          `json:"createdAt,omitempty"`
	UpdatedAt             string          `json:"updatedAt,omitempty"`
	Sla                   *sla.Descriptor `json:"sla,omitempty"`
}

type Interview struct {
	ID              string          `json:"id"`
	Status          string          `json:"status"`
	TechSelectedAt  string          `json:"techSelectedAt,omitempty"`
	TechEvaluatedAt string          `json:"techEvaluatedAt,omitempty"`
	UpdatedAt       string          `json:"updatedAt,omitempty"`
	Sla             *sla.Descriptor `json:"sla,omitempty"`
}

type Probation struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	ProbationStartAt string `json:"probationStartAt,omitempty"`
	CreatedAt        string `json:"createdAt,omitempty"`
	UpdatedAt        string `json:"updatedAt,omitempty"`
}

package sla

// StageConfig is one per-stage SLA record, loaded once at startup. A disabled
// stage is never reported overdue no matter how long its timers have run.
type StageConfig struct {
	StepName       string `json:"stepName" yaml:"stepName"`
	PlannedMinutes int    `json:"plannedMinutes" yaml:"plannedMinutes"`
	Enabled        bool   `json:"enabled" yaml:"enabled"`
}

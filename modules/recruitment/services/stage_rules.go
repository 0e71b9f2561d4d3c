package services

import (
	"time"

	"github.com/iota-uz/slatrack/modules/recruitment/domain/sla"
	"github.com/iota-uz/slatrack/modules/recruitment/infrastructure/sources"
)

// Canonical pipeline stages in display order. Stages without an extraction
// rule below (offer and joining are negotiated off-system) are reported as
// unsupported rather than a false zero.
const (
	StageJobPosting    = "JOB_POSTING"
	StageWalkin        = "WALKIN"
	StagePrecall       = "PRECALL"
	StageOnlineTest    = "ONLINE_TEST"
	StageTechInterview = "TECH_INTERVIEW"
	StageHrReview      = "HR_REVIEW"
	StageOffer         = "OFFER"
	StageJoining       = "JOINING"
	StageProbation     = "PROBATION"
)

var PipelineStages = []string{
	StageJobPosting,
	StageWalkin,
	StagePrecall,
	StageOnlineTest,
	StageTechInterview,
	StageHrReview,
	StageOffer,
	StageJoining,
	StageProbation,
}

// Source names used in error reporting and metrics labels.
const (
	sourceRequisitions = "requisitions"
	sourceCandidates   = "candidates"
	sourceInterviews   = "interviews"
	sourceProbations   = "probations"
)

// stageSource names the list endpoint feeding each supported stage, so a
// failed source marks exactly its stages as having no live data.
var stageSource = map[string]string{
	StageJobPosting:    sourceRequisitions,
	StageWalkin:        sourceCandidates,
	StagePrecall:       sourceCandidates,
	StageOnlineTest:    sourceCandidates,
	StageTechInterview: sourceInterviews,
	StageHrReview:      sourceInterviews,
	StageProbation:     sourceProbations,
}

// stageRule selects the entities actually waiting at one stage and names the
// instant the stage's clock began, as a fallback chain: the first parseable
// field wins.
type stageRule[T any] struct {
	stage    string
	eligible func(T) bool
	startAt  func(T) []string
}

// descriptorStart surfaces the backend-attached SLA descriptor's start
// instant when the descriptor belongs to the given stage. The descriptor is
// the owner of record for the step's clock, so it heads every fallback chain.
func descriptorStart(desc *sla.Descriptor, stage string) string {
	if desc == nil || desc.StepName != stage {
		return ""
	}
	return desc.StartAt
}

var requisitionRules = []stageRule[sources.Requisition]{
	{
		stage: StageJobPosting,
		// Approved but the job posting is not yet live.
		eligible: func(r sources.Requisition) bool {
			return r.Status == "APPROVED" && (r.JobPostingState == nil || !r.JobPostingState.Completed)
		},
		startAt: func(r sources.Requisition) []string {
			return []string{descriptorStart(r.Sla, StageJobPosting), r.ApprovedAt, r.UpdatedAt, r.CreatedAt}
		},
	},
}

var candidateRules = []stageRule[sources.Candidate]{
	{
		stage: StageWalkin,
		// Scheduled but not yet appeared.
		eligible: func(c sources.Candidate) bool { return c.Status == "WALKIN_SCHEDULED" },
		startAt: func(c sources.Candidate) []string {
			return []string{descriptorStart(c.Sla, StageWalkin), c.WalkinAt, c.UpdatedAt}
		},
	},
	{
		stage:    StagePrecall,
		eligible: func(c sources.Candidate) bool { return c.Status == "PRECALL_PENDING" },
		startAt: func(c sources.Candidate) []string {
			return []string{descriptorStart(c.Sla, StagePrecall), c.PreCallAt, c.CreatedAt}
		},
	},
	{
		stage: StageOnlineTest,
		// Submitted, awaiting evaluation.
		eligible: func(c sources.Candidate) bool { return c.Status == "ONLINE_TEST_SUBMITTED" },
		startAt: func(c sources.Candidate) []string {
			return []string{descriptorStart(c.Sla, StageOnlineTest), c.OnlineTestSubmittedAt, c.UpdatedAt}
		},
	},
}

var interviewRules = []stageRule[sources.Interview]{
	{
		stage: StageTechInterview,
		// Shortlisted for the tech round, interview still pending.
		eligible: func(i sources.Interview) bool { return i.Status == "TECH_SELECTED" },
		startAt: func(i sources.Interview) []string {
			return []string{descriptorStart(i.Sla, StageTechInterview), i.TechSelectedAt, i.UpdatedAt}
		},
	},
	{
		stage: StageHrReview,
		// Tech round evaluated, waiting on the HR decision.
		eligible: func(i sources.Interview) bool { return i.Status == "TECH_EVALUATED" },
		startAt: func(i sources.Interview) []string {
			return []string{descriptorStart(i.Sla, StageHrReview), i.TechEvaluatedAt, i.UpdatedAt}
		},
	},
}

var probationRules = []stageRule[sources.Probation]{
	{
		stage:    StageProbation,
		eligible: func(p sources.Probation) bool { return p.Status == "ACTIVE" },
		startAt: func(p sources.Probation) []string {
			return []string{p.ProbationStartAt, p.CreatedAt}
		},
	},
}

// collect applies every rule to every entity, parsing the first usable start
// instant per match into the stage timer set. An entity with no parseable
// instant is skipped: a timer that cannot be placed in time cannot age.
func collect[T any](items []T, rules []stageRule[T], timers map[string][]time.Time) {
	for _, item := range items {
		for _, rule := range rules {
			if !rule.eligible(item) {
				continue
			}
			for _, raw := range rule.startAt(item) {
				if t, ok := sla.ParseInstant(raw); ok {
					timers[rule.stage] = append(timers[rule.stage], t)
					break
				}
			}
		}
	}
}

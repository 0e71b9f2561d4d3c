package services

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/slatrack/modules/recruitment/domain/sla"
	"github.com/iota-uz/slatrack/modules/recruitment/infrastructure/sources"
	"github.com/iota-uz/slatrack/pkg/clock"
)

var boardNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type stubFetcher struct {
	requisitions []sources.Requisition
	candidates   []sources.Candidate
	interviews   []sources.Interview
	probations   []sources.Probation

	requisitionsErr error
	candidatesErr   error
	interviewsErr   error
	probationsErr   error
}

func (s *stubFetcher) Requisitions(ctx context.Context) ([]sources.Requisition, error) {
	return s.requisitions, s.requisitionsErr
}

func (s *stubFetcher) Candidates(ctx context.Context) ([]sources.Candidate, error) {
	return s.candidates, s.candidatesErr
}

func (s *stubFetcher) Interviews(ctx context.Context) ([]sources.Interview, error) {
	return s.interviews, s.interviewsErr
}

func (s *stubFetcher) Probations(ctx context.Context) ([]sources.Probation, error) {
	return s.probations, s.probationsErr
}

type noopScheduler struct{}

func (noopScheduler) Start(time.Duration, func()) {}
func (noopScheduler) Stop()                       {}

func newBoardService(t *testing.T, fetcher sources.Fetcher, stages []sla.StageConfig) *BoardService {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	clk := clock.NewStore(log,
		clock.WithNowFunc(func() time.Time { return boardNow }),
		clock.WithScheduler(noopScheduler{}),
	)
	return NewBoardService(fetcher, NewConfigService(stages), clk, nil, sla.DeriveOptions{TimeZone: "UTC"}, log)
}

func stageByName(t *testing.T, board *Board, name string) StageSummary {
	t.Helper()
	for _, s := range board.Stages {
		if s.Stage == name {
			return s
		}
	}
	t.Fatalf("stage %s not on board", name)
	return StageSummary{}
}

func iso(t time.Time) string {
	return t.Format(time.RFC3339)
}

func TestBoardService_OverdueAndOldest(t *testing.T) {
	fetcher := &stubFetcher{
		candidates: []sources.Candidate{
			{ID: "c1", Status: "PRECALL_PENDING", PreCallAt: iso(boardNow.Add(-45 * time.Minute))},
			{ID: "c2", Status: "PRECALL_PENDING", PreCallAt: iso(boardNow.Add(-10 * time.Minute))},
			{ID: "c3", Status: "REJECTED", PreCallAt: iso(boardNow.Add(-5 * time.Hour))},
		},
	}
	svc := newBoardService(t, fetcher, []sla.StageConfig{
		{StepName: StagePrecall, PlannedMinutes: 30, Enabled: true},
	})

	board, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	require.False(t, board.Partial)

	precall := stageByName(t, board, StagePrecall)
	require.True(t, precall.Supported)
	require.True(t, precall.HasData)
	require.True(t, precall.SlaEnabled)
	require.Equal(t, 2, precall.Active)
	require.Equal(t, 1, precall.Overdue)
	require.Equal(t, boardNow.Add(-45*time.Minute), *precall.Oldest)

	require.NotNil(t, precall.Countdown)
	require.Equal(t, sla.StatusOverdue, precall.Countdown.Status)
	require.Equal(t, "OVERDUE by 00:15:00", precall.Countdown.BadgeText)
}

func TestBoardService_DisabledStageNeverOverdue(t *testing.T) {
	fetcher := &stubFetcher{
		probations: []sources.Probation{
			{ID: "p1", Status: "ACTIVE", ProbationStartAt: iso(boardNow.Add(-90 * 24 * time.Hour))},
		},
	}
	svc := newBoardService(t, fetcher, []sla.StageConfig{
		{StepName: StageProbation, PlannedMinutes: 60, Enabled: false},
	})

	board, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	probation := stageByName(t, board, StageProbation)
	require.Equal(t, 1, probation.Active)
	require.Zero(t, probation.Overdue)
	require.False(t, probation.SlaEnabled)
	require.NotNil(t, probation.Countdown)
	require.False(t, probation.Countdown.HasSla)
	require.Equal(t, sla.ReasonNoSlaConfig, probation.Countdown.Reason)
}

func TestBoardService_EmptySupportedStageIsZeroNotUnsupported(t *testing.T) {
	svc := newBoardService(t, &stubFetcher{}, []sla.StageConfig{
		{StepName: StageWalkin, PlannedMinutes: 30, Enabled: true},
	})

	board, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	walkin := stageByName(t, board, StageWalkin)
	require.True(t, walkin.Supported)
	require.True(t, walkin.HasData)
	require.Zero(t, walkin.Active)
	require.Zero(t, walkin.Overdue)
	require.Nil(t, walkin.Oldest)
}

func TestBoardService_UnsupportedStage(t *testing.T) {
	svc := newBoardService(t, &stubFetcher{}, nil)

	board, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	offer := stageByName(t, board, StageOffer)
	require.False(t, offer.Supported)
	require.Zero(t, offer.Active)
}

func TestBoardService_PartialFailureDegradesOnlyItsStages(t *testing.T) {
	fetcher := &stubFetcher{
		candidatesErr: errors.New("candidates endpoint down"),
		interviews: []sources.Interview{
			{ID: "i1", Status: "TECH_SELECTED", TechSelectedAt: iso(boardNow.Add(-time.Hour))},
		},
	}
	svc := newBoardService(t, fetcher, []sla.StageConfig{
		{StepName: StageTechInterview, PlannedMinutes: 120, Enabled: true},
	})

	board, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	require.True(t, board.Partial)
	require.Contains(t, board.SourceErrors, "candidates")

	walkin := stageByName(t, board, StageWalkin)
	require.True(t, walkin.Supported)
	require.False(t, walkin.HasData)

	tech := stageByName(t, board, StageTechInterview)
	require.True(t, tech.HasData)
	require.Equal(t, 1, tech.Active)
	require.Equal(t, sla.StatusOnTime, tech.Countdown.Status)
}

func TestBoardService_AllSourcesFailed(t *testing.T) {
	fetcher := &stubFetcher{
		requisitionsErr: errors.New("down"),
		candidatesErr:   errors.New("down"),
		interviewsErr:   errors.New("down"),
		probationsErr:   errors.New("down"),
	}
	svc := newBoardService(t, fetcher, nil)

	board, err := svc.Refresh(context.Background())
	require.Error(t, err)
	require.Nil(t, board)
	require.Contains(t, err.Error(), "all upstream sources failed")
}

func TestCollect_FallbackChainAndMalformed(t *testing.T) {
	timers := make(map[string][]time.Time)
	collect([]sources.Candidate{
		// walkinAt wins when parseable.
		{Status: "WALKIN_SCHEDULED", WalkinAt: iso(boardNow.Add(-time.Hour)), UpdatedAt: iso(boardNow)},
		// Malformed walkinAt falls back to updatedAt.
		{Status: "WALKIN_SCHEDULED", WalkinAt: "garbage", UpdatedAt: iso(boardNow.Add(-2 * time.Hour))},
		// Nothing parseable: entity carries no placeable timer.
		{Status: "WALKIN_SCHEDULED", WalkinAt: "garbage", UpdatedAt: ""},
		// Ineligible status contributes nothing.
		{Status: "HIRED", WalkinAt: iso(boardNow)},
	}, candidateRules, timers)

	require.Len(t, timers[StageWalkin], 2)
	require.Equal(t, boardNow.Add(-time.Hour), timers[StageWalkin][0])
	require.Equal(t, boardNow.Add(-2*time.Hour), timers[StageWalkin][1])
}

func TestCollect_DescriptorStartBeatsEntityFields(t *testing.T) {
	descStart := boardNow.Add(-3 * time.Hour)
	timers := make(map[string][]time.Time)
	collect([]sources.Candidate{
		// The backend-attached descriptor names the step's own start instant.
		{
			Status:    "PRECALL_PENDING",
			PreCallAt: iso(boardNow.Add(-time.Hour)),
			Sla:       &sla.Descriptor{StepName: StagePrecall, PlannedMinutes: 30, StartAt: iso(descStart)},
		},
		// A descriptor for a different step does not hijack this stage's clock.
		{
			Status:    "PRECALL_PENDING",
			PreCallAt: iso(boardNow.Add(-2 * time.Hour)),
			Sla:       &sla.Descriptor{StepName: StageWalkin, PlannedMinutes: 60, StartAt: iso(boardNow)},
		},
		// A malformed descriptor instant falls through to the entity field.
		{
			Status:    "PRECALL_PENDING",
			PreCallAt: iso(boardNow.Add(-30 * time.Minute)),
			Sla:       &sla.Descriptor{StepName: StagePrecall, PlannedMinutes: 30, StartAt: "garbage"},
		},
	}, candidateRules, timers)

	require.Len(t, timers[StagePrecall], 3)
	require.Equal(t, descStart, timers[StagePrecall][0])
	require.Equal(t, boardNow.Add(-2*time.Hour), timers[StagePrecall][1])
	require.Equal(t, boardNow.Add(-30*time.Minute), timers[StagePrecall][2])
}

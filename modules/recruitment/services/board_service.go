package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/slatrack/modules/recruitment/domain/sla"
	"github.com/iota-uz/slatrack/modules/recruitment/infrastructure/sources"
	"github.com/iota-uz/slatrack/pkg/clock"
	"github.com/iota-uz/slatrack/pkg/eventbus"
	"github.com/iota-uz/slatrack/pkg/metrics"
)

// StageSummary is one row of the operational board: how many entities wait at
// the stage and how the oldest of them stands against the stage SLA.
type StageSummary struct {
	Stage      string
	Supported  bool // false when no source feeds this stage
	HasData    bool // false when the stage's source failed this refresh
	SlaEnabled bool
	Active     int
	Overdue    int
	Oldest     *time.Time
	Countdown  *sla.Countdown
}

type Board struct {
	GeneratedAt  time.Time
	Stages       []StageSummary
	SourceErrors map[string]string
	Partial      bool

	// Timers is the stage timer set the summaries were computed from, kept so
	// countdowns can be re-scored on later ticks without refetching.
	Timers map[string][]time.Time
}

type BoardRefreshedEvent struct {
	GeneratedAt time.Time
	Partial     bool
}

type StageOverdueEvent struct {
	Stage   string
	Overdue int
	Oldest  time.Time
}

type BoardService struct {
	fetcher sources.Fetcher
	config  *ConfigService
	clk     *clock.Store
	bus     eventbus.EventBus
	opts    sla.DeriveOptions
	log     *logrus.Logger
}

func NewBoardService(
	fetcher sources.Fetcher,
	config *ConfigService,
	clk *clock.Store,
	bus eventbus.EventBus,
	opts sla.DeriveOptions,
	log *logrus.Logger,
) *BoardService {
	return &BoardService{
		fetcher: fetcher,
		config:  config,
		clk:     clk,
		bus:     bus,
		opts:    opts,
		log:     log,
	}
}

// Refresh fans out to every source, rebuilds the stage timer sets from
// scratch and summarizes each pipeline stage. One failed source degrades only
// its own stages; the refresh errors out only when every source failed.
func (s *BoardService) Refresh(ctx context.Context) (*Board, error) {
	started := time.Now()

	type fetchResult struct {
		source string
		timers map[string][]time.Time
		err    error
	}

	results := make(chan fetchResult, 4)
	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		timers := make(map[string][]time.Time)
		items, err := s.fetcher.Requisitions(ctx)
		if err == nil {
			collect(items, requisitionRules, timers)
		}
		results <- fetchResult{sourceRequisitions, timers, err}
	}()
	go func() {
		defer wg.Done()
		timers := make(map[string][]time.Time)
		items, err := s.fetcher.Candidates(ctx)
		if err == nil {
			collect(items, candidateRules, timers)
		}
		results <- fetchResult{sourceCandidates, timers, err}
	}()
	go func() {
		defer wg.Done()
		timers := make(map[string][]time.Time)
		items, err := s.fetcher.Interviews(ctx)
		if err == nil {
			collect(items, interviewRules, timers)
		}
		results <- fetchResult{sourceInterviews, timers, err}
	}()
	go func() {
		defer wg.Done()
		timers := make(map[string][]time.Time)
		items, err := s.fetcher.Probations(ctx)
		if err == nil {
			collect(items, probationRules, timers)
		}
		results <- fetchResult{sourceProbations, timers, err}
	}()
	wg.Wait()
	close(results)

	timers := make(map[string][]time.Time)
	sourceErrors := make(map[string]string)
	var failures []string
	for res := range results {
		if res.err != nil {
			sourceErrors[res.source] = res.err.Error()
			failures = append(failures, res.source+": "+res.err.Error())
			metrics.BoardSourceErrors.WithLabelValues(res.source).Inc()
			if s.log != nil {
				s.log.Warnf("board: source %s failed: %v", res.source, res.err)
			}
			continue
		}
		for stage, instants := range res.timers {
			timers[stage] = append(timers[stage], instants...)
		}
	}
	if len(sourceErrors) == 4 {
		return nil, errors.Errorf("all upstream sources failed: %s", strings.Join(failures, "; "))
	}

	board := s.buildBoard(timers, sourceErrors, s.clk.Now())

	metrics.BoardRefreshDuration.Observe(time.Since(started).Seconds())
	if s.bus != nil {
		s.bus.Publish(&BoardRefreshedEvent{GeneratedAt: board.GeneratedAt, Partial: board.Partial})
		for _, summary := range board.Stages {
			if summary.Overdue > 0 && summary.Oldest != nil {
				s.bus.Publish(&StageOverdueEvent{
					Stage:   summary.Stage,
					Overdue: summary.Overdue,
					Oldest:  *summary.Oldest,
				})
			}
		}
	}
	return board, nil
}

// Rescore recomputes every stage summary from a previously fetched timer set
// against a new instant. Used by the live stream between upstream refreshes.
func (s *BoardService) Rescore(board *Board, now time.Time) *Board {
	return s.buildBoard(board.Timers, board.SourceErrors, now)
}

func (s *BoardService) buildBoard(timers map[string][]time.Time, sourceErrors map[string]string, now time.Time) *Board {
	board := &Board{
		GeneratedAt:  now,
		Stages:       make([]StageSummary, 0, len(PipelineStages)),
		SourceErrors: sourceErrors,
		Partial:      len(sourceErrors) > 0,
		Timers:       timers,
	}
	for _, stage := range PipelineStages {
		source, supported := stageSource[stage]
		if !supported {
			board.Stages = append(board.Stages, StageSummary{Stage: stage})
			continue
		}
		_, sourceFailed := sourceErrors[source]
		board.Stages = append(board.Stages, s.summarize(stage, timers[stage], !sourceFailed, now))
	}
	return board
}

func (s *BoardService) summarize(stage string, instants []time.Time, hasData bool, now time.Time) StageSummary {
	summary := StageSummary{
		Stage:     stage,
		Supported: true,
		HasData:   hasData,
	}
	if !hasData {
		return summary
	}
	summary.Active = len(instants)
	metrics.StageActive.WithLabelValues(stage).Set(float64(summary.Active))

	cfg, configured := s.config.Stage(stage)
	slaOn := configured && cfg.Enabled && cfg.PlannedMinutes > 0
	summary.SlaEnabled = slaOn

	if len(instants) == 0 {
		metrics.StageOverdue.WithLabelValues(stage).Set(0)
		return summary
	}

	oldest := instants[0]
	for _, t := range instants[1:] {
		if t.Before(oldest) {
			oldest = t
		}
	}
	summary.Oldest = &oldest

	if !slaOn {
		// Without an enabled duration nothing can be overdue; the derivation
		// still reports the "No SLA" standing for the oldest timer.
		cd := sla.Derive(nil, sla.Overrides{StepKey: stage, StartAt: &oldest}, now, s.opts)
		summary.Countdown = &cd
		metrics.StageOverdue.WithLabelValues(stage).Set(0)
		return summary
	}

	planned := time.Duration(cfg.PlannedMinutes) * time.Minute
	for _, t := range instants {
		if now.Sub(t) > planned {
			summary.Overdue++
		}
	}
	metrics.StageOverdue.WithLabelValues(stage).Set(float64(summary.Overdue))

	cd := sla.Derive(nil, sla.Overrides{
		StepKey:        stage,
		PlannedMinutes: cfg.PlannedMinutes,
		StartAt:        &oldest,
	}, now, s.opts)
	summary.Countdown = &cd
	return summary
}

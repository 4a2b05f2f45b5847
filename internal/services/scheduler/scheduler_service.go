package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/brandwell/contentforge/internal/common"
	"github.com/brandwell/contentforge/internal/jobs/orchestrator"
	"github.com/brandwell/contentforge/internal/planfile"
)

// Service runs registered campaign plans ahead of their publish times.
// On each cron tick, any registered campaign with an item scheduled inside
// the lead window gets a generation run started.
type Service struct {
	orchestrator *orchestrator.Orchestrator
	config       *common.SchedulerConfig
	cron         *cron.Cron
	logger       arbor.ILogger

	mu      sync.Mutex
	plans   map[string]*planfile.Plan
	running bool
}

// NewService creates a new campaign scheduler
func NewService(orch *orchestrator.Orchestrator, config *common.SchedulerConfig, logger arbor.ILogger) *Service {
	return &Service{
		orchestrator: orch,
		config:       config,
		cron:         cron.New(),
		logger:       logger,
		plans:        make(map[string]*planfile.Plan),
	}
}

// RegisterPlan queues a campaign plan for scheduled generation
func (s *Service) RegisterPlan(plan *planfile.Plan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[plan.CampaignID] = plan
	s.logger.Info().
		Str("campaign_id", plan.CampaignID).
		Int("items", len(plan.Items)).
		Msg("Campaign plan registered with scheduler")
}

// Start begins the cron loop
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	schedule := s.config.Schedule
	if schedule == "" {
		schedule = "*/5 * * * *"
	}
	if err := common.ValidateSchedule(schedule); err != nil {
		return fmt.Errorf("invalid scheduler cron expression %q: %w", schedule, err)
	}

	if _, err := s.cron.AddFunc(schedule, s.tick); err != nil {
		return fmt.Errorf("failed to register scheduler job: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info().Str("schedule", schedule).Msg("Campaign scheduler started")
	return nil
}

// Stop halts the cron loop, waiting for an in-flight tick to finish
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.logger.Info().Msg("Campaign scheduler stopped")
}

// tick starts generation for every registered campaign that is due
func (s *Service) tick() {
	leadWindow := common.ParseDuration(s.config.LeadWindow, time.Hour)
	cutoff := time.Now().Add(leadWindow)

	s.mu.Lock()
	due := make([]*planfile.Plan, 0)
	for _, plan := range s.plans {
		if planDue(plan, cutoff) {
			due = append(due, plan)
		}
	}
	s.mu.Unlock()

	for _, plan := range due {
		if progress := s.orchestrator.GetProgress(plan.CampaignID); progress != nil {
			// Already ran or still running; scheduled runs fire once.
			continue
		}

		s.logger.Info().Str("campaign_id", plan.CampaignID).Msg("Campaign due, starting generation")
		if _, err := s.orchestrator.StartCampaign(context.Background(), plan.CampaignID, plan.Items, plan.Brand); err != nil {
			s.logger.Warn().Err(err).Str("campaign_id", plan.CampaignID).Msg("Failed to start scheduled campaign run")
		}
	}
}

func planDue(plan *planfile.Plan, cutoff time.Time) bool {
	for _, item := range plan.Items {
		if !item.ScheduledAt.IsZero() && !item.ScheduledAt.After(cutoff) {
			return true
		}
	}
	return false
}

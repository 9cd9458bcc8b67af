package service

import (
	"context"
	"fmt"
	"time"

	"resale/monitor/internal/config"
	"resale/monitor/internal/domain"
	"resale/monitor/internal/domain/task"
	"resale/monitor/internal/extract"
	"resale/monitor/internal/queue"
	"resale/monitor/internal/repository"

	"github.com/benbjohnson/clock"
	log "github.com/sirupsen/logrus"
)

// Reconciler maps one task's item, user and fresh snapshot to the updated
// item record, driving the destination listing as a side effect.
type Reconciler interface {
	Reconcile(ctx context.Context, item domain.Item, user domain.User, app domain.AppParams, snap *domain.StockSnapshot) (domain.Item, error)
}

// Service is the task loop: it processes one task at a time, strictly
// sequentially, and stops when a failure or success bound is reached.
type Service struct {
	queue      queue.Queue
	extractor  extract.Extractor
	reconciler Reconciler
	repository repository.ItemRepository
	clock      clock.Clock
	cfg        config.LoopConfig

	totalSuccess      int
	totalErrors       int
	consecutiveErrors int
}

func NewService(
	queue queue.Queue,
	extractor extract.Extractor,
	reconciler Reconciler,
	repository repository.ItemRepository,
	clk clock.Clock,
	cfg config.LoopConfig,
) *Service {
	return &Service{
		queue:      queue,
		extractor:  extractor,
		reconciler: reconciler,
		repository: repository,
		clock:      clk,
		cfg:        cfg,
	}
}

// Run polls the queue until one of the stop bounds trips. Every iteration is
// stretched to the minimum duration so the polling rate stays capped no
// matter how fast extraction completes.
func (s *Service) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			log.Infof("Polling stopped: %v", err)
			break
		}
		if s.consecutiveErrors > s.cfg.MaxConsecutiveErrors || s.totalErrors > s.cfg.MaxTotalErrors {
			log.Error("Polling ended because of too many errors")
			break
		}
		if s.totalSuccess > s.cfg.MaxTotalSuccess {
			log.Info("Polling ended because of too many successes")
			break
		}

		start := s.clock.Now()
		if err := s.pollOnce(ctx); err != nil {
			log.Errorf("Error occurred in polling: %v", err)
			s.totalErrors++
			s.consecutiveErrors++
		}

		if elapsed := s.clock.Now().Sub(start); elapsed < s.cfg.MinIteration() {
			s.sleep(ctx, s.cfg.MinIteration()-elapsed)
		}
	}

	log.Infof("Polling ended: success=%d errors=%d consecutive=%d",
		s.totalSuccess, s.totalErrors, s.consecutiveErrors)
	return nil
}

// pollOnce runs one full pipeline pass: receive, extract, reconcile,
// persist, delete. The task is deleted only after everything else
// succeeded; a failed task stays queued for redelivery.
func (s *Service) pollOnce(ctx context.Context) error {
	msg, err := s.queue.Receive(ctx)
	if err != nil {
		return fmt.Errorf("failed to receive task: %w", err)
	}
	if msg == nil {
		log.Debug("No tasks received")
		return nil
	}

	relist, err := task.UnmarshalTask[*task.RelistTask]([]byte(msg.Body))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedTask, err)
	}
	if relist.Item.ID == "" {
		return fmt.Errorf("%w: missing item id", domain.ErrMalformedTask)
	}

	log.Infof("Processing item %s (%s)", relist.Item.ID, relist.Item.OrgURL)

	snap, err := s.extractor.Extract(ctx, relist.Item.OrgPlatform, relist.Item.OrgURL)
	if err != nil {
		return fmt.Errorf("extraction failed for item %s: %w", relist.Item.ID, err)
	}

	updated, err := s.reconciler.Reconcile(ctx, relist.Item, relist.User, relist.AppParams, snap)
	if err != nil {
		return fmt.Errorf("failed to reconcile item %s: %w", relist.Item.ID, err)
	}
	log.Debugf("Updated record for item %s: live=%t listed=%t listingId=%s",
		updated.ID, updated.IsOrgLive, updated.IsListed, updated.ListingID)

	if err := s.repository.UpdateItem(ctx, relist.Item.ID, updated); err != nil {
		return fmt.Errorf("failed to persist item %s: %w", relist.Item.ID, err)
	}

	if err := s.queue.Delete(ctx, msg.ID); err != nil {
		return fmt.Errorf("failed to delete task %s: %w", msg.ID, err)
	}

	s.totalSuccess++
	s.consecutiveErrors = 0
	return nil
}

func (s *Service) sleep(ctx context.Context, d time.Duration) {
	timer := s.clock.Timer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/alquemist/internal/config"
	"github.com/mamadbah2/alquemist/internal/domain/models"
	"github.com/mamadbah2/alquemist/internal/repository"
)

const jobTimeout = 2 * time.Minute

// LotExpirer moves past-date lots to expired status.
type LotExpirer interface {
	ExpireLots(ctx context.Context, now time.Time) (int, error)
}

// FacilityLister lists facilities.
type FacilityLister interface {
	ListFacilities(ctx context.Context, filter repository.FacilityFilter) ([]models.Facility, error)
}

// Reporter renders and exports facility reports.
type Reporter interface {
	InventoryReport(ctx context.Context, facilityID string, now time.Time) (string, error)
	ExportInventory(ctx context.Context, facilityID string, now time.Time) (int, error)
	ExportActivities(ctx context.Context, facilityID string, after, until time.Time) (int, error)
	ExportsEnabled() bool
}

// ReportSender delivers rendered reports.
type ReportSender interface {
	SendReport(ctx context.Context, title, report string) error
}

// Scheduler runs the periodic expiry and reporting jobs.
type Scheduler struct {
	cron       *cron.Cron
	cfg        config.ReportingConfig
	expirer    LotExpirer
	facilities FacilityLister
	reporter   Reporter
	sender     ReportSender
	logger     *zap.Logger
	now        func() time.Time

	mu sync.Mutex
	// exported holds, per facility, the end of the last window whose
	// report completed.
	exported map[string]time.Time
}

// NewScheduler creates a scheduler in the configured timezone. sender may be
// nil, in which case reports are only exported.
func NewScheduler(cfg config.ReportingConfig, expirer LotExpirer, facilities FacilityLister, reporter Reporter, sender ReportSender, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("scheduler timezone: %w", err)
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(loc)),
		cfg:        cfg,
		expirer:    expirer,
		facilities: facilities,
		reporter:   reporter,
		sender:     sender,
		logger:     logger,
		now:        time.Now,
		exported:   make(map[string]time.Time),
	}, nil
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.ExpiryCronSchedule, s.job("expire lots", s.RunExpiry)); err != nil {
		return fmt.Errorf("schedule lot expiry %q: %w", s.cfg.ExpiryCronSchedule, err)
	}
	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.job("facility reports", s.RunReports)); err != nil {
		return fmt.Errorf("schedule reports %q: %w", s.cfg.CronSchedule, err)
	}

	s.logger.Info("starting scheduler",
		zap.String("expiry_schedule", s.cfg.ExpiryCronSchedule),
		zap.String("report_schedule", s.cfg.CronSchedule),
		zap.String("timezone", s.cfg.Timezone))
	s.cron.Start()
	return nil
}

// Stop stops the cron loop and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	s.logger.Info("stopping scheduler")
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("scheduler jobs still running at shutdown")
	}
}

func (s *Scheduler) job(name string, run func(context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		start := s.now()
		if err := run(ctx); err != nil {
			s.logger.Error("scheduled job failed", zap.String("job", name), zap.Error(err))
			return
		}
		s.logger.Info("scheduled job finished", zap.String("job", name), zap.Duration("elapsed", s.now().Sub(start)))
	}
}

// RunExpiry expires every lot whose expiration date has passed.
func (s *Scheduler) RunExpiry(ctx context.Context) error {
	n, err := s.expirer.ExpireLots(ctx, s.now())
	if err != nil {
		return err
	}
	s.logger.Info("lot expiry sweep", zap.Int("expired", n))
	return nil
}

// RunReports renders, exports and sends a report for every active facility.
// One facility failing does not stop the others; the joined errors are returned.
// A facility's activity window only advances once its report succeeds, so a
// failed window is exported again on the next run.
func (s *Scheduler) RunReports(ctx context.Context) error {
	now := s.now()

	facilities, err := s.facilities.ListFacilities(ctx, repository.FacilityFilter{Status: models.StatusActive})
	if err != nil {
		return fmt.Errorf("list facilities: %w", err)
	}

	var errs []error
	for _, f := range facilities {
		since := s.windowStart(f.ID, now)
		if err := s.reportFacility(ctx, f, since, now); err != nil {
			errs = append(errs, fmt.Errorf("facility %s: %w", f.ID, err))
			continue
		}
		s.mu.Lock()
		s.exported[f.ID] = now
		s.mu.Unlock()
	}
	return errors.Join(errs...)
}

func (s *Scheduler) windowStart(facilityID string, now time.Time) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if since, ok := s.exported[facilityID]; ok {
		return since
	}
	return now.Add(-7 * 24 * time.Hour)
}

func (s *Scheduler) reportFacility(ctx context.Context, f models.Facility, since, now time.Time) error {
	if s.reporter.ExportsEnabled() {
		if _, err := s.reporter.ExportInventory(ctx, f.ID, now); err != nil {
			return err
		}
		if _, err := s.reporter.ExportActivities(ctx, f.ID, since, now); err != nil {
			return err
		}
	}
	if s.sender == nil {
		return nil
	}

	report, err := s.reporter.InventoryReport(ctx, f.ID, now)
	if err != nil {
		return err
	}
	return s.sender.SendReport(ctx, "Weekly inventory: "+f.Name, report)
}

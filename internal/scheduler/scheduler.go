// Package scheduler запускает ночной пересчёт нагрузок по расписанию cron.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"gymcoach/internal/models"
)

// DefaultSpec - каждый день в 03:00 (формат с секундами)
const DefaultSpec = "0 0 3 * * *"

// Recalibrator - пересчёт планов одного пользователя
type Recalibrator interface {
	RecalibrateUserPlans(ctx context.Context, userID string, dryRun bool) (*models.RecalibrationSummary, error)
}

// UserLister перечисляет пользователей с активными шаблонами
type UserLister interface {
	ListUsersWithActiveTemplates(ctx context.Context) ([]string, error)
}

// Report - итог одного прогона
type Report struct {
	Users   int      `json:"users"`
	Changes int      `json:"changes"`
	Failed  []string `json:"failed,omitempty"` // user ids
}

// Scheduler - обёртка над cron с одной задачей
type Scheduler struct {
	cron    *cron.Cron
	users   UserLister
	engine  Recalibrator
	spec    string
	dryRun  bool
	timeout time.Duration
	logger  zerolog.Logger

	mu      sync.Mutex
	running bool
	jobs    sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

// Option настраивает Scheduler
type Option func(*Scheduler)

// WithLogger задаёт логгер
func WithLogger(l zerolog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// WithDryRun - считать без записи
func WithDryRun(dryRun bool) Option {
	return func(s *Scheduler) { s.dryRun = dryRun }
}

// WithUserTimeout ограничивает пересчёт одного пользователя
func WithUserTimeout(d time.Duration) Option {
	return func(s *Scheduler) { s.timeout = d }
}

// New проверяет расписание и регистрирует задачу
func New(users UserLister, engine Recalibrator, spec string, opts ...Option) (*Scheduler, error) {
	if spec == "" {
		spec = DefaultSpec
	}
	s := &Scheduler{
		cron:    cron.New(),
		users:   users,
		engine:  engine,
		spec:    spec,
		timeout: 2 * time.Minute,
		logger:  log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.cron.AddFunc(spec, s.tick); err != nil {
		return nil, fmt.Errorf("расписание %q: %w", spec, err)
	}
	return s, nil
}

// Start запускает расписание. После Stop можно запустить снова.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.cron.Start()
	s.logger.Info().Str("spec", s.spec).Bool("dry_run", s.dryRun).Msg("recalibration scheduler started")
}

// Stop останавливает расписание и дожидается текущего прогона
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	s.cron.Stop()
	cancel()
	s.jobs.Wait()
	s.logger.Info().Msg("recalibration scheduler stopped")
}

func (s *Scheduler) tick() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	ctx := s.ctx
	s.jobs.Add(1)
	s.mu.Unlock()
	defer s.jobs.Done()

	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.Error().Err(err).Msg("scheduled recalibration failed")
	}
}

// RunOnce пересчитывает всех пользователей по очереди. Ошибка пользователя
// не останавливает прогон; ошибка списка пользователей возвращается.
func (s *Scheduler) RunOnce(ctx context.Context) (Report, error) {
	started := time.Now()
	users, err := s.users.ListUsersWithActiveTemplates(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("список пользователей: %w", err)
	}

	report := Report{Users: len(users)}
	for _, userID := range users {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		userCtx, cancel := context.WithTimeout(ctx, s.timeout)
		summary, err := s.engine.RecalibrateUserPlans(userCtx, userID, s.dryRun)
		cancel()

		if summary != nil {
			report.Changes += summary.TotalChanges
		}
		if err != nil {
			report.Failed = append(report.Failed, userID)
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("recalibration failed")
			continue
		}
		s.logger.Debug().Str("user_id", userID).Int("changes", summary.TotalChanges).Msg("user recalibrated")
	}

	s.logger.Info().
		Int("users", report.Users).
		Int("changes", report.Changes).
		Int("failed", len(report.Failed)).
		Dur("took", time.Since(started)).
		Msg("recalibration run finished")
	return report, nil
}

// internal/pkg/schedule/scheduler.go
package schedule

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"sky-takeout/internal/pkg/lock"
	"sky-takeout/internal/pkg/logger"
	"sky-takeout/internal/pkg/metrics"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	ErrJobNotFound = errors.New("job not found")
	ErrJobRunning  = errors.New("job is already running")
	ErrJobExists   = errors.New("job already registered")
)

// Job 是一个可被定时或手动触发的任务
type Job struct {
	Name    string
	Trigger Trigger
	Run     func(ctx context.Context) error
}

type entry struct {
	Job
	running atomic.Bool
}

// Scheduler 为每个任务维护一个独立的 goroutine。
// 任务同步执行，执行期间错过的触发直接丢弃，不会排队。
type Scheduler struct {
	mu      sync.Mutex
	jobs    map[string]*entry
	locker  lock.Locker
	lockTTL time.Duration
	metrics *metrics.Jobs
	now     func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type Option func(*Scheduler)

// WithLocker 使用分布式锁保证多副本下同一任务只有一个实例在跑
func WithLocker(l lock.Locker, ttl time.Duration) Option {
	return func(s *Scheduler) {
		s.locker = l
		s.lockTTL = ttl
	}
}

func WithMetrics(m *metrics.Jobs) Option {
	return func(s *Scheduler) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		jobs:    make(map[string]*entry),
		locker:  lock.Noop{},
		lockTTL: 5 * time.Minute,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add 注册任务，必须在 Start 之前调用
func (s *Scheduler) Add(job Job) error {
	if job.Name == "" || job.Trigger == nil || job.Run == nil {
		return errors.New("job needs name, trigger and run func")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.Name]; ok {
		return errors.Wrap(ErrJobExists, job.Name)
	}
	s.jobs[job.Name] = &entry{Job: job}
	return nil
}

// Jobs 返回已注册的任务名
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	return names
}

// Start 启动所有任务的循环，ctx 取消或调用 Stop 后退出
func (s *Scheduler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	for _, e := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, e)
	}
	s.mu.Unlock()
}

// Stop 取消所有任务并等待正在执行的任务返回
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

// RunNow 立即同步执行一次任务
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	e, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return ErrJobNotFound
	}
	return s.execute(ctx, e, "manual")
}

func (s *Scheduler) loop(ctx context.Context, e *entry) {
	defer s.wg.Done()
	ctx = logger.With(ctx, map[string]string{"job": e.Name})
	l := logger.Ctx(ctx)
	l.Info().Msgf("✅ Job scheduled, %v", e.Trigger)

	for {
		now := s.now()
		timer := time.NewTimer(e.Trigger.Next(now).Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			l.Info().Msg("🛑 Job loop stopped")
			return
		case <-timer.C:
		}

		if err := s.execute(ctx, e, "schedule"); err != nil {
			if errors.Is(err, ErrJobRunning) {
				l.Debug().Msg("job skipped, already running")
				continue
			}
			l.Error().Err(err).Msg("job run failed")
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, e *entry, source string) (err error) {
	if !e.running.CompareAndSwap(false, true) {
		s.observe(e.Name, "skipped")
		return ErrJobRunning
	}
	defer e.running.Store(false)

	runCtx := logger.With(ctx, map[string]string{"job": e.Name, "run_id": uuid.NewString(), "source": source})
	l := logger.Ctx(runCtx)

	unlock, err := s.locker.TryLock(runCtx, e.Name, s.lockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrLockHeld) {
			l.Debug().Msg("lock held by another replica")
			s.observe(e.Name, "skipped")
			return ErrJobRunning
		}
		s.observe(e.Name, "error")
		return errors.Wrapf(err, "acquire lock for job %s", e.Name)
	}
	defer func() {
		if uerr := unlock(context.WithoutCancel(runCtx)); uerr != nil {
			l.Warn().Err(uerr).Msg("failed to release job lock")
		}
	}()

	start := s.now()
	l.Info().Msg("job started")

	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("job %s panicked: %v", e.Name, r)
		}
		if err != nil {
			s.observe(e.Name, "error")
			return
		}
		s.observe(e.Name, "success")
		l.Info().Dur("elapsed", s.now().Sub(start)).Msg("job finished")
	}()

	return e.Run(runCtx)
}

func (s *Scheduler) observe(job, result string) {
	if s.metrics != nil {
		s.metrics.Runs.WithLabelValues(job, result).Inc()
	}
}

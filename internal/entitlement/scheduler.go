package entitlement

import (
	"context"
	"sync"
	"time"

	"github.com/Vrisan-Services/B2b-Server/internal/timeutil"
	log "github.com/sirupsen/logrus"
)

// Scheduler runs the expiration sweep once per day at a fixed UTC hour.
// Sweep failures are logged and never stop the schedule.
type Scheduler struct {
	sweeper *Sweeper
	hour    int
	now     func() time.Time

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// SchedulerStatus is a snapshot of the scheduler state.
type SchedulerStatus struct {
	Running bool      `json:"running"`
	Hour    int       `json:"hour"`
	NextRun time.Time `json:"nextRun,omitempty"`
}

// NewScheduler constructs a Scheduler that fires at the given UTC hour.
func NewScheduler(sweeper *Sweeper, hour int) *Scheduler {
	return &Scheduler{sweeper: sweeper, hour: hour, now: time.Now}
}

// Start launches the daily loop. Calling Start on a running scheduler is a
// no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		log.Debug("entitlement: sweep scheduler already running")
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	firstRun := timeutil.NextDailyRun(s.now().UTC(), s.hour)
	log.WithField("next_run", firstRun.Format(time.RFC3339)).Info("entitlement: sweep scheduler started")
	go s.loop(firstRun, s.stop, s.done)
}

// Stop halts the loop and waits for it to exit. Stopping a stopped
// scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stop, done := s.stop, s.done
	s.mu.Unlock()

	close(stop)
	<-done
	log.Info("entitlement: sweep scheduler stopped")
}

// TriggerNow runs one sweep immediately, outside the schedule.
func (s *Scheduler) TriggerNow(ctx context.Context) ([]SweepResult, error) {
	return s.sweeper.SweepAll(ctx)
}

// Status reports whether the loop is running and when it fires next.
func (s *Scheduler) Status() SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	status := SchedulerStatus{Running: s.running, Hour: s.hour}
	if s.running {
		status.NextRun = timeutil.NextDailyRun(s.now().UTC(), s.hour)
	}
	return status
}

func (s *Scheduler) loop(firstRun time.Time, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	timer := time.NewTimer(time.Until(firstRun))
	defer timer.Stop()

	select {
	case <-timer.C:
		s.runOnce()
	case <-stop:
		return
	}

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.runOnce()
		case <-stop:
			return
		}
	}
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	if _, errSweep := s.sweeper.SweepAll(ctx); errSweep != nil {
		log.WithError(errSweep).Warn("entitlement: scheduled sweep failed")
	}
}

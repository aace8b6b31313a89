package scheduler

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TaskFn is the function signature for scheduled tasks.
type TaskFn func()

// Kind tells periodic tasks from one-shot ones.
type Kind string

const (
	KindTicker Kind = "ticker"
	KindDelay  Kind = "delay"
)

// TaskInfo describes a registered task for the admin API.
type TaskInfo struct {
	Name     string        `json:"name"`
	Kind     Kind          `json:"kind"`
	Interval time.Duration `json:"interval"`
	Runs     uint64        `json:"runs"`
	Panics   uint64        `json:"panics"`
	LastRun  time.Time     `json:"last_run,omitempty"`
	NextRun  time.Time     `json:"next_run"`
}

type task struct {
	info   TaskInfo
	stopCh chan struct{} // tickers only
	timer  *time.Timer   // delays only
}

// Scheduler runs named periodic and delayed tasks. Registering a name that
// is already taken replaces the old task.
type Scheduler struct {
	mu      sync.Mutex
	tasks   map[string]*task
	stopped bool
	logger  *zap.Logger
	stopCh  chan struct{}
}

// New creates a new Scheduler.
func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		tasks:  make(map[string]*task),
		stopCh: make(chan struct{}),
		logger: logger,
	}
}

// AddTicker registers a task to run on a fixed interval.
func (s *Scheduler) AddTicker(name string, interval time.Duration, fn TaskFn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.removeLocked(name)

	t := &task{
		info:   TaskInfo{Name: name, Kind: KindTicker, Interval: interval, NextRun: time.Now().Add(interval)},
		stopCh: make(chan struct{}),
	}
	s.tasks[name] = t
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.run(t, fn)
			case <-t.stopCh:
				return
			case <-s.stopCh:
				return
			}
		}
	}()
	s.logger.Info("scheduler task registered", zap.String("name", name), zap.Duration("interval", interval))
}

// AddDelay runs fn once after the given delay.
func (s *Scheduler) AddDelay(name string, delay time.Duration, fn TaskFn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.removeLocked(name)

	t := &task{info: TaskInfo{Name: name, Kind: KindDelay, Interval: delay, NextRun: time.Now().Add(delay)}}
	s.tasks[name] = t
	t.timer = time.AfterFunc(delay, func() {
		s.run(t, fn)
		s.mu.Lock()
		// The name may have been re-registered while fn ran.
		if s.tasks[name] == t {
			delete(s.tasks, name)
		}
		s.mu.Unlock()
	})
}

// run executes fn, recovering panics, and records the run on t.
func (s *Scheduler) run(t *task, fn TaskFn) {
	start := time.Now()
	panicked := false
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicked = true
				s.logger.Error("scheduler task panicked",
					zap.String("task", t.info.Name),
					zap.String("kind", string(t.info.Kind)),
					zap.Any("recover", r))
			}
		}()
		fn()
	}()
	s.mu.Lock()
	t.info.Runs++
	if panicked {
		t.info.Panics++
	}
	t.info.LastRun = start
	if t.info.Kind == KindTicker {
		t.info.NextRun = start.Add(t.info.Interval)
	}
	s.mu.Unlock()
}

func (s *Scheduler) removeLocked(name string) {
	t, ok := s.tasks[name]
	if !ok {
		return
	}
	if t.stopCh != nil {
		close(t.stopCh)
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	delete(s.tasks, name)
}

// Remove stops and removes a task by name.
func (s *Scheduler) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(name)
}

// Stop stops all tasks. Tasks added afterwards are ignored.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	close(s.stopCh)
	for name, t := range s.tasks {
		if t.timer != nil {
			t.timer.Stop()
		}
		delete(s.tasks, name)
	}
}

// Tasks returns a snapshot of every registered task sorted by name.
func (s *Scheduler) Tasks() []TaskInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TaskInfo, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ListTickers returns the sorted names of all periodic tasks.
func (s *Scheduler) ListTickers() []string {
	var names []string
	for _, t := range s.Tasks() {
		if t.Kind == KindTicker {
			names = append(names, t.Name)
		}
	}
	return names
}

// Copyright 2026 The Govisor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use file except in compliance with the License.
// You may obtain a copy of the license at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package procvisor

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/kelindar/event"

	"github.com/gdamore/procvisor/shutdown"
)

// Signaler delivers a cooperative shutdown request to a process.  Signal
// returns nil once the request was accepted for delivery, which means
// the target has begun shutting down, not that it has exited.
type Signaler interface {
	Signal(ctx context.Context, pid int) error
}

// Config describes the process a Supervisor launches.
type Config struct {
	RunType RunType
	Dir     string // working directory, empty for the current one
	Path    string // executable; looked up in $PATH if it has no separator

	// Args is the argument string, split with shell quoting rules.
	// ArgList, if non-nil, is used verbatim instead.
	Args    string
	ArgList []string

	// Env is merged over the supervisor's own environment.
	Env map[string]string

	// ParentPID, when positive, is passed to the child in the
	// PROCVISOR_PARENT_PID variable so it can exit if we die.
	ParentPID int

	Logger   Logger
	Metrics  *Metrics
	Signaler Signaler // defaults to the shutdown package

	// WaitDelay bounds how long output is drained after the process has
	// exited, for children that leave descendants holding the pipes.
	WaitDelay time.Duration
}

// request is a trigger together with what its entry action needs.
type request struct {
	trig    trigger
	timeout time.Duration
	done    chan struct{}
}

// Supervisor owns the lifecycle of one process.  It may be started again
// after the process reaches any terminal state; each start produces a new
// ProcessInfo.
//
// All triggers, whether they come from Start, Stop or the exit of the
// process, are applied one at a time.  Entry actions that raise a further
// trigger queue it, and the queue is drained before the original call
// returns.
//
//	              +--------------+
//	              |  NotStarted  |
//	              +------+-------+
//	                     | Start
//	                     v
//	+-------------+  StartError  +-----------+   Stop   +------------+
//	| StartFailed <--------------+  Running  +---------->  Stopping  |
//	+-------------+              +-----+-----+          +-----+------+
//	                                   | ProcessExit          | ProcessExit
//	                                   v                      v
//	   ExitedWithError / ExitedUnexpectedly       ExitedSuccessfully
//
// Every state other than Running and Stopping accepts Start.
type Supervisor struct {
	cfg      Config
	logger   Logger
	metrics  *Metrics
	signaler Signaler
	events   *event.Dispatcher

	fireMu  sync.Mutex
	pending []request

	mu      sync.Mutex
	state   State
	err     error
	info    *ProcessInfo
	proc    *os.Process
	exited  chan struct{}
	gen     uint64
	changed chan struct{}
	closed  bool
	quiet   bool // events dispatcher closed
}

// New returns a Supervisor in the NotStarted state.  Nothing is launched
// until Start is called.
func New(cfg Config) *Supervisor {
	s := &Supervisor{
		cfg:      cfg,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		signaler: cfg.Signaler,
		events:   event.NewDispatcher(),
		state:    NotStarted,
		changed:  make(chan struct{}),
	}
	if s.logger == nil {
		s.logger = discardLogger()
	}
	if s.signaler == nil {
		s.signaler = shutdown.Client{}
	}
	if s.cfg.WaitDelay <= 0 {
		s.cfg.WaitDelay = 2 * time.Second
	}
	return s
}

func (s *Supervisor) RunType() RunType {
	return s.cfg.RunType
}

// Path returns the configured executable.
func (s *Supervisor) Path() string {
	return s.cfg.Path
}

func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the error captured by the most recent start attempt, which
// is nil unless the state is StartFailed.
func (s *Supervisor) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Info returns a snapshot of the last spawned process.  It reports false
// before the first successful start, after a failed one, and while a new
// process is being launched.
func (s *Supervisor) Info() (ProcessInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.info == nil {
		return ProcessInfo{}, false
	}
	return *s.info, true
}

// Generation counts transitions.  It changes every time the state does.
func (s *Supervisor) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Start launches the process.  Start is permitted from NotStarted and from
// every terminal state; calling it while Running or Stopping returns an
// *InvalidTransitionError.  A process that cannot be launched is not an
// error here: the state becomes StartFailed and Err reports why, both
// before Start returns.
func (s *Supervisor) Start() error {
	return s.fire(request{trig: trigStart})
}

// StopAsync begins the shutdown protocol.  With a timeout of zero or less
// the process is killed at once.  Otherwise a cooperative shutdown request
// races the timeout, and the process is killed if the request is not
// accepted in time.  The returned channel is closed when the protocol has
// finished; the state reaches ExitedSuccessfully once the process is
// actually gone.  Stop is only permitted while Running.
func (s *Supervisor) StopAsync(timeout time.Duration) (<-chan struct{}, error) {
	done := make(chan struct{})
	if e := s.fire(request{trig: trigStop, timeout: timeout, done: done}); e != nil {
		return nil, e
	}
	return done, nil
}

// Stop is StopAsync, waiting for the protocol to finish.  Cancelling ctx
// abandons the wait, but not the shutdown itself.
func (s *Supervisor) Stop(ctx context.Context, timeout time.Duration) error {
	done, e := s.StopAsync(timeout)
	if e != nil {
		return e
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until the state is neither Running nor Stopping, and returns
// that state.
func (s *Supervisor) Wait(ctx context.Context) (State, error) {
	for {
		s.mu.Lock()
		st, ch := s.state, s.changed
		s.mu.Unlock()
		if !st.Active() {
			return st, nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return st, ctx.Err()
		}
	}
}

// Watch blocks until the generation differs from last, or ctx is done,
// and returns the current generation.
func (s *Supervisor) Watch(ctx context.Context, last uint64) uint64 {
	for {
		s.mu.Lock()
		gen, ch := s.gen, s.changed
		s.mu.Unlock()
		if gen != last {
			return gen
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return gen
		}
	}
}

// Close releases the supervisor.  A live process is killed, and Close
// waits for its exit to be recorded before shutting down the observers.
// Start and Stop fail afterwards.
func (s *Supervisor) Close() error {
	// Holding fireMu orders Close against any Start in flight: either the
	// launch has completed and proc is set, or the Start will see closed.
	s.fireMu.Lock()
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.fireMu.Unlock()
		return nil
	}
	s.closed = true
	proc := s.proc
	active := s.state.Active()
	s.mu.Unlock()
	s.fireMu.Unlock()

	if active && proc != nil {
		s.logger.Info("Closing supervisor, killing process", "pid", proc.Pid)
		s.kill(proc)
		_, _ = s.Wait(context.Background())
	}

	s.mu.Lock()
	s.quiet = true
	s.mu.Unlock()
	return s.events.Close()
}

func (s *Supervisor) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// fire applies r, then any triggers its entry actions queued.  Only the
// error for r itself is returned.
func (s *Supervisor) fire(r request) error {
	s.fireMu.Lock()
	defer s.fireMu.Unlock()

	// The exit notification is still accepted, so Close can observe the
	// process it killed.
	if r.trig != trigProcessExit && s.isClosed() {
		return ErrClosed
	}
	if e := s.apply(r); e != nil {
		return e
	}
	for len(s.pending) != 0 {
		q := s.pending[0]
		s.pending = s.pending[1:]
		if e := s.apply(q); e != nil {
			s.logger.Error("Queued trigger rejected", "trigger", q.trig.String(),
				"error", e)
		}
	}
	return nil
}

// enqueue must only be called from an entry action, with fireMu held.
func (s *Supervisor) enqueue(r request) {
	s.pending = append(s.pending, r)
}

func (s *Supervisor) apply(r request) error {
	s.mu.Lock()
	from := s.state
	code := 0
	if s.info != nil {
		code = s.info.ExitCode
	}
	to, ok := next(from, r.trig, s.cfg.RunType, code)
	if !ok {
		s.mu.Unlock()
		return &InvalidTransitionError{State: from, Trigger: r.trig.String()}
	}
	s.state = to
	if to == Running {
		// The new process is not known until launch records it.
		s.err = nil
		s.info = nil
		s.proc = nil
		s.exited = nil
	}
	err := s.err
	s.gen++
	close(s.changed)
	s.changed = make(chan struct{})
	s.mu.Unlock()

	s.metrics.transition(to)
	if err != nil {
		s.logger.Info("State changed", "from", from.String(), "to", to.String(),
			"trigger", r.trig.String(), "error", err)
	} else {
		s.logger.Info("State changed", "from", from.String(), "to", to.String(),
			"trigger", r.trig.String())
	}
	s.publishState(StateChange{From: from, To: to, Err: err, Time: time.Now()})

	switch to {
	case Running:
		s.launch()
	case Stopping:
		s.beginStop(r)
	}
	return nil
}

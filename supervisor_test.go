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

//go:build unix

// These tests run process_test.sh through /bin/sh, so they are limited
// to POSIX systems.

package procvisor

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/gdamore/procvisor/shutdown"
)

func TestSupervisorNew(t *testing.T) {
	Convey("A new supervisor has not started anything", t, func() {
		s := New(scriptConfig(t, SelfTerminating, "exit", "0"))
		defer s.Close()

		So(s.State(), ShouldEqual, NotStarted)
		So(s.Err(), ShouldBeNil)
		So(s.Generation(), ShouldEqual, 0)
		_, ok := s.Info()
		So(ok, ShouldBeFalse)
		So(s.Graph(), ShouldContainSubstring, `"NotStarted" [label="NotStarted", style=filled];`)
	})
}

func TestSupervisorExit(t *testing.T) {
	Convey("A self terminating process that exits zero", t, func() {
		s := New(scriptConfig(t, SelfTerminating, "exit", "0"))
		defer s.Close()

		So(s.Start(), ShouldBeNil)
		So(waitDone(s), ShouldEqual, ExitedSuccessfully)
		info, ok := s.Info()
		So(ok, ShouldBeTrue)
		So(info.Exited, ShouldBeTrue)
		So(info.ExitCode, ShouldEqual, 0)
		So(info.PID, ShouldBeGreaterThan, 0)
		So(info.RunID, ShouldNotBeEmpty)
		So(s.Err(), ShouldBeNil)
	})

	Convey("A self terminating process that exits non-zero", t, func() {
		s := New(scriptConfig(t, SelfTerminating, "exit", "3"))
		defer s.Close()

		So(s.Start(), ShouldBeNil)
		So(waitDone(s), ShouldEqual, ExitedWithError)
		info, _ := s.Info()
		So(info.ExitCode, ShouldEqual, 3)
	})

	Convey("A non-terminating process that exits on its own", t, func() {
		s := New(scriptConfig(t, NonTerminating, "exit", "0"))
		defer s.Close()

		So(s.Start(), ShouldBeNil)
		So(waitDone(s), ShouldEqual, ExitedUnexpectedly)
	})

	Convey("A non-terminating process that fails", t, func() {
		s := New(scriptConfig(t, NonTerminating, "exit", "5"))
		defer s.Close()

		So(s.Start(), ShouldBeNil)
		So(waitDone(s), ShouldEqual, ExitedUnexpectedly)
	})
}

func TestSupervisorStartFailure(t *testing.T) {
	Convey("A missing executable fails synchronously", t, func() {
		cfg := scriptConfig(t, NonTerminating)
		cfg.Path = "/nonexistent/procvisor-test-binary"
		s := New(cfg)
		defer s.Close()

		So(s.Start(), ShouldBeNil)
		So(s.State(), ShouldEqual, StartFailed)
		So(s.Err(), ShouldNotBeNil)
		So(errors.Is(s.Err(), os.ErrNotExist), ShouldBeTrue)
		_, ok := s.Info()
		So(ok, ShouldBeFalse)

		Convey("And may be retried", func() {
			gen := s.Generation()
			So(s.Start(), ShouldBeNil)
			So(s.State(), ShouldEqual, StartFailed)
			So(s.Generation(), ShouldEqual, gen+2)
		})
	})

	Convey("No executable at all", t, func() {
		s := New(Config{Logger: testLogger(t)})
		defer s.Close()

		So(s.Start(), ShouldBeNil)
		So(s.State(), ShouldEqual, StartFailed)
		So(errors.Is(s.Err(), ErrNoExecutable), ShouldBeTrue)
	})

	Convey("A missing working directory fails the start", t, func() {
		cfg := scriptConfig(t, SelfTerminating, "exit", "0")
		cfg.Dir = "/nonexistent/procvisor-test-dir"
		s := New(cfg)
		defer s.Close()

		So(s.Start(), ShouldBeNil)
		So(s.State(), ShouldEqual, StartFailed)
		So(s.Err(), ShouldNotBeNil)
	})

	Convey("An argument string that cannot be split", t, func() {
		s := New(Config{
			Path:   "/bin/sh",
			Args:   `-c 'exit 0`,
			Logger: testLogger(t),
		})
		defer s.Close()

		So(s.Start(), ShouldBeNil)
		So(s.State(), ShouldEqual, StartFailed)
		So(s.Err().Error(), ShouldStartWith, "bad argument string")
	})

	Convey("A successful start clears the previous error", t, func() {
		cfg := scriptConfig(t, SelfTerminating, "exit", "0")
		good := cfg.Path
		cfg.Path = "/nonexistent/procvisor-test-binary"
		s := New(cfg)
		defer s.Close()

		So(s.Start(), ShouldBeNil)
		So(s.Err(), ShouldNotBeNil)

		s.cfg.Path = good
		So(s.Start(), ShouldBeNil)
		So(s.Err(), ShouldBeNil)
		So(waitDone(s), ShouldEqual, ExitedSuccessfully)
	})
}

func TestSupervisorMisuse(t *testing.T) {
	Convey("Stop before start is refused", t, func() {
		s := New(scriptConfig(t, NonTerminating, "sleep", "60"))
		defer s.Close()

		e := s.Stop(context.Background(), 0)
		So(errors.Is(e, ErrInvalidTransition), ShouldBeTrue)
		var ite *InvalidTransitionError
		So(errors.As(e, &ite), ShouldBeTrue)
		So(ite.State, ShouldEqual, NotStarted)
		So(ite.Trigger, ShouldEqual, "Stop")
		So(s.State(), ShouldEqual, NotStarted)
		So(s.Generation(), ShouldEqual, 0)
	})

	Convey("Start while running is refused", t, func() {
		s := New(scriptConfig(t, NonTerminating, "sleep", "60"))
		defer s.Close()

		So(s.Start(), ShouldBeNil)
		So(s.State(), ShouldEqual, Running)
		e := s.Start()
		So(errors.Is(e, ErrInvalidTransition), ShouldBeTrue)
		So(s.State(), ShouldEqual, Running)
	})

	Convey("Stop while stopping is refused", t, func() {
		sig := &countingSignaler{reply: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}}
		cfg := scriptConfig(t, NonTerminating, "sleep", "60")
		cfg.Signaler = sig
		s := New(cfg)
		defer s.Close()

		So(s.Start(), ShouldBeNil)
		_, e := s.StopAsync(time.Second)
		So(e, ShouldBeNil)
		So(s.State(), ShouldEqual, Stopping)
		_, e = s.StopAsync(time.Second)
		So(errors.Is(e, ErrInvalidTransition), ShouldBeTrue)
		So(waitDone(s), ShouldEqual, ExitedSuccessfully)
	})

	Convey("A closed supervisor refuses everything", t, func() {
		s := New(scriptConfig(t, SelfTerminating, "exit", "0"))
		So(s.Close(), ShouldBeNil)
		So(s.Start(), ShouldEqual, ErrClosed)
		_, e := s.StopAsync(0)
		So(e, ShouldEqual, ErrClosed)
	})

	Convey("Start racing Close leaves no process behind", t, func() {
		for i := 0; i < 20; i++ {
			s := New(scriptConfig(t, NonTerminating, "sleep", "60"))
			started := make(chan error, 1)
			go func() {
				started <- s.Start()
			}()
			So(s.Close(), ShouldBeNil)
			e := <-started
			So(e == nil || e == ErrClosed, ShouldBeTrue)
			So(s.State().Active(), ShouldBeFalse)
			if info, ok := s.Info(); ok {
				So(info.Exited, ShouldBeTrue)
			}
		}
	})

	Convey("Close shuts down the observers", t, func() {
		s := New(scriptConfig(t, SelfTerminating, "exit", "0"))
		got := &collector[StateChange]{}
		s.OnStateChange(got.add)

		So(s.Start(), ShouldBeNil)
		So(waitDone(s), ShouldEqual, ExitedSuccessfully)
		So(eventually(func() bool { return len(got.get()) == 2 }), ShouldBeTrue)

		So(s.Close(), ShouldBeNil)
		So(s.isQuiet(), ShouldBeTrue)
		s.publishState(StateChange{From: NotStarted, To: Running})
		time.Sleep(50 * time.Millisecond)
		So(len(got.get()), ShouldEqual, 2)
	})
}

func TestSupervisorStop(t *testing.T) {
	Convey("A zero timeout kills without signaling", t, func() {
		sig := &countingSignaler{}
		cfg := scriptConfig(t, NonTerminating, "sleep", "60")
		cfg.Signaler = sig
		s := New(cfg)
		defer s.Close()

		So(s.Start(), ShouldBeNil)
		So(s.Stop(context.Background(), 0), ShouldBeNil)
		So(waitDone(s), ShouldEqual, ExitedSuccessfully)
		So(sig.Calls(), ShouldEqual, 0)
		info, _ := s.Info()
		So(info.ExitCode, ShouldEqual, -1)
	})

	Convey("A negative timeout also kills at once", t, func() {
		sig := &countingSignaler{}
		cfg := scriptConfig(t, NonTerminating, "sleep", "60")
		cfg.Signaler = sig
		s := New(cfg)
		defer s.Close()

		So(s.Start(), ShouldBeNil)
		So(s.Stop(context.Background(), -time.Second), ShouldBeNil)
		So(waitDone(s), ShouldEqual, ExitedSuccessfully)
		So(sig.Calls(), ShouldEqual, 0)
	})

	Convey("A request that cannot be delivered waits out the timeout", t, func() {
		cfg := scriptConfig(t, NonTerminating, "sleep", "60")
		cfg.Signaler = shutdown.Client{Dir: t.TempDir()}
		s := New(cfg)
		defer s.Close()

		So(s.Start(), ShouldBeNil)
		begin := time.Now()
		So(s.Stop(context.Background(), 200*time.Millisecond), ShouldBeNil)
		So(time.Since(begin), ShouldBeGreaterThanOrEqualTo, 150*time.Millisecond)
		So(waitDone(s), ShouldEqual, ExitedSuccessfully)
	})

	Convey("A request that is never answered is cut off by the timeout", t, func() {
		sig := &countingSignaler{reply: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}}
		cfg := scriptConfig(t, NonTerminating, "sleep", "60")
		cfg.Signaler = sig
		s := New(cfg)
		defer s.Close()

		So(s.Start(), ShouldBeNil)
		info, _ := s.Info()
		So(s.Stop(context.Background(), 100*time.Millisecond), ShouldBeNil)
		So(waitDone(s), ShouldEqual, ExitedSuccessfully)
		So(sig.Calls(), ShouldEqual, 1)
		So(sig.pids, ShouldResemble, []int{info.PID})
	})

	Convey("An accepted request is trusted", t, func() {
		sig := &countingSignaler{}
		cfg := scriptConfig(t, NonTerminating, "sleep", "60")
		cfg.Signaler = sig
		s := New(cfg)

		So(s.Start(), ShouldBeNil)
		So(s.Stop(context.Background(), 5*time.Second), ShouldBeNil)
		So(sig.Calls(), ShouldEqual, 1)

		// The child ignores the request, and nothing checks again.
		time.Sleep(100 * time.Millisecond)
		So(s.State(), ShouldEqual, Stopping)

		So(s.Close(), ShouldBeNil)
		So(s.State(), ShouldEqual, ExitedSuccessfully)
	})

	Convey("A child that exits on its own during stop", t, func() {
		cfg := scriptConfig(t, NonTerminating, "sleep", "0.2")
		cfg.Signaler = shutdown.Client{Dir: t.TempDir()}
		s := New(cfg)
		defer s.Close()

		So(s.Start(), ShouldBeNil)
		begin := time.Now()
		So(s.Stop(context.Background(), 10*time.Second), ShouldBeNil)
		So(time.Since(begin), ShouldBeLessThan, 5*time.Second)
		So(waitDone(s), ShouldEqual, ExitedSuccessfully)
	})

	Convey("A timeout that expires after the child has exited", t, func() {
		sig := &countingSignaler{reply: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}}
		cfg := scriptConfig(t, NonTerminating, "sleep", "0.1")
		cfg.Signaler = sig
		cfg.Metrics = NewMetrics(prometheus.NewRegistry())
		s := New(cfg)
		defer s.Close()

		So(s.Start(), ShouldBeNil)
		So(s.Stop(context.Background(), time.Second), ShouldBeNil)
		So(s.State(), ShouldEqual, ExitedSuccessfully)
		So(testutil.ToFloat64(cfg.Metrics.signals.WithLabelValues("timeout")), ShouldEqual, 1)
		So(testutil.ToFloat64(cfg.Metrics.kills), ShouldEqual, 0)
		info, _ := s.Info()
		So(info.ExitCode, ShouldEqual, 0)
	})

	Convey("A timeout that expires as the child exits", t, func() {
		sig := &countingSignaler{reply: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}}
		cfg := scriptConfig(t, NonTerminating, "sleep", "0.2")
		cfg.Signaler = sig
		s := New(cfg)
		defer s.Close()

		So(s.Start(), ShouldBeNil)
		So(s.Stop(context.Background(), 200*time.Millisecond), ShouldBeNil)
		So(waitDone(s), ShouldEqual, ExitedSuccessfully)
	})

	Convey("Killing a process that was already reaped is harmless", t, func() {
		cfg := scriptConfig(t, SelfTerminating, "exit", "0")
		cfg.Metrics = NewMetrics(prometheus.NewRegistry())
		s := New(cfg)
		defer s.Close()

		So(s.Start(), ShouldBeNil)
		So(waitDone(s), ShouldEqual, ExitedSuccessfully)
		s.mu.Lock()
		proc := s.proc
		s.mu.Unlock()
		So(proc, ShouldNotBeNil)

		So(func() { s.kill(proc) }, ShouldNotPanic)
		So(testutil.ToFloat64(cfg.Metrics.kills), ShouldEqual, 0)
		So(s.State(), ShouldEqual, ExitedSuccessfully)
	})
}

func TestSupervisorCooperativeStop(t *testing.T) {
	Convey("A child listening for shutdown exits cleanly", t, func() {
		exe, e := os.Executable()
		So(e, ShouldBeNil)
		dir := t.TempDir()

		reg := prometheus.NewRegistry()
		m := NewMetrics(reg)
		s := New(Config{
			RunType: NonTerminating,
			Path:    exe,
			Env: map[string]string{
				helperEnv:       "listen",
				shutdown.DirEnv: dir,
			},
			Logger:   testLogger(t),
			Metrics:  m,
			Signaler: shutdown.Client{Dir: dir},
		})
		defer s.Close()

		ready := make(chan struct{}, 1)
		unsub := s.OnOutput(func(l OutputLine) {
			if l.Text == "ready" {
				ready <- struct{}{}
			}
		})
		defer unsub()

		So(s.Start(), ShouldBeNil)
		select {
		case <-ready:
		case <-time.After(10 * time.Second):
			t.Fatal("child never became ready")
		}

		So(s.Stop(context.Background(), 5*time.Second), ShouldBeNil)
		So(waitDone(s), ShouldEqual, ExitedSuccessfully)
		info, _ := s.Info()
		So(info.ExitCode, ShouldEqual, 0)

		So(testutil.ToFloat64(m.signals.WithLabelValues("ok")), ShouldEqual, 1)
		So(testutil.ToFloat64(m.kills), ShouldEqual, 0)
		So(testutil.ToFloat64(m.stops.WithLabelValues("cooperative")), ShouldEqual, 1)
	})
}

func TestSupervisorObservers(t *testing.T) {
	Convey("Output lines are delivered per stream", t, func() {
		s := New(scriptConfig(t, SelfTerminating, "echo", "one", "two"))
		defer s.Close()

		lines := &collector[OutputLine]{}
		defer s.OnOutput(lines.add)()

		So(s.Start(), ShouldBeNil)
		So(waitDone(s), ShouldEqual, ExitedSuccessfully)
		So(eventually(func() bool { return len(lines.get()) == 3 }), ShouldBeTrue)

		info, _ := s.Info()
		var stdout, stderr []string
		for _, l := range lines.get() {
			So(l.RunID, ShouldEqual, info.RunID)
			switch l.Stream {
			case Stdout:
				stdout = append(stdout, l.Text)
			case Stderr:
				stderr = append(stderr, l.Text)
			}
		}
		So(stdout, ShouldResemble, []string{"one", "two"})
		So(stderr, ShouldResemble, []string{"to stderr"})
	})

	Convey("A trailing partial line is still delivered", t, func() {
		s := New(scriptConfig(t, SelfTerminating, "partial", "no newline"))
		defer s.Close()

		lines := &collector[OutputLine]{}
		defer s.OnOutput(lines.add)()

		So(s.Start(), ShouldBeNil)
		So(waitDone(s), ShouldEqual, ExitedSuccessfully)
		So(eventually(func() bool { return len(lines.get()) == 1 }), ShouldBeTrue)
		So(lines.get()[0].Text, ShouldEqual, "no newline")
	})

	Convey("State changes are published in order", t, func() {
		s := New(scriptConfig(t, SelfTerminating, "exit", "0"))
		defer s.Close()

		changes := &collector[StateChange]{}
		defer s.OnStateChange(changes.add)()

		So(s.Start(), ShouldBeNil)
		So(waitDone(s), ShouldEqual, ExitedSuccessfully)
		So(eventually(func() bool { return len(changes.get()) == 2 }), ShouldBeTrue)

		got := changes.get()
		So(got[0].From, ShouldEqual, NotStarted)
		So(got[0].To, ShouldEqual, Running)
		So(got[1].From, ShouldEqual, Running)
		So(got[1].To, ShouldEqual, ExitedSuccessfully)
	})

	Convey("Rejected triggers publish nothing", t, func() {
		s := New(scriptConfig(t, NonTerminating, "sleep", "60"))
		defer s.Close()

		changes := &collector[StateChange]{}
		defer s.OnStateChange(changes.add)()

		So(s.Start(), ShouldBeNil)
		So(s.Start(), ShouldNotBeNil)
		So(s.Stop(context.Background(), 0), ShouldBeNil)
		So(waitDone(s), ShouldEqual, ExitedSuccessfully)
		_, e := s.StopAsync(0)
		So(e, ShouldNotBeNil)

		So(eventually(func() bool { return len(changes.get()) == 3 }), ShouldBeTrue)
		time.Sleep(50 * time.Millisecond)
		got := changes.get()
		So(len(got), ShouldEqual, 3)
		So(got[0].To, ShouldEqual, Running)
		So(got[1].To, ShouldEqual, Stopping)
		So(got[2].To, ShouldEqual, ExitedSuccessfully)
	})

	Convey("A failed start publishes the captured error", t, func() {
		s := New(Config{Logger: testLogger(t)})
		defer s.Close()

		changes := &collector[StateChange]{}
		defer s.OnStateChange(changes.add)()

		So(s.Start(), ShouldBeNil)
		So(eventually(func() bool { return len(changes.get()) == 2 }), ShouldBeTrue)
		got := changes.get()
		So(got[1].To, ShouldEqual, StartFailed)
		So(errors.Is(got[1].Err, ErrNoExecutable), ShouldBeTrue)
	})
}

func TestSupervisorEnvironment(t *testing.T) {
	Convey("The parent identity is passed to the child", t, func() {
		cfg := scriptConfig(t, SelfTerminating, "env", shutdown.ParentPIDEnv)
		cfg.ParentPID = 4242
		s := New(cfg)
		defer s.Close()

		lines := &collector[OutputLine]{}
		defer s.OnOutput(lines.add)()

		So(s.Start(), ShouldBeNil)
		So(waitDone(s), ShouldEqual, ExitedSuccessfully)
		So(eventually(func() bool { return len(lines.get()) == 1 }), ShouldBeTrue)
		So(lines.get()[0].Text, ShouldEqual, "4242")
	})

	Convey("Configured variables reach the child", t, func() {
		cfg := scriptConfig(t, SelfTerminating, "env", "PROCVISOR_TEST_VALUE")
		cfg.Env = map[string]string{"PROCVISOR_TEST_VALUE": "hello world"}
		s := New(cfg)
		defer s.Close()

		lines := &collector[OutputLine]{}
		defer s.OnOutput(lines.add)()

		So(s.Start(), ShouldBeNil)
		So(waitDone(s), ShouldEqual, ExitedSuccessfully)
		So(eventually(func() bool { return len(lines.get()) == 1 }), ShouldBeTrue)
		So(lines.get()[0].Text, ShouldEqual, "hello world")
	})

	Convey("The working directory is honored", t, func() {
		dir := t.TempDir()
		cfg := scriptConfig(t, SelfTerminating, "checkwd", dir)
		cfg.Dir = dir
		s := New(cfg)
		defer s.Close()

		So(s.Start(), ShouldBeNil)
		So(waitDone(s), ShouldEqual, ExitedSuccessfully)
	})

	Convey("Arguments are split with shell quoting", t, func() {
		s := New(Config{
			RunType: SelfTerminating,
			Path:    "/bin/sh",
			Args:    testScript() + ` echo 'a b' "c"`,
			Logger:  testLogger(t),
		})
		defer s.Close()

		lines := &collector[OutputLine]{}
		defer s.OnOutput(lines.add)()

		So(s.Start(), ShouldBeNil)
		So(waitDone(s), ShouldEqual, ExitedSuccessfully)
		So(eventually(func() bool { return len(lines.get()) == 3 }), ShouldBeTrue)
		var out []string
		for _, l := range lines.get() {
			if l.Stream == Stdout {
				out = append(out, l.Text)
			}
		}
		So(out, ShouldResemble, []string{"a b", "c"})
	})
}

func TestSupervisorRestart(t *testing.T) {
	Convey("Each start is a fresh run", t, func() {
		reg := prometheus.NewRegistry()
		cfg := scriptConfig(t, SelfTerminating, "exit", "0")
		cfg.Metrics = NewMetrics(reg)
		s := New(cfg)
		defer s.Close()

		So(s.Start(), ShouldBeNil)
		So(waitDone(s), ShouldEqual, ExitedSuccessfully)
		first, _ := s.Info()
		gen := s.Generation()

		So(s.Start(), ShouldBeNil)
		So(waitDone(s), ShouldEqual, ExitedSuccessfully)
		second, _ := s.Info()

		So(second.RunID, ShouldNotEqual, first.RunID)
		So(s.Generation(), ShouldEqual, gen+2)
		So(testutil.ToFloat64(cfg.Metrics.starts), ShouldEqual, 2)
		So(testutil.ToFloat64(cfg.Metrics.state.WithLabelValues("ExitedSuccessfully")), ShouldEqual, 1)
		So(testutil.ToFloat64(cfg.Metrics.state.WithLabelValues("Running")), ShouldEqual, 0)
	})

	Convey("A restart never reports the previous process as running", t, func() {
		var s *Supervisor
		var during []Status
		cfg := scriptConfig(t, SelfTerminating, "exit", "0")
		cfg.Logger = hookLogger{Logger: cfg.Logger, info: func(msg string) {
			// Logged after the transition, before the launch.
			if msg == "State changed" && s.State() == Running {
				during = append(during, s.Status())
			}
		}}
		s = New(cfg)
		defer s.Close()

		So(s.Start(), ShouldBeNil)
		So(waitDone(s), ShouldEqual, ExitedSuccessfully)
		first, _ := s.Info()
		So(s.Start(), ShouldBeNil)
		So(waitDone(s), ShouldEqual, ExitedSuccessfully)
		second, _ := s.Info()

		So(len(during), ShouldEqual, 2)
		for _, st := range during {
			So(st.State, ShouldEqual, Running)
			So(st.Info, ShouldBeNil)
		}
		So(second.RunID, ShouldNotEqual, first.RunID)
	})

	Convey("Watch reports each transition", t, func() {
		s := New(scriptConfig(t, NonTerminating, "sleep", "60"))
		defer s.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		So(s.Watch(ctx, 0), ShouldEqual, 0)

		So(s.Start(), ShouldBeNil)
		So(s.Watch(context.Background(), 0), ShouldEqual, 1)
		So(strings.Contains(s.Graph(), `"Running" [label="Running", style=filled];`), ShouldBeTrue)
	})
}

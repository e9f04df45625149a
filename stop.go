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
	"errors"
	"os"
	"time"
)

// beginStop is the entry action for Stopping.  The protocol runs in its
// own goroutine so that the exit notification can still be applied while
// it waits.
func (s *Supervisor) beginStop(r request) {
	s.mu.Lock()
	proc, exited := s.proc, s.exited
	pid := 0
	if s.info != nil {
		pid = s.info.PID
	}
	s.mu.Unlock()

	go s.shutdown(proc, pid, exited, r.timeout, r.done)
}

func (s *Supervisor) shutdown(proc *os.Process, pid int, exited <-chan struct{},
	timeout time.Duration, done chan struct{}) {

	defer close(done)

	if timeout <= 0 {
		s.metrics.stop("kill")
		s.logger.Info("Stopping process forcibly", "pid", pid)
		s.kill(proc)
		return
	}

	s.metrics.stop("cooperative")
	s.logger.Info("Requesting cooperative shutdown", "pid", pid,
		"timeout", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	e := s.signaler.Signal(ctx, pid)
	switch {
	case e == nil:
		// Accepted means the child has begun to shut down.  The exit
		// notification completes the transition; we do not check again.
		s.metrics.signal("ok")
		s.logger.Info("Cooperative shutdown accepted", "pid", pid)
		return
	case ctx.Err() != nil:
		s.metrics.signal("timeout")
	default:
		// A failed delivery is treated like no answer at all.
		s.metrics.signal("error")
		s.logger.Debug("Cooperative shutdown not delivered", "pid", pid,
			"error", e)
		select {
		case <-ctx.Done():
		case <-exited:
			s.logger.Debug("Process exited before shutdown timeout",
				"pid", pid)
			return
		}
	}
	s.logger.Warn("Graceful shutdown timed out, killing process",
		"pid", pid, "timeout", timeout)
	s.kill(proc)
}

// kill terminates proc.  Errors are logged and dropped: the usual one is
// that the process has already exited, which is what we wanted anyway.
func (s *Supervisor) kill(proc *os.Process) {
	if proc == nil {
		return
	}
	e := proc.Kill()
	switch {
	case e == nil:
		s.metrics.killed()
	case errors.Is(e, os.ErrProcessDone):
		s.logger.Debug("Process already exited", "pid", proc.Pid)
	default:
		s.logger.Warn("Failed killing process", "pid", proc.Pid, "error", e)
	}
}

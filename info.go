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
	"time"
)

// ProcessInfo is a snapshot of a process that was actually spawned.
// ExitCode is meaningful only once Exited is true; a process terminated by
// a signal reports -1.
type ProcessInfo struct {
	RunID     string    `json:"runId"`
	PID       int       `json:"pid"`
	StartedAt time.Time `json:"startedAt"`
	Exited    bool      `json:"exited"`
	ExitCode  int       `json:"exitCode"`
	ExitedAt  time.Time `json:"exitedAt,omitempty"`
}

// Uptime is how long the process ran, or has been running so far.
func (pi ProcessInfo) Uptime() time.Duration {
	if pi.Exited {
		return pi.ExitedAt.Sub(pi.StartedAt)
	}
	return time.Since(pi.StartedAt)
}

// Status is a consistent view of a Supervisor at one generation.
type Status struct {
	State      State
	Err        error
	Info       *ProcessInfo
	Generation uint64
}

// Status returns the state, error, process details and generation taken
// together under one lock.
func (s *Supervisor) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{State: s.state, Err: s.err, Generation: s.gen}
	if s.info != nil {
		pi := *s.info
		st.Info = &pi
	}
	return st
}

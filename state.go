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
	"strings"
)

// RunType describes what the supervised process is expected to do once
// started.  It decides how an exit notification is interpreted.
type RunType int

const (
	// SelfTerminating processes run to completion (a batch job or task).
	// Their exit code alone decides success.
	SelfTerminating RunType = iota

	// NonTerminating processes run until stopped (a service).  Exiting
	// on their own is always unexpected.
	NonTerminating
)

func (rt RunType) String() string {
	switch rt {
	case SelfTerminating:
		return "SelfTerminating"
	case NonTerminating:
		return "NonTerminating"
	}
	return "Unknown"
}

func (rt RunType) MarshalText() ([]byte, error) {
	return []byte(rt.String()), nil
}

func (rt *RunType) UnmarshalText(b []byte) error {
	v, e := ParseRunType(string(b))
	if e != nil {
		return e
	}
	*rt = v
	return nil
}

// ParseRunType accepts the String form of a RunType, as well as the
// hyphenated and the "task"/"service" aliases, ignoring case.
func ParseRunType(s string) (RunType, error) {
	switch strings.ToLower(strings.ReplaceAll(s, "-", "")) {
	case "selfterminating", "task":
		return SelfTerminating, nil
	case "nonterminating", "service":
		return NonTerminating, nil
	}
	return SelfTerminating, ErrBadRunType
}

// State is the lifecycle state of a Supervisor.  Exactly one is current
// at any time.
type State int

const (
	NotStarted State = iota
	Running
	StartFailed
	Stopping
	ExitedSuccessfully
	ExitedWithError
	ExitedUnexpectedly
)

var stateNames = []string{
	NotStarted:         "NotStarted",
	Running:            "Running",
	StartFailed:        "StartFailed",
	Stopping:           "Stopping",
	ExitedSuccessfully: "ExitedSuccessfully",
	ExitedWithError:    "ExitedWithError",
	ExitedUnexpectedly: "ExitedUnexpectedly",
}

// States returns every state, in declaration order.
func States() []State {
	return []State{
		NotStarted,
		Running,
		StartFailed,
		Stopping,
		ExitedSuccessfully,
		ExitedWithError,
		ExitedUnexpectedly,
	}
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "Unknown"
}

// Terminal is true for the states from which Start is permitted, which is
// the initial state and every exited or failed state.
func (s State) Terminal() bool {
	switch s {
	case Running, Stopping:
		return false
	}
	return s >= 0 && int(s) < len(stateNames)
}

// Active is true while a process is (or may still be) alive.
func (s State) Active() bool {
	return s == Running || s == Stopping
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	v, e := ParseState(string(b))
	if e != nil {
		return e
	}
	*s = v
	return nil
}

func ParseState(name string) (State, error) {
	for i, n := range stateNames {
		if strings.EqualFold(n, name) {
			return State(i), nil
		}
	}
	return NotStarted, ErrBadState
}

// trigger drives transitions.  Triggers are never visible to callers.
type trigger int

const (
	trigStart trigger = iota
	trigStartError
	trigStop
	trigProcessExit
)

func (t trigger) String() string {
	switch t {
	case trigStart:
		return "Start"
	case trigStartError:
		return "StartError"
	case trigStop:
		return "Stop"
	case trigProcessExit:
		return "ProcessExit"
	}
	return "Unknown"
}

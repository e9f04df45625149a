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

	"github.com/kelindar/event"
)

const (
	typeStateChange uint32 = iota + 1
	typeOutputLine
)

// StateChange is published once for every transition.  Rejected triggers
// publish nothing.
type StateChange struct {
	From State
	To   State
	Err  error // captured error, set when To is StartFailed
	Time time.Time
}

func (StateChange) Type() uint32 { return typeStateChange }

// Stream identifies which output of the child produced a line.
type Stream string

const (
	Stdout Stream = "stdout"
	Stderr Stream = "stderr"
)

// OutputLine is one line of captured output, without its line terminator.
type OutputLine struct {
	RunID  string
	Stream Stream
	Text   string
	Time   time.Time
}

func (OutputLine) Type() uint32 { return typeOutputLine }

// OnStateChange registers fn to receive every StateChange.  Each observer
// is called from its own goroutine, in publication order; a slow observer
// never holds up the supervisor.  The returned function unsubscribes.
func (s *Supervisor) OnStateChange(fn func(StateChange)) func() {
	return event.Subscribe(s.events, fn)
}

// OnOutput registers fn to receive captured output lines, with the same
// delivery rules as OnStateChange.
func (s *Supervisor) OnOutput(fn func(OutputLine)) func() {
	return event.Subscribe(s.events, fn)
}

func (s *Supervisor) publishState(sc StateChange) {
	if !s.isQuiet() {
		event.Publish(s.events, sc)
	}
}

func (s *Supervisor) publishOutput(l OutputLine) {
	if !s.isQuiet() {
		event.Publish(s.events, l)
	}
}

func (s *Supervisor) isQuiet() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quiet
}

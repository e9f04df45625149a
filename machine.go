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
	"fmt"
	"strings"
)

// guard inspects the captured run data when deciding a transition.
type guard struct {
	desc  string
	check func(rt RunType, exitCode int) bool
}

type transition struct {
	from  []State
	trig  trigger
	guard *guard
	to    State
}

var (
	guardExitZero = &guard{
		desc: "SelfTerminating && exitCode == 0",
		check: func(rt RunType, code int) bool {
			return rt == SelfTerminating && code == 0
		},
	}
	guardExitNonZero = &guard{
		desc: "SelfTerminating && exitCode != 0",
		check: func(rt RunType, code int) bool {
			return rt == SelfTerminating && code != 0
		},
	}
	guardNonTerminating = &guard{
		desc: "NonTerminating",
		check: func(rt RunType, _ int) bool {
			return rt == NonTerminating
		},
	}
)

// transitions is the complete state table.  Guards on the same source and
// trigger are mutually exclusive.
var transitions = []transition{
	{
		from: []State{NotStarted, StartFailed, ExitedSuccessfully,
			ExitedWithError, ExitedUnexpectedly},
		trig: trigStart,
		to:   Running,
	},
	{from: []State{Running}, trig: trigProcessExit, guard: guardExitZero,
		to: ExitedSuccessfully},
	{from: []State{Running}, trig: trigProcessExit, guard: guardExitNonZero,
		to: ExitedWithError},
	{from: []State{Running}, trig: trigProcessExit, guard: guardNonTerminating,
		to: ExitedUnexpectedly},
	{from: []State{Running}, trig: trigStop, to: Stopping},
	{from: []State{Running}, trig: trigStartError, to: StartFailed},
	{from: []State{Stopping}, trig: trigProcessExit, to: ExitedSuccessfully},
}

// next returns the destination for firing t from state, or false if the
// trigger is not permitted there.
func next(from State, t trigger, rt RunType, exitCode int) (State, bool) {
	for i := range transitions {
		tr := &transitions[i]
		if tr.trig != t || !tr.permits(from) {
			continue
		}
		if tr.guard != nil && !tr.guard.check(rt, exitCode) {
			continue
		}
		return tr.to, true
	}
	return from, false
}

func (tr *transition) permits(s State) bool {
	for _, f := range tr.from {
		if f == s {
			return true
		}
	}
	return false
}

// Graph renders the state machine in Graphviz DOT form.  The current
// state is filled.  It is meant for operators, and nothing in the
// supervisor consults it.
func (s *Supervisor) Graph() string {
	return graph(s.State())
}

func graph(current State) string {
	var b strings.Builder

	b.WriteString("digraph {\n")
	b.WriteString("compound=true;\n")
	b.WriteString("node [shape=Mrecord]\n")
	b.WriteString("rankdir=\"LR\"\n\n")

	for _, st := range States() {
		if st == current {
			fmt.Fprintf(&b, "%q [label=%q, style=filled];\n",
				st.String(), st.String())
		} else {
			fmt.Fprintf(&b, "%q [label=%q];\n", st.String(), st.String())
		}
	}
	b.WriteString("\n")
	for _, tr := range transitions {
		label := tr.trig.String()
		if tr.guard != nil {
			label += " [" + tr.guard.desc + "]"
		}
		for _, f := range tr.from {
			fmt.Fprintf(&b, "%q -> %q [style=\"solid\", label=%q];\n",
				f.String(), tr.to.String(), label)
		}
	}
	b.WriteString(" init [label=\"\", shape=point];\n")
	fmt.Fprintf(&b, " init -> %q[style = \"solid\"]\n", NotStarted.String())
	b.WriteString("}\n")
	return b.String()
}

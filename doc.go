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

// Package procvisor supervises a single operating system process.
//
// A Supervisor launches one executable and tracks it through a small
// state machine: NotStarted, Running, StartFailed, Stopping, and the three
// exited states.  Start and Stop requests, launch failures and process
// exit are all triggers into that machine, and they are applied one at a
// time.  A request the current state does not permit is refused with an
// error rather than silently dropped.
//
// Stopping may be cooperative.  Given a positive timeout the supervisor
// asks the child to exit over an out-of-band channel (see the shutdown
// package), and kills it only if the request cannot be delivered in time.
//
// Observers can follow state changes and the child's output lines, and
// Graph renders the state machine in Graphviz DOT form for diagnostics.
//
// The procvisord command wraps a Supervisor in a REST server, and the
// procvisor command is a client and terminal UI for it.
package procvisor

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

// Package shutdown implements the cooperative shutdown channel used by
// procvisor.
//
// Ordinary termination signals are not uniformly available, or
// interceptable, on every platform and for every kind of process.  Instead
// a process that wants to be stopped gracefully opens a Listener addressed
// by its own process ID, and the supervisor asks it to exit with Signal.
// A process that never listens looks, to the supervisor, exactly like one
// that ignores the request: the supervisor times out and kills it.
//
// The channel is a unix domain socket named after the process ID.  The
// sender writes the line "exit" and the listener answers "ok" once it has
// accepted the request.  Nothing else is exchanged.
//
// A child that was launched with a parent identity can also watch for the
// death of its supervisor with WatchParent.
package shutdown

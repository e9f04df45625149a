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

// Package util is used for internal implementation bits in the CLI/UI.
package util

import (
	"fmt"
	"time"

	"github.com/gdamore/procvisor"
	"github.com/gdamore/procvisor/rest"
)

// Severity is how alarming a status is, for coloring.
type Severity int

const (
	Normal Severity = iota
	Good
	Warn
	Bad
)

// Status summarizes the process state in a few words.
func Status(s *rest.ProcessStatus) string {
	switch s.State {
	case procvisor.NotStarted:
		return "not started"
	case procvisor.Running:
		return "running"
	case procvisor.Stopping:
		return "stopping"
	case procvisor.StartFailed:
		return "failed to start"
	case procvisor.ExitedSuccessfully:
		return "exited"
	case procvisor.ExitedWithError:
		if s.Process != nil {
			return fmt.Sprintf("exited with code %d", s.Process.ExitCode)
		}
		return "exited with error"
	case procvisor.ExitedUnexpectedly:
		return "exited unexpectedly"
	}
	return s.State.String()
}

func StatusSeverity(s *rest.ProcessStatus) Severity {
	switch s.State {
	case procvisor.Running:
		return Good
	case procvisor.Stopping:
		return Warn
	case procvisor.StartFailed, procvisor.ExitedWithError, procvisor.ExitedUnexpectedly:
		return Bad
	}
	return Normal
}

func FormatDuration(d time.Duration) string {

	sec := int((d % time.Minute) / time.Second)
	min := int((d % time.Hour) / time.Minute)
	hour := int(d / time.Hour)

	return fmt.Sprintf("%d:%02d:%02d", hour, min, sec)
}

// InfoLines renders the status as aligned "Label: value" lines.
func InfoLines(s *rest.ProcessStatus) []string {
	lines := make([]string, 0, 12)
	add := func(label string, v interface{}) {
		lines = append(lines, fmt.Sprintf("%13s %v", label+":", v))
	}
	add("Name", s.Name)
	add("Description", s.Description)
	add("Executable", s.Executable)
	add("Run type", s.RunType)
	add("State", s.State)
	add("Status", Status(s))
	if s.Error != "" {
		add("Error", s.Error)
	}
	if p := s.Process; p != nil {
		add("Run ID", p.RunID)
		add("PID", p.PID)
		add("Started", p.StartedAt.Format(time.RFC3339))
		if p.Exited {
			add("Exited", p.ExitedAt.Format(time.RFC3339))
			add("Exit code", p.ExitCode)
		}
		add("Uptime", FormatDuration(p.Uptime()))
	}
	add("Transitions", s.Generation)
	return lines
}

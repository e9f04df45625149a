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

package rest

import (
	"time"

	"github.com/gdamore/procvisor"
)

const (
	mimeJson = "application/json; charset=UTF-8"
	mimeText = "text/plain; charset=UTF-8"

	// PollEtagHeader and PollTimeHeader turn a GET into a long poll: the
	// server holds the request until the resource's etag differs from the
	// given one, or the number of seconds has passed.
	PollEtagHeader = "X-Procvisor-Poll-Etag"
	PollTimeHeader = "X-Procvisor-Poll-Time"

	// MaxPollTime caps PollTimeHeader.
	MaxPollTime = 5 * time.Minute
)

var ok struct{}

type ProcessStatus struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Executable  string                 `json:"executable"`
	RunType     procvisor.RunType      `json:"runType"`
	State       procvisor.State        `json:"state"`
	Error       string                 `json:"error,omitempty"`
	Process     *procvisor.ProcessInfo `json:"process,omitempty"`
	Generation  uint64                 `json:"generation"`
	TimeStamp   time.Time              `json:"tstamp"`

	etag string
}

// LogRecord is the wire form of procvisor.LogRecord.
type LogRecord = procvisor.LogRecord

type LogInfo struct {
	etag    string
	Records []LogRecord
}

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

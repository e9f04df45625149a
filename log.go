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
	"strings"
	"sync"
	"time"
)

const (
	MaxLogRecords = 1000
)

// LogRecord is one line held by a Log.  Stream is "stdout" or "stderr" for
// captured process output, and empty for lines written through Write.
type LogRecord struct {
	Id     int64     `json:"id,string"`
	Time   time.Time `json:"time"`
	Stream Stream    `json:"stream,omitempty"`
	Text   string    `json:"text"`
}

// Log is a bounded ring of text lines.  Once full, the oldest lines are
// discarded.  The daemon keeps one for process output and one for its own
// diagnostics.
type Log struct {
	records []LogRecord
	count   int
	id      int64
	changed chan struct{}
	mx      sync.Mutex
}

// NewLog returns a Log retaining at most max records.  A max of zero or
// less selects MaxLogRecords.
func NewLog(max int) *Log {
	if max <= 0 {
		max = MaxLogRecords
	}
	return &Log{
		records: make([]LogRecord, max),
		// Ids from different lifetimes of the daemon should not collide,
		// so start from the clock.
		id:      time.Now().UnixNano(),
		changed: make(chan struct{}),
	}
}

// Write implements io.Writer, so a Log can sit behind a slog handler.
// Each newline terminated line becomes a record.
func (log *Log) Write(b []byte) (int, error) {
	str := strings.TrimRight(string(b), "\n")
	now := time.Now()
	log.mx.Lock()
	for _, line := range strings.Split(str, "\n") {
		log.add(now, "", line)
	}
	log.notify()
	log.mx.Unlock()
	return len(b), nil
}

// Add appends a single record.
func (log *Log) Add(when time.Time, stream Stream, text string) {
	log.mx.Lock()
	log.add(when, stream, text)
	log.notify()
	log.mx.Unlock()
}

func (log *Log) add(when time.Time, stream Stream, text string) {
	log.id++
	rec := &log.records[log.count%len(log.records)]
	rec.Id = log.id
	rec.Time = when
	rec.Stream = stream
	rec.Text = text
	// count keeps growing past the ring size; it is the next slot to use.
	log.count++
}

func (log *Log) notify() {
	close(log.changed)
	log.changed = make(chan struct{})
}

// Clear discards every record.  The id still moves forward so watchers
// see the change.
func (log *Log) Clear() {
	log.mx.Lock()
	log.count = 0
	log.id++
	log.notify()
	log.mx.Unlock()
}

// Follow copies output lines from the supervisor into the log, until the
// returned function is called.
func (log *Log) Follow(s *Supervisor) func() {
	return s.OnOutput(func(line OutputLine) {
		log.Add(line.Time, line.Stream, line.Text)
	})
}

// GetRecords returns the stored records, oldest first, together with an
// id suitable for use as an Etag.  If last equals the current id nothing
// has changed and nil is returned.  Ids are not unique across Logs.
func (log *Log) GetRecords(last int64) ([]LogRecord, int64) {
	log.mx.Lock()
	defer log.mx.Unlock()

	if log.id == last {
		return nil, last
	}
	cnt := min(log.count, len(log.records))
	recs := make([]LogRecord, 0, cnt)
	for i := log.count - cnt; i < log.count; i++ {
		recs = append(recs, log.records[i%len(log.records)])
	}
	return recs, log.id
}

// Watch blocks until the log id differs from last or the context is done,
// and returns the id at that point.
func (log *Log) Watch(ctx context.Context, last int64) int64 {
	for {
		log.mx.Lock()
		id, ch := log.id, log.changed
		log.mx.Unlock()
		if id != last {
			return id
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return id
		}
	}
}

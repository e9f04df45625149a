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
	"log/slog"
	"reflect"
	"sync"
)

// MultiHandler is a slog.Handler that fans each record out to several
// handlers.  The daemon uses it to send its diagnostics both to stderr and
// to a Log that REST clients can read.  Each contained handler keeps its
// own level and format.
//
// Handlers derived with WithAttrs or WithGroup share the destinations of
// the MultiHandler they came from, so a destination added later also
// receives records from loggers created earlier.
type MultiHandler struct {
	set  *handlerSet
	wrap []func(slog.Handler) slog.Handler
}

type handlerSet struct {
	handlers []slog.Handler
	lock     sync.Mutex
}

func NewMultiHandler(handlers ...slog.Handler) *MultiHandler {
	return &MultiHandler{set: &handlerSet{handlers: handlers}}
}

func (m *MultiHandler) snapshot() []slog.Handler {
	m.set.lock.Lock()
	hs := append([]slog.Handler(nil), m.set.handlers...)
	m.set.lock.Unlock()
	for i := range hs {
		for _, w := range m.wrap {
			hs[i] = w(hs[i])
		}
	}
	return hs
}

// sameHandler reports whether a and b are the same destination.  Handlers
// of a type that is not comparable never match, so they cannot be removed.
func sameHandler(a, b slog.Handler) bool {
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}
	return a == b
}

// AddHandler adds a destination.  A handler can only be added once.  It
// should be comparable, as the slog handlers are, or DelHandler will not
// find it again.
func (m *MultiHandler) AddHandler(h slog.Handler) {
	m.set.lock.Lock()
	defer m.set.lock.Unlock()
	for _, x := range m.set.handlers {
		if sameHandler(x, h) {
			return
		}
	}
	m.set.handlers = append(m.set.handlers, h)
}

// DelHandler removes a destination added earlier.
func (m *MultiHandler) DelHandler(h slog.Handler) {
	m.set.lock.Lock()
	defer m.set.lock.Unlock()
	for i, x := range m.set.handlers {
		if sameHandler(x, h) {
			m.set.handlers = append(m.set.handlers[:i:i], m.set.handlers[i+1:]...)
			break
		}
	}
}

func (m *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.snapshot() {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range m.snapshot() {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if e := h.Handle(ctx, r.Clone()); e != nil {
			errs = append(errs, e)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiHandler) with(w func(slog.Handler) slog.Handler) *MultiHandler {
	wrap := append(m.wrap[:len(m.wrap):len(m.wrap)], w)
	return &MultiHandler{set: m.set, wrap: wrap}
}

func (m *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return m
	}
	return m.with(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (m *MultiHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return m
	}
	return m.with(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

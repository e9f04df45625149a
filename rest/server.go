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
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/crypto/bcrypt"

	"github.com/gdamore/procvisor"
)

// Handler wraps a Supervisor, adding http.Handler functionality.
type Handler struct {
	s           *procvisor.Supervisor
	output      *procvisor.Log
	daemon      *procvisor.Log
	name        string
	desc        string
	stopTimeout time.Duration
	gatherer    prometheus.Gatherer
	users       map[string][]byte
	lock        sync.Mutex
	r           *mux.Router
}

func (h *Handler) internalError(w http.ResponseWriter, e error) {
	http.Error(w, e.Error(), http.StatusInternalServerError)
}

func (h *Handler) writeJson(w http.ResponseWriter, v interface{}) {
	if b, e := json.Marshal(v); e != nil {
		h.internalError(w, e)
	} else {
		w.Header().Set("Content-Type", mimeJson)
		w.Write(b)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, e *Error) {
	if b, err := json.Marshal(e); err != nil {
		h.internalError(w, err)
	} else {
		w.Header().Set("Content-Type", mimeJson)
		w.WriteHeader(e.Code)
		w.Write(b)
	}
}

// supervisorError maps an error from Start or Stop to a REST error.
func supervisorError(e error) *Error {
	switch {
	case errors.Is(e, procvisor.ErrInvalidTransition):
		return &Error{http.StatusConflict, e.Error()}
	case errors.Is(e, procvisor.ErrClosed):
		return &Error{http.StatusServiceUnavailable, e.Error()}
	default:
		return &Error{http.StatusInternalServerError, e.Error()}
	}
}

// pollContext returns a context that expires after the number of seconds
// the client asked to wait, or nil if the request is not a long poll.
func pollContext(r *http.Request) (context.Context, context.CancelFunc, string) {
	etag := r.Header.Get(PollEtagHeader)
	secs, e := strconv.Atoi(r.Header.Get(PollTimeHeader))
	if etag == "" || e != nil || secs <= 0 {
		return nil, nil, ""
	}
	d := min(time.Duration(secs)*time.Second, MaxPollTime)
	ctx, cancel := context.WithTimeout(r.Context(), d)
	return ctx, cancel, etag
}

func (h *Handler) status() *ProcessStatus {
	st := h.s.Status()
	h.lock.Lock()
	name, desc := h.name, h.desc
	h.lock.Unlock()
	ps := &ProcessStatus{
		Name:        name,
		Description: desc,
		Executable:  h.s.Path(),
		RunType:     h.s.RunType(),
		State:       st.State,
		Process:     st.Info,
		Generation:  st.Generation,
		TimeStamp:   time.Now(),
		etag:        strconv.FormatUint(st.Generation, 10),
	}
	if st.Err != nil {
		ps.Error = st.Err.Error()
	}
	return ps
}

func (h *Handler) getStatus(w http.ResponseWriter, r *http.Request) {
	if ctx, cancel, etag := pollContext(r); ctx != nil {
		if last, e := strconv.ParseUint(etag, 10, 64); e == nil {
			h.s.Watch(ctx, last)
		}
		cancel()
	}
	ps := h.status()
	w.Header().Set("Etag", ps.etag)
	if r.Header.Get("If-None-Match") == ps.etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	h.writeJson(w, ps)
}

func (h *Handler) startProcess(w http.ResponseWriter, r *http.Request) {
	if e := h.s.Start(); e != nil {
		h.writeError(w, supervisorError(e))
		return
	}
	h.writeJson(w, h.status())
}

// stopProcess takes an optional timeout duration, defaulting to the
// handler's stop timeout, and an optional wait flag which holds the
// response until the shutdown protocol has finished.
func (h *Handler) stopProcess(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.lock.Lock()
	timeout := h.stopTimeout
	h.lock.Unlock()
	if v := q.Get("timeout"); v != "" {
		d, e := time.ParseDuration(v)
		if e != nil {
			h.writeError(w, &Error{http.StatusBadRequest, "Bad timeout: " + e.Error()})
			return
		}
		timeout = d
	}
	wait := false
	if v := q.Get("wait"); v != "" {
		b, e := strconv.ParseBool(v)
		if e != nil {
			h.writeError(w, &Error{http.StatusBadRequest, "Bad wait flag: " + e.Error()})
			return
		}
		wait = b
	}

	done, e := h.s.StopAsync(timeout)
	if e != nil {
		h.writeError(w, supervisorError(e))
		return
	}
	if wait {
		select {
		case <-done:
		case <-r.Context().Done():
			return
		}
	}
	h.writeJson(w, h.status())
}

func (h *Handler) serveLog(w http.ResponseWriter, r *http.Request, log *procvisor.Log) {
	if log == nil {
		h.writeError(w, &Error{http.StatusNotFound, "Log not available"})
		return
	}
	if ctx, cancel, etag := pollContext(r); ctx != nil {
		if last, e := strconv.ParseInt(etag, 10, 64); e == nil {
			log.Watch(ctx, last)
		}
		cancel()
	}
	var last int64 = -1
	if v, e := strconv.ParseInt(r.Header.Get("If-None-Match"), 10, 64); e == nil {
		last = v
	}
	recs, id := log.GetRecords(last)
	w.Header().Set("Etag", strconv.FormatInt(id, 10))
	if recs == nil && id == last {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	h.writeJson(w, recs)
}

func (h *Handler) getOutput(w http.ResponseWriter, r *http.Request) {
	h.serveLog(w, r, h.output)
}

func (h *Handler) getDaemonLog(w http.ResponseWriter, r *http.Request) {
	h.lock.Lock()
	log := h.daemon
	h.lock.Unlock()
	h.serveLog(w, r, log)
}

// clearOutput discards the captured output.  Pollers see a new etag and
// an empty log.
func (h *Handler) clearOutput(w http.ResponseWriter, r *http.Request) {
	if h.output == nil {
		h.writeError(w, &Error{http.StatusNotFound, "Log not available"})
		return
	}
	h.output.Clear()
	h.writeJson(w, struct{}{})
}

func (h *Handler) getGraph(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", mimeText)
	w.Write([]byte(h.s.Graph()))
}

func (h *Handler) getMetrics(w http.ResponseWriter, r *http.Request) {
	h.lock.Lock()
	g := h.gatherer
	h.lock.Unlock()
	promhttp.HandlerFor(g, promhttp.HandlerOpts{}).ServeHTTP(w, r)
}

func (h *Handler) authorized(r *http.Request) bool {
	h.lock.Lock()
	open := len(h.users) == 0
	user, pass, ok := r.BasicAuth()
	hash, known := h.users[user]
	h.lock.Unlock()

	if open {
		return true
	}
	if !ok || !known {
		return false
	}
	// bcrypt is slow on purpose; compare outside the lock.
	return bcrypt.CompareHashAndPassword(hash, []byte(pass)) == nil
}

// AddUser enables HTTP basic authentication.  The hash is a bcrypt hash
// of the user's password.  Once any user is added, every request must
// authenticate.
func (h *Handler) AddUser(user string, hash []byte) error {
	if _, e := bcrypt.Cost(hash); e != nil {
		return e
	}
	h.lock.Lock()
	h.users[user] = hash
	h.lock.Unlock()
	return nil
}

// SetDescription sets the name and description reported in the status.
func (h *Handler) SetDescription(name, desc string) {
	h.lock.Lock()
	h.name, h.desc = name, desc
	h.lock.Unlock()
}

// SetStopTimeout sets the timeout used when a stop request does not give
// one.
func (h *Handler) SetStopTimeout(d time.Duration) {
	h.lock.Lock()
	h.stopTimeout = d
	h.lock.Unlock()
}

// SetDaemonLog sets the log served at /log.
func (h *Handler) SetDaemonLog(log *procvisor.Log) {
	h.lock.Lock()
	h.daemon = log
	h.lock.Unlock()
}

// SetGatherer sets where /metrics collects from.  The default is the
// prometheus default gatherer.
func (h *Handler) SetGatherer(g prometheus.Gatherer) {
	h.lock.Lock()
	h.gatherer = g
	h.lock.Unlock()
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if !h.authorized(req) {
		w.Header().Set("WWW-Authenticate", `Basic realm="procvisor"`)
		h.writeError(w, &Error{http.StatusUnauthorized, "Unauthorized"})
		return
	}
	h.r.ServeHTTP(w, req)
}

// NewHandler returns a handler for the supervisor.  Output, which may be
// nil, is the log of the process's output lines.
func NewHandler(s *procvisor.Supervisor, output *procvisor.Log) *Handler {
	r := mux.NewRouter()
	h := &Handler{
		s:        s,
		output:   output,
		gatherer: prometheus.DefaultGatherer,
		users:    make(map[string][]byte),
		r:        r,
	}
	r.HandleFunc("/process", h.getStatus).Methods("GET")
	r.HandleFunc("/process/start", h.startProcess).Methods("POST")
	r.HandleFunc("/process/stop", h.stopProcess).Methods("POST")
	r.HandleFunc("/process/log", h.getOutput).Methods("GET")
	r.HandleFunc("/process/log/clear", h.clearOutput).Methods("POST")
	r.HandleFunc("/process/graph", h.getGraph).Methods("GET")
	r.HandleFunc("/log", h.getDaemonLog).Methods("GET")
	r.HandleFunc("/metrics", h.getMetrics).Methods("GET")
	return h
}

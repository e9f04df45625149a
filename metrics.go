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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the prometheus collectors a Supervisor reports to.  A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	transitions *prometheus.CounterVec
	starts      prometheus.Counter
	startFailed prometheus.Counter
	stops       *prometheus.CounterVec
	kills       prometheus.Counter
	signals     *prometheus.CounterVec
	state       *prometheus.GaugeVec
}

// NewMetrics creates and registers the supervisor collectors with reg.
// Pass prometheus.DefaultRegisterer to expose them on the default handler.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "procvisor",
			Subsystem: "supervisor",
			Name:      "transitions_total",
			Help:      "State transitions, by destination state",
		}, []string{"to"}),
		starts: f.NewCounter(prometheus.CounterOpts{
			Namespace: "procvisor",
			Subsystem: "supervisor",
			Name:      "starts_total",
			Help:      "Processes successfully spawned",
		}),
		startFailed: f.NewCounter(prometheus.CounterOpts{
			Namespace: "procvisor",
			Subsystem: "supervisor",
			Name:      "start_failures_total",
			Help:      "Start attempts that failed to spawn a process",
		}),
		stops: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "procvisor",
			Subsystem: "supervisor",
			Name:      "stops_total",
			Help:      "Stop requests, by shutdown mode",
		}, []string{"mode"}),
		kills: f.NewCounter(prometheus.CounterOpts{
			Namespace: "procvisor",
			Subsystem: "supervisor",
			Name:      "forced_kills_total",
			Help:      "Processes forcibly terminated",
		}),
		signals: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "procvisor",
			Subsystem: "supervisor",
			Name:      "cooperative_signals_total",
			Help:      "Cooperative shutdown requests, by outcome",
		}, []string{"result"}),
		state: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "procvisor",
			Subsystem: "supervisor",
			Name:      "state",
			Help:      "1 for the current supervisor state, 0 otherwise",
		}, []string{"state"}),
	}
}

func (m *Metrics) transition(to State) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(to.String()).Inc()
	for _, st := range States() {
		v := 0.0
		if st == to {
			v = 1
		}
		m.state.WithLabelValues(st.String()).Set(v)
	}
}

func (m *Metrics) started() {
	if m != nil {
		m.starts.Inc()
	}
}

func (m *Metrics) startFailure() {
	if m != nil {
		m.startFailed.Inc()
	}
}

func (m *Metrics) stop(mode string) {
	if m != nil {
		m.stops.WithLabelValues(mode).Inc()
	}
}

func (m *Metrics) killed() {
	if m != nil {
		m.kills.Inc()
	}
}

func (m *Metrics) signal(result string) {
	if m != nil {
		m.signals.WithLabelValues(result).Inc()
	}
}

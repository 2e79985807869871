// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "modhub"

// HubMetrics are the marketplace and loader collectors.
type HubMetrics struct {
	UploadsTotal   *prometheus.CounterVec
	BuildDuration  *prometheus.HistogramVec
	ModuleLoads    *prometheus.CounterVec
	Installations  *prometheus.CounterVec
	ActiveSessions prometheus.Gauge
}

func NewHubMetrics(reg prometheus.Registerer) *HubMetrics {
	m := &HubMetrics{
		UploadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Uploads by resulting status.",
		}, []string{"status"}),
		BuildDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Isolated build duration.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"result"}),
		ModuleLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "module_loads_total",
			Help:      "Loader fetch and mount outcomes.",
		}, []string{"outcome"}),
		Installations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "installations_total",
			Help:      "Tenant install and uninstall operations.",
		}, []string{"op"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Open tenant loader sessions.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.UploadsTotal, m.BuildDuration, m.ModuleLoads, m.Installations, m.ActiveSessions)
	}
	return m
}

// Nop returns unregistered collectors, used when metrics are not wired.
func Nop() *HubMetrics {
	return NewHubMetrics(nil)
}

func (m *HubMetrics) ObserveUpload(status string) {
	if m == nil {
		return
	}
	m.UploadsTotal.WithLabelValues(status).Inc()
}

func (m *HubMetrics) ObserveBuild(ok bool, d time.Duration) {
	if m == nil {
		return
	}
	result := "failed"
	if ok {
		result = "succeeded"
	}
	m.BuildDuration.WithLabelValues(result).Observe(d.Seconds())
}

func (m *HubMetrics) ObserveLoad(outcome string) {
	if m == nil {
		return
	}
	m.ModuleLoads.WithLabelValues(outcome).Inc()
}

func (m *HubMetrics) ObserveInstall(op string) {
	if m == nil {
		return
	}
	m.Installations.WithLabelValues(op).Inc()
}

func (m *HubMetrics) SessionOpened() {
	if m == nil {
		return
	}
	m.ActiveSessions.Inc()
}

func (m *HubMetrics) SessionClosed() {
	if m == nil {
		return
	}
	m.ActiveSessions.Dec()
}

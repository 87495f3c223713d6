/*
cleanupd - mail transfer agent queue-cleanup service.
Copyright (C) 2024 cleanupd contributors

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package cleanup

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus collectors a Processor reports through.
// NewMetrics registers a fresh set; defaultMetrics is the process-wide
// singleton NewProcessor uses unless the caller supplies its own (tests
// construct their own Metrics to avoid double-registration panics).
type Metrics struct {
	recordsTotal    *prometheus.CounterVec
	warningsTotal   prometheus.Counter
	attrOccupancy   prometheus.Gauge
	sinkWriteErrors prometheus.Counter
}

// NewMetrics builds and registers a Metrics set against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		recordsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cleanupd",
			Subsystem: "cleanup",
			Name:      "records_total",
			Help:      "Envelope records processed, by record type.",
		}, []string{"type"}),
		warningsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cleanupd",
			Subsystem: "cleanup",
			Name:      "warnings_total",
			Help:      "Non-fatal envelope processing warnings.",
		}),
		attrOccupancy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cleanupd",
			Subsystem: "cleanup",
			Name:      "attr_table_occupancy",
			Help:      "Attribute table entries held by the most recently processed envelope.",
		}),
		sinkWriteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cleanupd",
			Subsystem: "cleanup",
			Name:      "sink_write_errors_total",
			Help:      "Queue file sink write failures.",
		}),
	}

	reg.MustRegister(m.recordsTotal, m.warningsTotal, m.attrOccupancy, m.sinkWriteErrors)
	return m
}

var defaultMetrics = NewMetrics(prometheus.DefaultRegisterer)

// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package metrics declares the Prometheus collectors named in §9: scan
// latency, merge fan-in, row-lock contention, and MVCC write-queue depth.
// The table package updates all but row-lock contention, which nothing in
// the core records. None of these affect correctness;
// a caller that never wires a *Metrics into its Table still gets correct
// scans, just no observability.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics is the set of collectors the table package records against. The zero value is not usable; construct with New and Register
// the result with a prometheus.Registerer.
type Metrics struct {
	ScanLatencySeconds prometheus.Histogram
	MergeFanIn         prometheus.Histogram
	RowLockWaitSeconds prometheus.Histogram
	WriteQueueDepth    prometheus.Gauge
}

// New returns a Metrics with every collector constructed but not yet
// registered.
func New(namespace string) *Metrics {
	return &Metrics{
		ScanLatencySeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_latency_seconds",
			Help:      "Latency of Table.Scan from call to returned iterator.",
			Buckets:   prometheus.DefBuckets,
		}),
		MergeFanIn: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "merge_fan_in",
			Help:      "Number of sorted sources combined by a single k-way merge.",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 64, 128},
		}),
		RowLockWaitSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "row_lock_wait_seconds",
			Help:      "Time spent waiting to acquire a row's exclusion lease.",
			Buckets:   prometheus.DefBuckets,
		}),
		WriteQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "write_queue_depth",
			Help:      "Number of write tickets pending completion in the MVCC queue.",
		}),
	}
}

// MustRegister registers every collector with reg, panicking on collision —
// meant for process startup, where a duplicate registration is a programming
// error.
func (m *Metrics) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(m.ScanLatencySeconds, m.MergeFanIn, m.RowLockWaitSeconds, m.WriteQueueDepth)
}

// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package metrics exposes Prometheus metrics for connection pools and
// request executions. Every Collector method is safe to call on a nil
// *Collector, which records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "httpexec"

// PoolStats is a snapshot of connection pool occupancy.
type PoolStats struct {
	Leased    int
	Available int
	Pending   int
	Max       int
}

// A Collector records engine metrics into a Prometheus registry.
type Collector struct {
	registerer prometheus.Registerer

	attempts        prometheus.Counter
	retries         *prometheus.CounterVec
	redirects       prometheus.Counter
	connOpened      prometheus.Counter
	connClosed      prometheus.Counter
	connectFailures prometheus.Counter
	leaseTimeouts   prometheus.Counter
}

// NewCollector creates and registers the engine's metrics. If reg is
// nil, a new private registry is used.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	c := &Collector{
		registerer: reg,
		attempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "attempts_total",
			Help:      "Request attempts sent over a connection.",
		}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "retries_total",
			Help:      "Request attempts retried after an I/O failure, by failure category.",
		}, []string{"reason"}),
		redirects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "redirects_total",
			Help:      "Redirect responses followed.",
		}),
		connOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "connections_opened_total",
			Help:      "Connections successfully connected.",
		}),
		connClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "connections_closed_total",
			Help:      "Connections discarded by the pool.",
		}),
		connectFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "connect_failures_total",
			Help:      "Connect operations that failed on every resolved address.",
		}),
		leaseTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "lease_timeouts_total",
			Help:      "Connection lease requests that timed out.",
		}),
	}
	reg.MustRegister(c.attempts, c.retries, c.redirects, c.connOpened,
		c.connClosed, c.connectFailures, c.leaseTimeouts)
	return c
}

// RegisterPool exposes gauges reading pool occupancy from stats each
// time the registry is scraped.
func (c *Collector) RegisterPool(stats func() PoolStats) {
	if c == nil {
		return
	}
	gauge := func(name, help string, f func(PoolStats) int) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      name,
			Help:      help,
		}, func() float64 {
			return float64(f(stats()))
		})
	}
	c.registerer.MustRegister(
		gauge("pool_leased", "Connections currently leased.", func(s PoolStats) int { return s.Leased }),
		gauge("pool_available", "Idle connections available for lease.", func(s PoolStats) int { return s.Available }),
		gauge("pool_pending", "Lease requests waiting for a connection.", func(s PoolStats) int { return s.Pending }),
		gauge("pool_max", "Maximum number of connections.", func(s PoolStats) int { return s.Max }),
	)
}

// Attempt counts a request attempt.
func (c *Collector) Attempt() {
	if c != nil {
		c.attempts.Inc()
	}
}

// Retry counts a retried attempt.
func (c *Collector) Retry(reason string) {
	if c != nil {
		c.retries.WithLabelValues(reason).Inc()
	}
}

// Redirect counts a followed redirect.
func (c *Collector) Redirect() {
	if c != nil {
		c.redirects.Inc()
	}
}

// ConnectionOpened counts a connected socket.
func (c *Collector) ConnectionOpened() {
	if c != nil {
		c.connOpened.Inc()
	}
}

// ConnectionClosed counts a connection discarded by the pool.
func (c *Collector) ConnectionClosed() {
	if c != nil {
		c.connClosed.Inc()
	}
}

// ConnectFailure counts a failed connect operation.
func (c *Collector) ConnectFailure() {
	if c != nil {
		c.connectFailures.Inc()
	}
}

// LeaseTimeout counts a lease request that timed out.
func (c *Collector) LeaseTimeout() {
	if c != nil {
		c.leaseTimeouts.Inc()
	}
}

/*
 * Copyright 2018 The Trickster Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package metrics implements prometheus metrics and exposes the metrics HTTP handler
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricNamespace    = "quay"
	buildSubsystem     = "build"
	frontendSubsystem  = "frontend"
	listenerSubsystem  = "listener"
	websocketSubsystem = "websocket"
)

// Default histogram buckets used by quay
var (
	defaultBuckets = []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}
)

// BuildInfo is a Gauge representing the quay binary build information of the running server instance
var BuildInfo *prometheus.GaugeVec

// FrontendRequestStatus is a Counter of requests that have been processed with their status
var FrontendRequestStatus *prometheus.CounterVec

// FrontendRequestDuration is a histogram that tracks the time it takes to process a request
var FrontendRequestDuration *prometheus.HistogramVec

// FrontendRequestWrittenBytes is a Counter of bytes written in responses
var FrontendRequestWrittenBytes *prometheus.CounterVec

// ConnectionEvents is a Counter of connection lifecycle events by severity
var ConnectionEvents *prometheus.CounterVec

// ListenerMaxConnections is a Gauge representing the max number of active concurrent connections in the server
var ListenerMaxConnections prometheus.Gauge

// ListenerActiveConnections is a Gauge representing the number of active connections in the server
var ListenerActiveConnections prometheus.Gauge

// ListenerConnectionAccepted is a counter representing the total number of connections accepted
var ListenerConnectionAccepted prometheus.Counter

// ListenerConnectionClosed is a counter representing the total number of connections closed
var ListenerConnectionClosed prometheus.Counter

// ListenerConnectionFailed is a counter for the total number of connections that failed to be accepted
var ListenerConnectionFailed prometheus.Counter

// WebSocketUpgrades is a counter of connections upgraded to websocket
var WebSocketUpgrades prometheus.Counter

func init() {

	BuildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: metricNamespace,
			Subsystem: buildSubsystem,
			Name:      "info",
			Help: "A metric with a constant '1' value labeled by version," +
				"revision, and goversion from which quay was built.",
		},
		[]string{"goversion", "revision", "version"},
	)

	FrontendRequestStatus = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Subsystem: frontendSubsystem,
			Name:      "requests_total",
			Help:      "Count of requests handled by quay",
		},
		[]string{"method", "http_status"},
	)

	FrontendRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricNamespace,
			Subsystem: frontendSubsystem,
			Name:      "requests_duration_seconds",
			Help:      "Histogram of request durations handled by quay",
			Buckets:   defaultBuckets,
		},
		[]string{"method", "http_status"},
	)

	FrontendRequestWrittenBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Subsystem: frontendSubsystem,
			Name:      "written_bytes_total",
			Help:      "Count of bytes written in responses handled by quay",
		},
		[]string{"method", "http_status"},
	)

	ConnectionEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Subsystem: listenerSubsystem,
			Name:      "events_total",
			Help:      "Count of connection events by severity",
		},
		[]string{"severity"},
	)

	ListenerMaxConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metricNamespace,
			Subsystem: listenerSubsystem,
			Name:      "max_connections",
			Help:      "Maximum number of concurrent connections the listener accepts.",
		},
	)

	ListenerActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metricNamespace,
			Subsystem: listenerSubsystem,
			Name:      "active_connections",
			Help:      "Number of connections currently being served.",
		},
	)

	ListenerConnectionAccepted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Subsystem: listenerSubsystem,
			Name:      "accepted_connections_total",
			Help:      "Number of connections accepted.",
		},
	)

	ListenerConnectionClosed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Subsystem: listenerSubsystem,
			Name:      "closed_connections_total",
			Help:      "Number of connections closed.",
		},
	)

	ListenerConnectionFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Subsystem: listenerSubsystem,
			Name:      "failed_connections_total",
			Help:      "Number of connections that failed to be accepted.",
		},
	)

	WebSocketUpgrades = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Subsystem: websocketSubsystem,
			Name:      "upgrades_total",
			Help:      "Number of connections upgraded to websocket.",
		},
	)

	// Register Metrics
	prometheus.MustRegister(BuildInfo)
	prometheus.MustRegister(FrontendRequestStatus)
	prometheus.MustRegister(FrontendRequestDuration)
	prometheus.MustRegister(FrontendRequestWrittenBytes)
	prometheus.MustRegister(ConnectionEvents)
	prometheus.MustRegister(ListenerMaxConnections)
	prometheus.MustRegister(ListenerActiveConnections)
	prometheus.MustRegister(ListenerConnectionAccepted)
	prometheus.MustRegister(ListenerConnectionClosed)
	prometheus.MustRegister(ListenerConnectionFailed)
	prometheus.MustRegister(WebSocketUpgrades)
}

// Handler returns the http handler for the metrics listener
func Handler() http.Handler {
	return promhttp.Handler()
}

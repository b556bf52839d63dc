// Copyright 2025 The CargoBuddy Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics exposes prometheus counters for the client's cache,
// realtime channel and reconciler.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Component labels.
	ComponentCache         = "cache"
	ComponentRealtime      = "realtime"
	ComponentReconciler    = "reconciler"
	ComponentNotifications = "notifications"
	ComponentAPIClient     = "api_client"
	ComponentSession       = "session"
)

var (
	// Namespace and subsystem for all metrics.
	namespace = "cargobuddy"
	subsystem = "client"

	// Error counters.
	errorCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "errors_total",
			Help:      "Total number of errors encountered by component",
		},
		[]string{"component"},
	)

	cacheFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cache_fetches_total",
			Help:      "Total number of upstream fetches by resource kind and outcome (success, error, deduplicated)",
		},
		[]string{"kind", "outcome"},
	)

	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cache_lookups_total",
			Help:      "Total number of cache lookups by resource kind and result (hit, stale, miss)",
		},
		[]string{"kind", "result"},
	)

	cacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cache_invalidations_total",
			Help:      "Total number of tag invalidations by tag and mode (eager, lazy)",
		},
		[]string{"tag", "mode"},
	)

	reconnectAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "realtime_reconnect_attempts_total",
			Help:      "Total number of reconnect attempts of the realtime channel",
		},
	)

	channelOnline = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "realtime_online",
			Help:      "Whether the realtime channel currently has a live connection (1) or not (0)",
		},
	)

	eventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "realtime_events_total",
			Help:      "Total number of realtime events processed by event type and outcome (handled, unknown, dropped)",
		},
		[]string{"type", "outcome"},
	)

	notificationsEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "notifications_enqueued_total",
			Help:      "Total number of notifications enqueued by notification type",
		},
		[]string{"type"},
	)

	unreadNotifications = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "notifications_unread",
			Help:      "Current number of unread notifications",
		},
	)

	mutationRollbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "optimistic_rollbacks_total",
			Help:      "Total number of optimistic mutations rolled back by mutation name",
		},
		[]string{"mutation"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of backend HTTP requests in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)
)

// IncErrorCount increments the error counter for a component.
func IncErrorCount(component string) {
	errorCounter.WithLabelValues(component).Inc()
}

// ObserveCacheFetch records an upstream fetch for a resource kind.
// Outcome is one of "success", "error" or "deduplicated".
func ObserveCacheFetch(kind string, outcome string) {
	cacheFetches.WithLabelValues(kind, outcome).Inc()
}

// ObserveCacheLookup records a cache lookup for a resource kind.
// Result is one of "hit", "stale" or "miss".
func ObserveCacheLookup(kind string, result string) {
	cacheLookups.WithLabelValues(kind, result).Inc()
}

// ObserveInvalidation records a tag invalidation.
// Mode is "eager" when the entry is refetched immediately, "lazy" otherwise.
func ObserveInvalidation(tag string, mode string) {
	cacheInvalidations.WithLabelValues(tag, mode).Inc()
}

// IncReconnectAttempts records a reconnect attempt of the realtime channel.
func IncReconnectAttempts() {
	reconnectAttempts.Inc()
}

// SetChannelOnline records whether the realtime channel is online.
func SetChannelOnline(online bool) {
	if online {
		channelOnline.Set(1)
	} else {
		channelOnline.Set(0)
	}
}

// ObserveEvent records a processed realtime event.
// Outcome is one of "handled", "unknown" or "dropped".
func ObserveEvent(eventType string, outcome string) {
	eventsProcessed.WithLabelValues(eventType, outcome).Inc()
}

// ObserveNotification records an enqueued notification.
func ObserveNotification(notificationType string) {
	notificationsEnqueued.WithLabelValues(notificationType).Inc()
}

// SetUnreadNotifications records the current unread count.
func SetUnreadNotifications(count int) {
	unreadNotifications.Set(float64(count))
}

// IncMutationRollbacks records a rolled back optimistic mutation.
func IncMutationRollbacks(mutation string) {
	mutationRollbacks.WithLabelValues(mutation).Inc()
}

// ObserveRequestDuration records the duration of a backend HTTP request.
func ObserveRequestDuration(method string, endpoint string, seconds float64) {
	requestDuration.WithLabelValues(method, endpoint).Observe(seconds)
}

// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CheckinsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkin_records_created_total",
		Help: "Check-in records inserted, by source.",
	}, []string{"source"})

	CheckinsDeduplicated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkin_records_deduplicated_total",
		Help: "Check-ins skipped because the same email checked in recently.",
	})

	Exports = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkin_exports_total",
		Help: "CSV export requests, by result (written or empty).",
	}, []string{"result"})

	LiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "checkin_live_sessions",
		Help: "Open websocket feed subscriptions.",
	})

	LiveBroadcasts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkin_live_broadcasts_total",
		Help: "Snapshots pushed to all subscribers.",
	})

	CameraFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "camera_fetches_total",
		Help: "Camera image fetches, by result.",
	}, []string{"result"})

	FaceRecognitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "face_recognitions_total",
		Help: "Face service calls, by result (matched, unmatched, error).",
	}, []string{"result"})
)

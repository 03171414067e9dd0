// Package metrics holds the process-wide prometheus collectors. Labels only take
// bounded values: game modes, combat outcomes, rejection reasons, route patterns.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	roomsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rooms_active",
		Help: "Rooms currently registered in the hub",
	})

	gamesStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "games_started_total",
		Help: "Games started, by mode",
	}, []string{"mode"})

	gamesEnded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "games_ended_total",
		Help: "Games ended, by mode",
	}, []string{"mode"})

	combats = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "combats_total",
		Help: "Finished combats, by outcome",
	}, []string{"outcome"}) // "win", "escape", "abandon"

	intentsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "intents_rejected_total",
		Help: "Client or bot intents refused by the rules",
	}, []string{"reason"})

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ws_connections_active",
		Help: "Currently open websocket connections",
	})

	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)

func RoomOpened() { roomsActive.Inc() }
func RoomClosed() { roomsActive.Dec() }

func GameStarted(mode string) { gamesStarted.WithLabelValues(mode).Inc() }
func GameEnded(mode string)   { gamesEnded.WithLabelValues(mode).Inc() }

func CombatFinished(outcome string) { combats.WithLabelValues(outcome).Inc() }

// IntentRejected counts a refused intent. reason must come from a fixed set, such as
// an engine sentinel error's message.
func IntentRejected(reason string) { intentsRejected.WithLabelValues(reason).Inc() }

func ConnectionOpened() { wsConnectionsActive.Inc() }
func ConnectionClosed() { wsConnectionsActive.Dec() }

func ObserveRequest(method, route string, seconds float64) {
	requestLatency.WithLabelValues(method, route).Observe(seconds)
}

func Handler() http.Handler { return promhttp.Handler() }

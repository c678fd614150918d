package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "clubpos_"

var (
	registerOnce sync.Once

	pairingIssued   prometheus.Counter
	pairingRedeemed *prometheus.CounterVec

	deviceAuth *prometheus.CounterVec

	heartbeats prometheus.Counter

	syncItems   *prometheus.CounterVec
	syncLatency *prometheus.HistogramVec
)

// Init registers the metric collectors. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		pairingIssued = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "pairing_issued_total",
			Help: "Pairing artifacts issued",
		})
		pairingRedeemed = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "pairing_redeemed_total",
				Help: "Pairing redemption attempts by result",
			},
			[]string{"result"},
		)
		deviceAuth = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "device_auth_total",
				Help: "Device authentication attempts by strategy and result",
			},
			[]string{"strategy", "result"},
		)
		heartbeats = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "device_heartbeats_total",
			Help: "Device heartbeats received",
		})
		syncItems = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "sync_items_total",
				Help: "Offline sale sync items by outcome",
			},
			[]string{"outcome"},
		)
		syncLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "sync_apply_latency_seconds",
				Help:    "Sale ingestion latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		)

		prometheus.MustRegister(
			pairingIssued, pairingRedeemed, deviceAuth,
			heartbeats, syncItems, syncLatency,
		)
	})
}

// PairingIssued counts one issued pairing artifact
func PairingIssued() {
	if pairingIssued != nil {
		pairingIssued.Inc()
	}
}

// PairingRedeemed counts a redemption attempt; result is success, expired,
// invalid or already_redeemed
func PairingRedeemed(result string) {
	if pairingRedeemed != nil {
		pairingRedeemed.WithLabelValues(result).Inc()
	}
}

// DeviceAuth counts an authentication attempt for a strategy
func DeviceAuth(strategy, result string) {
	if deviceAuth != nil {
		deviceAuth.WithLabelValues(strategy, result).Inc()
	}
}

// Heartbeat counts one heartbeat
func Heartbeat() {
	if heartbeats != nil {
		heartbeats.Inc()
	}
}

// SyncItem counts one processed sync item by outcome
func SyncItem(outcome string) {
	if syncItems != nil {
		syncItems.WithLabelValues(outcome).Inc()
	}
}

// SyncApplyObserved records ingestion latency for one item
func SyncApplyObserved(outcome string, seconds float64) {
	if syncLatency != nil {
		syncLatency.WithLabelValues(outcome).Observe(seconds)
	}
}

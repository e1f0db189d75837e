package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type registryMetrics struct {
	mutations *prometheus.CounterVec
	lookups   prometheus.Counter
}

type minterMetrics struct {
	batches   *prometheus.CounterVec
	batchSize prometheus.Histogram
	latency   prometheus.Histogram
}

type rpcMetrics struct {
	requests *prometheus.CounterVec
}

var (
	registryMetricsOnce sync.Once
	registryRegistry    *registryMetrics

	minterMetricsOnce sync.Once
	minterRegistry    *minterMetrics

	rpcMetricsOnce sync.Once
	rpcRegistry    *rpcMetrics
)

// RegistryMetrics returns the lazily-initialised metrics tracking royalty
// registry activity.
func RegistryMetrics() *registryMetrics {
	registryMetricsOnce.Do(func() {
		registryRegistry = &registryMetrics{
			mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "sft",
				Subsystem: "royalty",
				Name:      "mutations_total",
				Help:      "Total royalty registry mutations segmented by operation and outcome.",
			}, []string{"op", "outcome"}),
			lookups: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "sft",
				Subsystem: "royalty",
				Name:      "lookups_total",
				Help:      "Total royaltyInfo resolution queries served.",
			}),
		}
		prometheus.MustRegister(registryRegistry.mutations, registryRegistry.lookups)
	})
	return registryRegistry
}

// RecordMutation increments the mutation counter for the supplied operation.
func (m *registryMetrics) RecordMutation(op string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.mutations.WithLabelValues(op, outcome).Inc()
}

// RecordLookup increments the resolution query counter.
func (m *registryMetrics) RecordLookup() {
	if m == nil {
		return
	}
	m.lookups.Inc()
}

// MinterMetrics returns the lazily-initialised metrics tracking batch mints.
func MinterMetrics() *minterMetrics {
	minterMetricsOnce.Do(func() {
		minterRegistry = &minterMetrics{
			batches: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "sft",
				Subsystem: "minter",
				Name:      "batches_total",
				Help:      "Total batch mint attempts segmented by outcome.",
			}, []string{"outcome"}),
			batchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
				Namespace: "sft",
				Subsystem: "minter",
				Name:      "batch_size",
				Help:      "Number of token ids per batch mint.",
				Buckets:   []float64{1, 2, 5, 10, 25, 50, 100},
			}),
			latency: prometheus.NewHistogram(prometheus.HistogramOpts{
				Namespace: "sft",
				Subsystem: "minter",
				Name:      "batch_latency_seconds",
				Help:      "Wall-clock latency of batch mints with royalties.",
				Buckets:   prometheus.DefBuckets,
			}),
		}
		prometheus.MustRegister(minterRegistry.batches, minterRegistry.batchSize, minterRegistry.latency)
	})
	return minterRegistry
}

// RecordBatch records one batch mint attempt.
func (m *minterMetrics) RecordBatch(size int, started time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.batches.WithLabelValues(outcome).Inc()
	if err == nil {
		m.batchSize.Observe(float64(size))
		m.latency.Observe(time.Since(started).Seconds())
	}
}

// RPCMetrics returns the lazily-initialised metrics tracking JSON-RPC
// activity.
func RPCMetrics() *rpcMetrics {
	rpcMetricsOnce.Do(func() {
		rpcRegistry = &rpcMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "sft",
				Subsystem: "rpc",
				Name:      "requests_total",
				Help:      "Total JSON-RPC requests segmented by method and outcome.",
			}, []string{"method", "outcome"}),
		}
		prometheus.MustRegister(rpcRegistry.requests)
	})
	return rpcRegistry
}

// RecordRequest increments the request counter for the supplied method.
func (m *rpcMetrics) RecordRequest(method, outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, outcome).Inc()
}

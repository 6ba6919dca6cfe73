// Package metrics holds the Prometheus collectors reported by the resolver
// and the batch builder.
//
// Collectors are created per Recorder so that several managers in one
// process (or one test binary) never collide on registration.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Anomaly reasons reported on webresource_resolution_anomalies_total.
const (
	ReasonCycle          = "cycle"
	ReasonMissing        = "missing"
	ReasonDisabled       = "disabled"
	ReasonNotWebResource = "not_web_resource"
)

// Recorder records resolution and batching events. A nil *Recorder is valid
// and records nothing.
type Recorder struct {
	anomalies          *prometheus.CounterVec
	contextBatches     prometheus.Counter
	merges             prometheus.Counter
	hashFallbacks      prometheus.Counter
	superBatchRebuilds prometheus.Counter
}

// New creates a Recorder and registers its collectors on reg. A nil reg
// leaves the collectors unregistered.
func New(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		anomalies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webresource_resolution_anomalies_total",
			Help: "Modules dropped during dependency resolution, by reason.",
		}, []string{"reason"}),
		contextBatches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "webresource_context_batches_total",
			Help: "Context batches emitted by the batch builder.",
		}),
		merges: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "webresource_batch_merges_total",
			Help: "Context batch merges caused by overlapping contexts.",
		}),
		hashFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "webresource_hash_fallbacks_total",
			Help: "Batch hashes replaced by the placeholder after a digest failure.",
		}),
		superBatchRebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "webresource_superbatch_rebuilds_total",
			Help: "Super-batch closure recomputations after a version change.",
		}),
	}
	if reg == nil {
		return r, nil
	}
	for _, c := range r.collectors() {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Recorder) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		r.anomalies,
		r.contextBatches,
		r.merges,
		r.hashFallbacks,
		r.superBatchRebuilds,
	}
}

// Anomaly counts one dropped module.
func (r *Recorder) Anomaly(reason string) {
	if r == nil {
		return
	}
	r.anomalies.WithLabelValues(reason).Inc()
}

// ContextBatches counts emitted context batches.
func (r *Recorder) ContextBatches(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.contextBatches.Add(float64(n))
}

// Merge counts one context batch merge.
func (r *Recorder) Merge() {
	if r == nil {
		return
	}
	r.merges.Inc()
}

// HashFallback counts one placeholder hash.
func (r *Recorder) HashFallback() {
	if r == nil {
		return
	}
	r.hashFallbacks.Inc()
}

// SuperBatchRebuild counts one super-batch recomputation.
func (r *Recorder) SuperBatchRebuild() {
	if r == nil {
		return
	}
	r.superBatchRebuilds.Inc()
}

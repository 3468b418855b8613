package metrics

import (
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "job_assistant"

// Results recorded per processed item.
const (
	ResultSucceeded = "succeeded"
	ResultSkipped   = "skipped"
	ResultFailed    = "failed"
)

// Recorder collects batch metrics for a single CLI run. A nil Recorder
// records nothing.
type Recorder struct {
	registry  *prometheus.Registry
	processed *prometheus.CounterVec
	scores    prometheus.Histogram
	lastRun   *prometheus.GaugeVec
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_processed_total",
			Help:      "Items processed by pipeline stage and result.",
		}, []string{"stage", "result"}),
		scores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_score",
			Help:      "Distribution of job score totals.",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		}),
		lastRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the stage last finished.",
		}, []string{"stage"}),
	}
	r.registry.MustRegister(r.processed, r.scores, r.lastRun)
	return r
}

func (r *Recorder) Processed(stage, result string) {
	if r == nil {
		return
	}
	r.processed.WithLabelValues(stage, result).Inc()
}

func (r *Recorder) ObserveScore(total float64) {
	if r == nil {
		return
	}
	r.scores.Observe(total)
}

func (r *Recorder) Finished(stage string, at time.Time) {
	if r == nil {
		return
	}
	r.lastRun.WithLabelValues(stage).Set(float64(at.Unix()))
}

// WriteTextfile writes the metrics in the format read by the node exporter
// textfile collector. An empty path disables writing.
func (r *Recorder) WriteTextfile(path string) error {
	path = strings.TrimSpace(path)
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

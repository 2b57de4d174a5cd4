package metrics

import (
	"time"

	"Recurra/internal/domain/recurring"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "recurra"

type Collector struct {
	generations *prometheus.CounterVec
	runs        *prometheus.CounterVec
	duration    prometheus.Histogram
	lastRun     *prometheus.GaugeVec
}

var _ recurring.Recorder = (*Collector)(nil)

func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Generation attempts per definition, by outcome.",
		}, []string{"status"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_runs_total",
			Help:      "Generation runs, by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_run_duration_seconds",
			Help:      "Wall time of a generation run.",
			Buckets:   prometheus.DefBuckets,
		}),
		lastRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "generation_last_run",
			Help:      "Counts of the most recent completed run.",
		}, []string{"status"}),
	}

	for _, collector := range []prometheus.Collector{c.generations, c.runs, c.duration, c.lastRun} {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collector) ObserveGeneration(status recurring.GenerationStatus) {
	c.generations.WithLabelValues(string(status)).Inc()
}

func (c *Collector) ObserveRun(result recurring.RunResult, duration time.Duration, err error) {
	c.duration.Observe(duration.Seconds())
	if err != nil {
		c.runs.WithLabelValues("aborted").Inc()
		return
	}
	c.runs.WithLabelValues("completed").Inc()
	c.lastRun.WithLabelValues(string(recurring.StatusSuccess)).Set(float64(result.Generated))
	c.lastRun.WithLabelValues(string(recurring.StatusFailed)).Set(float64(result.Failed))
	c.lastRun.WithLabelValues(string(recurring.StatusSkipped)).Set(float64(result.Skipped))
}

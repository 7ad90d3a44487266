package sinks

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"AlertTrack/internal/progress"
)

// PrometheusSink exports run and per-record counters. With a textfile path
// set, Close dumps the registry in text exposition format for node_exporter.
type PrometheusSink struct {
	runsStarted   prometheus.Counter
	runsCompleted *prometheus.CounterVec
	records       *prometheus.CounterVec
	recordLatency prometheus.Histogram
	runDuration   prometheus.Histogram
	lastRunSize   prometheus.Gauge
	lastSuccess   prometheus.Gauge

	gatherer prometheus.Gatherer
	textfile string
}

// NewPrometheusSink registers the collectors against reg. A nil reg gets a
// private registry so repeated runs in one process do not collide.
func NewPrometheusSink(reg *prometheus.Registry, textfile string) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	s := &PrometheusSink{
		runsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alerttrack_runs_started_total",
			Help: "Total enrichment runs that have started.",
		}),
		runsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alerttrack_runs_completed_total",
			Help: "Total runs completed partitioned by result.",
		}, []string{"result"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alerttrack_records_total",
			Help: "Enriched records partitioned by result.",
		}, []string{"result"}),
		recordLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "alerttrack_record_duration_seconds",
			Help:    "Time spent enriching a single record, throttle wait included.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "alerttrack_run_duration_seconds",
			Help:    "Wall time per finished run.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}),
		lastRunSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "alerttrack_last_run_records",
			Help: "Number of records in the most recent run.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "alerttrack_last_success_timestamp_seconds",
			Help: "Unix time of the most recent successful run.",
		}),
		gatherer: reg,
		textfile: textfile,
	}
	for _, collector := range []prometheus.Collector{
		s.runsStarted,
		s.runsCompleted,
		s.records,
		s.recordLatency,
		s.runDuration,
		s.lastRunSize,
		s.lastSuccess,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the collectors from the batch. The textfile is rewritten
// whenever a run ends so long-lived watch processes keep it current.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	var runEnded bool
	for _, evt := range batch {
		switch evt.Stage {
		case progress.StageRunStart:
			s.runsStarted.Inc()
			s.lastRunSize.Set(float64(evt.Total))
		case progress.StageRecordDone:
			result := "ok"
			if evt.Failed {
				result = "failed"
			}
			s.records.WithLabelValues(result).Inc()
			if evt.Dur > 0 {
				s.recordLatency.Observe(evt.Dur.Seconds())
			}
		case progress.StageRunDone:
			s.runsCompleted.WithLabelValues("success").Inc()
			s.lastSuccess.Set(float64(evt.TS.Unix()))
			s.observeRun(evt)
			runEnded = true
		case progress.StageRunError:
			s.runsCompleted.WithLabelValues("error").Inc()
			s.observeRun(evt)
			runEnded = true
		}
	}
	if runEnded {
		return s.flush()
	}
	return nil
}

func (s *PrometheusSink) observeRun(evt progress.Event) {
	if evt.Dur > 0 {
		s.runDuration.Observe(evt.Dur.Seconds())
	}
}

// Close writes the textfile dump when one is configured.
func (s *PrometheusSink) Close(context.Context) error {
	return s.flush()
}

func (s *PrometheusSink) flush() error {
	if s.textfile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(s.textfile, s.gatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

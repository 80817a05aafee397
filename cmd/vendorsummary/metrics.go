package main

import (
	log "github.com/sirupsen/logrus"

	"vendorsummary/internal/config"
	"vendorsummary/internal/metrics"
	"vendorsummary/internal/metrics/datadog"
	"vendorsummary/internal/metrics/prompush"
	"vendorsummary/internal/pipeline"
)

// setupMetrics installs the configured backend and returns a func that
// flushes it. A backend that cannot be built leaves metrics disabled.
func setupMetrics(cfg *config.Config) func() {
	var (
		b   metrics.Backend
		err error
	)
	switch cfg.MetricsBackend {
	case "pushgateway":
		b, err = prompush.NewBackend(pipeline.Job, cfg.PushgatewayURL)
	case "datadog":
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       cfg.StatsdAddr,
			GlobalTags: []string{"service:vendorsummary"},
		})
	default:
		log.Debugf("metrics: disabled (backend=%q)", cfg.MetricsBackend)
		return func() {}
	}
	if err != nil {
		log.Warnf("metrics: failed to init %s backend: %v; using nop", cfg.MetricsBackend, err)
		return func() {}
	}

	log.Infof("metrics: backend=%s job=%s", cfg.MetricsBackend, pipeline.Job)
	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Warnf("metrics: flush error: %v", err)
		}
	}
}

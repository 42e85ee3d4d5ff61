package datadog

import (
	"github.com/DataDog/datadog-go/statsd"
	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/senseo-controller/internal/config"
	"github.com/thatsimonsguy/senseo-controller/internal/model"
)

const (
	MetricPoweredOn          = "machine.powered_on"
	MetricReady              = "machine.ready"
	MetricBrew               = "machine.brew"
	MetricPowerPress         = "machine.power_press"
	MetricPreconditionFailed = "machine.precondition_failed"
)

// Client is the subset of statsd.ClientInterface used here.
type Client interface {
	Gauge(name string, value float64, tags []string, rate float64) error
	Incr(name string, tags []string, rate float64) error
	Close() error
}

var dogstatsd Client

func InitMetrics(cfg *config.Config) {
	if !cfg.EnableDatadog {
		log.Debug().Msg("Datadog metrics disabled")
		return
	}

	client, err := statsd.New(cfg.DDAgentAddr)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create DogStatsD client")
		return
	}

	client.Namespace = cfg.DDNamespace
	client.Tags = cfg.DDTags
	dogstatsd = client

	log.Info().
		Str("addr", cfg.DDAgentAddr).
		Str("namespace", cfg.DDNamespace).
		Strs("tags", cfg.DDTags).
		Msg("Datadog metrics initialized")
}

// SetClient swaps the package client, returning a func that restores the previous one.
func SetClient(c Client) func() {
	prev := dogstatsd
	dogstatsd = c
	return func() {
		dogstatsd = prev
	}
}

func Close() {
	if dogstatsd != nil {
		dogstatsd.Close()
		dogstatsd = nil
	}
}

func Gauge(name string, value float64, tags ...string) {
	if dogstatsd != nil {
		err := dogstatsd.Gauge(name, value, tags, 1)
		if err != nil {
			log.Warn().Err(err).Str("metric", name).Msg("Failed to emit gauge metric")
		}
	}
}

func Incr(name string, tags ...string) {
	if dogstatsd != nil {
		err := dogstatsd.Incr(name, tags, 1)
		if err != nil {
			log.Warn().Err(err).Str("metric", name).Msg("Failed to emit count metric")
		}
	}
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// ReportStatus emits the machine state gauges.
func ReportStatus(st model.Status) {
	Gauge(MetricPoweredOn, boolGauge(st.PoweredOn))
	Gauge(MetricReady, boolGauge(st.Ready))
}

// ABOUTME: Prometheus metrics for the AAC decode stage
// ABOUTME: Counts units, emitted buffers, seeks and silence substitutions
package aacdec

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	startedStages = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "soundstage_aacdec_started_stages",
		Help: "Number of AAC decode stages currently started",
	})
	unitsPulled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "soundstage_aacdec_units_pulled_total",
		Help: "Compressed access units pulled from upstream sources",
	})
	buffersEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "soundstage_aacdec_buffers_emitted_total",
		Help: "Decoded PCM buffers handed downstream",
	})
	decodeErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "soundstage_aacdec_decode_errors_total",
		Help: "Decode failures substituted with silence",
	})
	seeksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "soundstage_aacdec_seeks_total",
		Help: "Seek requests observed by the decode stage",
	})
)

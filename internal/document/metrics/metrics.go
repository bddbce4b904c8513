// Package metrics instruments third-party API calls. Each pipeline stage
// increments one named counter exactly once per attempt, so the counter
// sequence doubles as a trace of how far an attempt got.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Probe records a single counter increment. Services call it at each stage in
// call order; tests assert the ordering, not just the final counts.
type Probe interface {
	CounterMetric(name string)
}

// Endpoint metric suffixes. Concrete names are built with an endpoint prefix,
// e.g. "dcs_request_created" or "dvad_graphql_response_type_unexpected_http_status".
const (
	RequestCreated   = "request_created"
	RequestSendOK    = "request_send_ok"
	RequestSendError = "request_send_error"

	ResponseTypeValid            = "response_type_valid"
	ResponseTypeInvalid          = "response_type_invalid"
	ResponseTypeError            = "response_type_error"
	ResponseTypeExpectedStatus   = "response_type_expected_http_status"
	ResponseTypeUnexpectedStatus = "response_type_unexpected_http_status"
)

// Name builds the full counter name for an endpoint stage.
func Name(endpointPrefix, suffix string) string {
	return endpointPrefix + "_" + suffix
}

// PrometheusProbe maps probe counter names onto a single labelled CounterVec.
type PrometheusProbe struct {
	events *prometheus.CounterVec
}

// NewPrometheusProbe registers the third-party event counter on the default
// registerer.
func NewPrometheusProbe() *PrometheusProbe {
	return &PrometheusProbe{
		events: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "passport_cri_third_party_api_events_total",
			Help: "Per-stage events for third-party document check API calls",
		}, []string{"event"}),
	}
}

// NewPrometheusProbeWith registers on a caller-supplied registerer, for tests
// that need an isolated registry.
func NewPrometheusProbeWith(reg prometheus.Registerer) *PrometheusProbe {
	return &PrometheusProbe{
		events: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "passport_cri_third_party_api_events_total",
			Help: "Per-stage events for third-party document check API calls",
		}, []string{"event"}),
	}
}

func (p *PrometheusProbe) CounterMetric(name string) {
	p.events.WithLabelValues(name).Inc()
}

var _ Probe = (*PrometheusProbe)(nil)

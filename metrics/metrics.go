// Package metrics exposes the Prometheus counters and histogram the
// spec already mandates in prose (the loop_detected counter, per-failure
// counters). Core code only increments these; mounting promhttp.Handler
// on an HTTP endpoint is an external concern (spec.md excludes HTTP
// status endpoints from scope).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"vanet-relay/wire"
)

var (
	// LoopDetected counts HeartbeatReply frames dropped because forwarding
	// them would bounce back to the node that already forwarded the
	// original heartbeat (spec.md §4.3, P6).
	LoopDetected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vanet_loop_detected_total",
		Help: "HeartbeatReply frames dropped due to loop detection.",
	})

	// RouteDiscovered counts heartbeat insertions that changed a node's
	// best next-hop toward a given origin.
	RouteDiscovered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vanet_route_discovered_total",
		Help: "Heartbeat insertions that changed the best next-hop for an origin.",
	}, []string{"origin"})

	// DecryptFailure counts AEAD authentication failures on ingress.
	DecryptFailure = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vanet_decrypt_failure_total",
		Help: "Data frame payloads that failed AEAD authentication.",
	})

	// UpstreamSendFailure counts Upstream frames an OBU drops: no cached
	// route, no failover candidate, a failed send after the failover
	// retry (local traffic), or a failed send of a relayed frame.
	UpstreamSendFailure = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vanet_upstream_send_failure_total",
		Help: "OBU upstream frames dropped for lack of a route or after a failed send.",
	})

	// ChannelDroppedByLoss counts simulator frames dropped by the
	// configured loss probability.
	ChannelDroppedByLoss = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vanet_channel_dropped_total",
		Help: "Simulated channel frames dropped by configured loss probability.",
	}, []string{"channel"})

	// ChannelDeliveryLatency observes the scheduled delay (latency +
	// jitter sample) applied by the channel simulator before delivery.
	ChannelDeliveryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vanet_channel_delivery_latency_seconds",
		Help:    "Scheduled delivery delay applied by the channel simulator.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16),
	}, []string{"channel"})
)

// ChannelKey builds the label value used for per-channel metrics: the
// directed (sender, receiver) pair.
func ChannelKey(sender, receiver wire.MacAddress) string {
	return sender.String() + "->" + receiver.String()
}

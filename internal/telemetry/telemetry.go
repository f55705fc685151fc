// Package telemetry registers the channel's packet counters as
// Prometheus instruments, guarding registration with a sync.Once so
// repeated calls from multiple channels are safe.
package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	packetsReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vlink",
			Name:      "packets_received_total",
			Help:      "Datagrams received on a channel.",
		},
		[]string{"role"},
	)
	packetsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vlink",
			Name:      "packets_sent_total",
			Help:      "Datagrams sent on a channel.",
		},
		[]string{"role"},
	)
	packetsExpired = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vlink",
			Name:      "packets_expired_total",
			Help:      "Received samples discarded for exceeding max_age.",
		},
		[]string{"role"},
	)
	packetsCorrupted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vlink",
			Name:      "packets_corrupted_total",
			Help:      "Datagrams dropped for a CRC mismatch.",
		},
		[]string{"role"},
	)
	packetsShapeInvalid = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vlink",
			Name:      "packets_shape_invalid_total",
			Help:      "Datagrams dropped for an unexpected length.",
		},
		[]string{"role"},
	)
)

// Register installs the counters into the default registry. Safe to call
// from multiple channels; registration happens once per process.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			packetsReceived,
			packetsSent,
			packetsExpired,
			packetsCorrupted,
			packetsShapeInvalid,
		)
	})
}

// Recorder records one channel's counters under a fixed role label
// ("server" or "client"), so dashboards can distinguish the two ends of
// a session running in the same process.
type Recorder struct {
	role string
}

// NewRecorder returns a Recorder for the given role. Register must have
// been called first (or will be called here) for the counters to exist.
func NewRecorder(role string) *Recorder {
	Register()
	return &Recorder{role: role}
}

func (r *Recorder) Received()     { packetsReceived.WithLabelValues(r.role).Inc() }
func (r *Recorder) Sent()         { packetsSent.WithLabelValues(r.role).Inc() }
func (r *Recorder) Expired()      { packetsExpired.WithLabelValues(r.role).Inc() }
func (r *Recorder) Corrupted()    { packetsCorrupted.WithLabelValues(r.role).Inc() }
func (r *Recorder) ShapeInvalid() { packetsShapeInvalid.WithLabelValues(r.role).Inc() }

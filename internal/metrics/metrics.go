// Package metrics records OAuth2 engine operations as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/andyleap/fitauth/internal/oauth"
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder implements oauth.Observer.
type Recorder struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var _ oauth.Observer = (*Recorder)(nil)

func NewRecorder() *Recorder {
	return &Recorder{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oauth_client_requests_total",
			Help: "OAuth2 client operations by outcome",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "oauth_client_request_duration_seconds",
			Help:    "Duration of OAuth2 client operations",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"operation"}),
	}
}

// Register registers the collectors on reg (or the default registerer if nil).
func (r *Recorder) Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{r.requests, r.duration} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}

func (r *Recorder) Observe(operation string, duration time.Duration, err error) {
	r.requests.WithLabelValues(operation, oauth.Outcome(err)).Inc()
	r.duration.WithLabelValues(operation).Observe(duration.Seconds())
}

// WriteTextfile dumps everything gathered by g in the node_exporter textfile format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return prometheus.WriteToTextfile(path, g)
}

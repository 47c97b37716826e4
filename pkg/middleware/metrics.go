package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ajitpratap0/lsp-sdk-go/pkg/protocol"
)

// Metrics records message counts and request handling latency with
// Prometheus. Latency is measured from the arrival of an inbound request to
// the moment its response is handed to the write path.
type Metrics struct {
	incoming   *prometheus.CounterVec
	outgoing   *prometheus.CounterVec
	inFlight   prometheus.Gauge
	duration   *prometheus.HistogramVec
	errorCodes *prometheus.CounterVec

	mu     sync.Mutex
	starts map[protocol.ID]requestStart
}

type requestStart struct {
	method string
	at     time.Time
}

// NewMetrics creates a metrics middleware and registers its collectors with
// reg. A nil registerer uses the default Prometheus registry.
func NewMetrics(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		incoming: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Messages received, by kind.",
		}, []string{"kind"}),
		outgoing: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Messages sent, by kind.",
		}, []string{"kind"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "requests_in_flight",
			Help:      "Inbound requests currently being handled.",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Inbound request handling latency, by method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		errorCodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "error_responses_total",
			Help:      "Error responses sent, by code.",
		}, []string{"code"}),
		starts: make(map[protocol.ID]requestStart),
	}

	for _, c := range []prometheus.Collector{m.incoming, m.outgoing, m.inFlight, m.duration, m.errorCodes} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// OnIncomingMessage implements Middleware.
func (m *Metrics) OnIncomingMessage(msg protocol.Message) {
	switch v := msg.(type) {
	case *protocol.Request:
		m.incoming.WithLabelValues("request").Inc()
		m.inFlight.Inc()
		m.mu.Lock()
		m.starts[v.ID] = requestStart{method: v.Method, at: time.Now()}
		m.mu.Unlock()
	case *protocol.Notification:
		m.incoming.WithLabelValues("notification").Inc()
	case *protocol.Response:
		m.incoming.WithLabelValues("response").Inc()
	}
}

// OnOutgoingRequest implements Middleware.
func (m *Metrics) OnOutgoingRequest(*protocol.Request) {
	m.outgoing.WithLabelValues("request").Inc()
}

// OnOutgoingNotification implements Middleware.
func (m *Metrics) OnOutgoingNotification(*protocol.Notification) {
	m.outgoing.WithLabelValues("notification").Inc()
}

// OnOutgoingResponse implements Middleware.
func (m *Metrics) OnOutgoingResponse(req *protocol.Request, resp *protocol.Response) {
	m.outgoing.WithLabelValues("response").Inc()
	m.inFlight.Dec()

	m.mu.Lock()
	start, ok := m.starts[req.ID]
	if ok {
		delete(m.starts, req.ID)
	}
	m.mu.Unlock()
	if ok {
		m.duration.WithLabelValues(start.method).Observe(time.Since(start.at).Seconds())
	}

	if resp.Error != nil {
		m.errorCodes.WithLabelValues(strconv.Itoa(int(resp.Error.Code))).Inc()
	}
}

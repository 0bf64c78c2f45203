package metrics

import (
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/entity"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/event"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type Metrics struct {
	registry *prometheus.Registry

	listings      prometheus.Counter
	sales         prometheus.Counter
	cancellations prometheus.Counter
	rejections    *prometheus.CounterVec
	volume        prometheus.Counter
	fees          prometheus.Counter

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		listings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nft_exchange",
			Subsystem: "listings",
			Name:      "created_total",
			Help:      "Total number of listings created.",
		}),
		sales: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nft_exchange",
			Subsystem: "listings",
			Name:      "sold_total",
			Help:      "Total number of listings sold.",
		}),
		cancellations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nft_exchange",
			Subsystem: "listings",
			Name:      "cancelled_total",
			Help:      "Total number of listings cancelled.",
		}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nft_exchange",
			Subsystem: "operations",
			Name:      "rejected_total",
			Help:      "Total number of rejected operations by error code.",
		}, []string{"operation", "code"}),
		volume: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nft_exchange",
			Subsystem: "settlement",
			Name:      "volume_units_total",
			Help:      "Value token units paid by buyers.",
		}),
		fees: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nft_exchange",
			Subsystem: "settlement",
			Name:      "fee_units_total",
			Help:      "Value token units paid to the platform admin.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nft_exchange",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "nft_exchange",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		}, []string{"method", "path"}),
	}

	m.registry.MustRegister(
		m.listings,
		m.sales,
		m.cancellations,
		m.rejections,
		m.volume,
		m.fees,
		m.httpRequests,
		m.httpDuration,
	)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Listen counts committed listings, sales and cancellations.
func (m *Metrics) Listen(events *event.Manager) {
	events.Subscribe(func(eventType event.Type, msg interface{}) {
		switch eventType {
		case event.ListingCreatedEvent:
			m.listings.Inc()
		case event.ListingCancelledEvent:
			m.cancellations.Inc()
		case event.ListingSoldEvent:
			m.sales.Inc()
			if sale, ok := msg.(entity.Sale); ok {
				m.volume.Add(units(sale.Price))
				m.fees.Add(units(sale.PlatformFee))
			}
		}
	}, event.ListingCreatedEvent, event.ListingSoldEvent, event.ListingCancelledEvent)
}

func (m *Metrics) RecordRejection(operation, code string) {
	m.rejections.WithLabelValues(operation, code).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// InstrumentHandler is mux middleware labelling requests by route template.
func (m *Metrics) InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				path = tpl
			}
		}
		method := strings.ToUpper(r.Method)

		m.httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		m.httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func units(amount *big.Int) float64 {
	if amount == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(amount).Float64()

	return f
}

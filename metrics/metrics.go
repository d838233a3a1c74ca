package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	OrdersCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tutoring", Name: "orders_created_total", Help: "Orders created by students",
	})
	OrderTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tutoring", Name: "order_transitions_total", Help: "Committed order status changes",
	}, []string{"from", "to"})
	OrderErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tutoring", Name: "order_errors_total", Help: "Order operations rejected or failed, by error code",
	}, []string{"code"})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "tutoring", Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(OrdersCreated, OrderTransitions, OrderErrors, DBPing)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }

func ObserveTransition(from, to string) { OrderTransitions.WithLabelValues(from, to).Inc() }

func ObserveError(code string) { OrderErrors.WithLabelValues(code).Inc() }

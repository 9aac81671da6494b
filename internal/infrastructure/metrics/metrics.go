package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg              *prometheus.Registry
	OrdersCreated    prometheus.Counter
	OrdersEdited     prometheus.Counter
	OrdersDelivered  prometheus.Counter
	OrdersDeleted    prometheus.Counter
	StockRejections  prometheus.Counter
	DeadlockRetries  prometheus.Counter
	EventPublishErrs prometheus.Counter
	TxLatencySec     *prometheus.HistogramVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	created := prometheus.NewCounter(prometheus.CounterOpts{Name: "mostrador_orders_created_total"})
	edited := prometheus.NewCounter(prometheus.CounterOpts{Name: "mostrador_orders_edited_total"})
	delivered := prometheus.NewCounter(prometheus.CounterOpts{Name: "mostrador_orders_delivered_total"})
	deleted := prometheus.NewCounter(prometheus.CounterOpts{Name: "mostrador_orders_deleted_total"})
	rejections := prometheus.NewCounter(prometheus.CounterOpts{Name: "mostrador_stock_rejections_total"})
	retries := prometheus.NewCounter(prometheus.CounterOpts{Name: "mostrador_tx_deadlock_retries_total"})
	publishErrs := prometheus.NewCounter(prometheus.CounterOpts{Name: "mostrador_event_publish_errors_total"})
	txLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mostrador_order_tx_latency_seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	r.MustRegister(
		created, edited, delivered, deleted, rejections, retries, publishErrs, txLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Registry{
		reg:              r,
		OrdersCreated:    created,
		OrdersEdited:     edited,
		OrdersDelivered:  delivered,
		OrdersDeleted:    deleted,
		StockRejections:  rejections,
		DeadlockRetries:  retries,
		EventPublishErrs: publishErrs,
		TxLatencySec:     txLatency,
	}
}

// ObserveTx records how long a workflow transaction took, including retries.
func (r *Registry) ObserveTx(operation string, started time.Time) {
	r.TxLatencySec.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

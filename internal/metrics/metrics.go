package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	OrdersPlaced       *prometheus.CounterVec
	BestEffortFailures *prometheus.CounterVec
	WalletRefunds      prometheus.Counter
}

func New(service string) *Metrics {
	placed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: service,
		Name:      "orders_placed_total",
		Help:      "Total number of placed orders.",
	}, []string{"method", "outcome"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: service,
		Name:      "best_effort_failures_total",
		Help:      "Failed best-effort collaborator calls.",
	}, []string{"operation"})
	refunds := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: service,
		Name:      "wallet_refunds_total",
		Help:      "Wallet refunds issued on cancellation or return.",
	})

	prometheus.MustRegister(placed, failures, refunds)
	return &Metrics{OrdersPlaced: placed, BestEffortFailures: failures, WalletRefunds: refunds}
}

func Handler() http.Handler {
	return promhttp.Handler()
}

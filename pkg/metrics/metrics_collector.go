package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 交易核心指标
// consume_conflicts 用于观察"同一议价被并发下单"的竞争频率
var (
	NegotiationCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "shmarket",
		Name:      "negotiations_created_total",
		Help:      "Total negotiations created",
	})

	NegotiationReviewed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shmarket",
		Name:      "negotiations_reviewed_total",
		Help:      "Total negotiations reviewed, by result",
	}, []string{"result"}) // approved / rejected / expired / cancelled

	NegotiationConsumeConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "shmarket",
		Name:      "negotiation_consume_conflicts_total",
		Help:      "Order creation attempts that lost the race for an approved negotiation",
	})

	OrderCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shmarket",
		Name:      "orders_created_total",
		Help:      "Total orders created, by payment method",
	}, []string{"payment_method"})

	OrderTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shmarket",
		Name:      "order_status_transitions_total",
		Help:      "Total order status transitions, by target status",
	}, []string{"to_status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "shmarket",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

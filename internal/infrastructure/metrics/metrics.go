// Package metrics define y registra las métricas Prometheus del servicio.
// Es la única fuente de nombres, labels y textos de ayuda.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dealflow"

// StoreOperationsTotal cuenta operaciones del User Store.
// Labels:
//   - op: nombre de la operación (save, find_by_id, ...)
//   - result: ok, not_found, conflict, invalid, error
var StoreOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "user_store",
		Name:      "operations_total",
		Help:      "Total de operaciones sobre el User Store por resultado.",
	},
	[]string{"op", "result"},
)

// StoreOperationDuration mide la latencia de cada operación del store.
var StoreOperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "user_store",
		Name:      "operation_duration_seconds",
		Help:      "Duración de las operaciones del User Store.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"op"},
)

// HTTPRequestsTotal cuenta peticiones HTTP por ruta y código.
var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total de peticiones HTTP atendidas.",
	},
	[]string{"method", "route", "status"},
)

// HTTPRequestDuration mide la latencia de las peticiones HTTP.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duración de las peticiones HTTP.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)

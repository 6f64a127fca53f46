// Package metrics holds the Prometheus collectors for the library service.
//
// Collectors are registered on the default registry at init, so the
// /metrics handler returned by Handler exposes them without extra wiring.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "elibrary"

// ResultOK is the result label for a successful operation.
const ResultOK = "ok"

var (
	// loanOperations counts loan lifecycle calls.
	// Labels: operation (create, renew, return, delete), result (ok or an error reason)
	loanOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "loans",
		Name:      "operations_total",
		Help:      "Loan lifecycle operations by result",
	}, []string{"operation", "result"})

	// loanOperationDuration measures how long each loan operation took,
	// including busy retries.
	loanOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "loans",
		Name:      "operation_duration_seconds",
		Help:      "Loan lifecycle operation latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"operation"})

	// overdueLoans is the size of the last overdue scan.
	overdueLoans = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "loans",
		Name:      "overdue",
		Help:      "Active loans past due at the last overdue scan",
	})

	// authAttempts counts logins and registrations.
	// Labels: action (login, register, token), result
	authAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "attempts_total",
		Help:      "Authentication attempts by action and result",
	}, []string{"action", "result"})

	// tasksProcessed counts background task runs.
	// Labels: task (queue name), result (ok, error)
	tasksProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tasks",
		Name:      "processed_total",
		Help:      "Background tasks processed by queue and result",
	}, []string{"task", "result"})
)

// ObserveLoanOperation records one loan operation that started at start.
// An empty result is recorded as ResultOK.
func ObserveLoanOperation(operation, result string, start time.Time) {
	if result == "" {
		result = ResultOK
	}
	loanOperations.WithLabelValues(operation, result).Inc()
	loanOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// SetOverdueLoans publishes the overdue count from the latest scan.
func SetOverdueLoans(n int) {
	overdueLoans.Set(float64(n))
}

// ObserveAuth records an authentication attempt.
func ObserveAuth(action string, ok bool) {
	authAttempts.WithLabelValues(action, okLabel(ok)).Inc()
}

// ObserveTask records a processed background task.
func ObserveTask(task string, err error) {
	tasksProcessed.WithLabelValues(task, okLabel(err == nil)).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func okLabel(ok bool) string {
	if ok {
		return ResultOK
	}
	return "error"
}

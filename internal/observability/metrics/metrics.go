package metrics

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type Outcome string

const (
	Success                  Outcome       = "success"
	Error                    Outcome       = "error"
	MetricRequestTimeout     time.Duration = 5 * time.Second
	MetricRequestIdleTimeout time.Duration = 10 * time.Second
)

func (O Outcome) String() string {
	return string(O)
}

func outcome(failure bool) Outcome {
	if failure {
		return Error
	}
	return Success
}

var defaultHistogramBucketsSeconds = []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30}

// Collectors are created eagerly so recording never depends on Init having
// run; Init only registers them and exposes the endpoint.
var (
	once          sync.Once
	metricsRouter *chi.Mux

	// client requests are the ones sending to other service
	clientRequestDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "client_request_duration_seconds",
			Help:    "Histogram of outgoing client request durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"baseurl", "method", "path", "status"},
	)

	// add a counter for the number of errors from the fail to push message into queue
	queueSendErrorCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "queue_send_error_count",
			Help: "The total number of errors when sending messages to the queue",
		},
	)

	pollerDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "poller_duration_seconds",
			Help:    "Histogram of poller durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"type", "status"},
	)

	loanOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "loan_operation_duration_seconds",
			Help:    "Loan operation processing duration in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"operation", "status"},
	)

	transferLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "token_transfer_latency_seconds",
			Help:    "Histogram of token transfer durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"purpose", "status"},
	)

	metadataPushFailureCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "metadata_push_failure_count",
			Help: "Number of visual tier updates that could not be delivered",
		},
	)

	loansCreatedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "loans_created_count",
			Help: "Number of loans created",
		},
	)

	loanVolumeCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "loan_volume_total",
			Help: "Sum of principal of created loans in the smallest currency unit",
		},
	)

	amountRepaidCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_amount_repaid_total",
			Help: "Amount applied to loans in the smallest currency unit, split by source",
		},
		[]string{"source"},
	)

	dbLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "db_latency_seconds",
			Help: "DB latency in seconds splitted by method and execution status",
		},
		[]string{"method", "status"},
	)
)

// Init initializes the metrics package.
func Init(metricsPort int) {
	once.Do(func() {
		initMetricsRouter(metricsPort)
		registerMetrics()
	})
}

// initMetricsRouter initializes the metrics router.
func initMetricsRouter(metricsPort int) {
	metricsRouter = chi.NewRouter()
	metricsRouter.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})
	// Create a custom server with timeout settings
	metricsAddr := fmt.Sprintf(":%d", metricsPort)
	server := &http.Server{
		Addr:         metricsAddr,
		Handler:      metricsRouter,
		ReadTimeout:  MetricRequestTimeout,
		WriteTimeout: MetricRequestTimeout,
		IdleTimeout:  MetricRequestIdleTimeout,
	}

	// Start the server in a separate goroutine
	go func() {
		log.Printf("Starting metrics server on %s", metricsAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msgf("Error starting metrics server on %s", metricsAddr)
		}
	}()
}

// registerMetrics registers the Prometheus metrics.
func registerMetrics() {
	prometheus.MustRegister(
		clientRequestDurationHistogram,
		queueSendErrorCounter,
		pollerDurationHistogram,
		loanOperationDuration,
		transferLatency,
		metadataPushFailureCounter,
		loansCreatedCounter,
		loanVolumeCounter,
		amountRepaidCounter,
		dbLatency,
	)
}

func RecordDbLatency(d time.Duration, method string, failure bool) {
	dbLatency.WithLabelValues(method, outcome(failure).String()).Observe(d.Seconds())
}

func RecordTransferLatency(d time.Duration, purpose string, failure bool) {
	transferLatency.WithLabelValues(purpose, outcome(failure).String()).Observe(d.Seconds())
}

// StartLoanOperationTimer starts a timer for a loan operation. The returned
// function records the duration with the outcome of the operation.
func StartLoanOperationTimer(operation string) func(failure bool) {
	startTime := time.Now()
	return func(failure bool) {
		loanOperationDuration.WithLabelValues(operation, outcome(failure).String()).
			Observe(time.Since(startTime).Seconds())
	}
}

func RecordLoanCreated(principal uint64) {
	loansCreatedCounter.Inc()
	loanVolumeCounter.Add(float64(principal))
}

func RecordAmountRepaid(source string, amount uint64) {
	amountRepaidCounter.WithLabelValues(source).Add(float64(amount))
}

func IncMetadataPushFailures() {
	metadataPushFailureCounter.Inc()
}

// StartClientRequestDurationTimer starts a timer to measure outgoing client request duration.
func StartClientRequestDurationTimer(baseUrl, method, path string) func(statusCode int) {
	startTime := time.Now()
	return func(statusCode int) {
		duration := time.Since(startTime).Seconds()
		clientRequestDurationHistogram.WithLabelValues(
			baseUrl,
			method,
			path,
			fmt.Sprintf("%d", statusCode),
		).Observe(duration)
	}
}

func RecordQueueSendError() {
	queueSendErrorCounter.Inc()
}

package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "commute_alarm_"

// Label values shared by callers.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultTimeout = "timeout"
	ResultSkipped = "skipped"
)

//nolint:gochecknoglobals // Collectors are process-wide by nature.
var (
	registerOnce sync.Once

	feedRequests  *prometheus.CounterVec
	feedRetries   *prometheus.CounterVec
	syncResults   *prometheus.CounterVec
	dispatches    *prometheus.CounterVec
	schedules     *prometheus.CounterVec
	registrations prometheus.Gauge
	notifications *prometheus.CounterVec
)

// Init creates and registers every collector with the default registry.
// Calling it more than once is a no-op.
func Init() {
	registerOnce.Do(func() {
		feedRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "feed_requests_total",
				Help: "Total feed HTTP attempts by status code",
			},
			[]string{"code"},
		)
		feedRetries = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "feed_retries_total",
				Help: "Total feed retries by the status code that caused them",
			},
			[]string{"code"},
		)
		syncResults = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "sync_results_total",
				Help: "Total line status results emitted by kind",
			},
			[]string{"kind"},
		)
		dispatches = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "dispatch_total",
				Help: "Total alarm triggers handled by outcome",
			},
			[]string{"outcome"},
		)
		schedules = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "schedule_total",
				Help: "Total schedule attempts by mode",
			},
			[]string{"mode"},
		)
		registrations = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "timer_registrations",
				Help: "Live timer registrations",
			},
		)
		notifications = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "notifications_total",
				Help: "Total notifications presented by presenter and result",
			},
			[]string{"presenter", "result"},
		)

		prometheus.MustRegister(
			feedRequests,
			feedRetries,
			syncResults,
			dispatches,
			schedules,
			registrations,
			notifications,
		)
	})
}

// IncFeedRequest counts one feed HTTP attempt. Code 0 means a transport error.
func IncFeedRequest(code int) {
	if feedRequests != nil {
		feedRequests.WithLabelValues(codeLabel(code)).Inc()
	}
}

// IncFeedRetry counts one retry caused by code.
func IncFeedRetry(code int) {
	if feedRetries != nil {
		feedRetries.WithLabelValues(codeLabel(code)).Inc()
	}
}

// IncSyncResult counts one emitted line status result.
func IncSyncResult(kind string) {
	if syncResults != nil {
		syncResults.WithLabelValues(kind).Inc()
	}
}

// IncDispatch counts one handled trigger.
func IncDispatch(outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}

	if dispatches != nil {
		dispatches.WithLabelValues(outcome).Inc()
	}
}

// IncSchedule counts one schedule attempt; mode is exact, inexact or failed.
func IncSchedule(mode string) {
	if schedules != nil {
		schedules.WithLabelValues(mode).Inc()
	}
}

// SetRegistrations sets the live timer registration gauge.
func SetRegistrations(n int) {
	if registrations != nil {
		registrations.Set(float64(n))
	}
}

// IncNotification counts one presented notification.
func IncNotification(presenter, result string) {
	if notifications != nil {
		notifications.WithLabelValues(presenter, result).Inc()
	}
}

func codeLabel(code int) string {
	if code == 0 {
		return "transport"
	}

	return strconv.Itoa(code)
}

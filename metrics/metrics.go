package metrics

import (
	"regexp"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ethereum-optimism/infra/script-acceptor/types"
)

const Namespace = "sat"

// Debug enables metric recording logs. Useful when wiring up a new
// dashboard against a local run.
var Debug bool

var (
	errorTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "errors_total",
		Help:      "Count of errors encountered by the harness",
	}, []string{
		"error",
	})

	testsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "tests_total",
		Help:      "Count of executed test cases by result",
	}, []string{
		"run_id",
		"module",
		"test",
		"result",
	})

	runResults = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "run_results",
		Help:      "Test counts for the most recent run, labeled by result",
	}, []string{
		"run_id",
		"result",
	})

	runDurationSeconds = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "run_duration_seconds",
		Help:      "Wall clock duration of the most recent run",
	}, []string{
		"run_id",
	})
)

// RecordError increments the error counter for the given error type.
func RecordError(errType string) {
	if Debug {
		log.Debug("Recording error metric", "error", errType)
	}
	errorTotal.WithLabelValues(errType).Inc()
}

// RecordErrorDetails records an error with a label derived from the error
// value itself.
func RecordErrorDetails(errType string, err error) {
	if err == nil {
		return
	}
	RecordError(errType + "_" + errToLabel(err))
}

// RecordCase records the outcome of a single test case.
func RecordCase(runID, module, test string, status types.TestStatus) {
	if Debug {
		log.Debug("Recording test case metric",
			"run_id", runID,
			"module", module,
			"test", test,
			"result", status)
	}
	testsTotal.WithLabelValues(runID, module, test, string(status)).Inc()
}

// RecordRun records the aggregate outcome of a full run.
func RecordRun(runID string, total, passed, failed, skipped int, duration time.Duration) {
	if Debug {
		log.Debug("Recording run metrics",
			"run_id", runID,
			"total", total,
			"passed", passed,
			"failed", failed,
			"skipped", skipped,
			"duration", duration)
	}
	runResults.WithLabelValues(runID, "total").Set(float64(total))
	runResults.WithLabelValues(runID, string(types.TestStatusPass)).Set(float64(passed))
	runResults.WithLabelValues(runID, string(types.TestStatusFail)).Set(float64(failed))
	runResults.WithLabelValues(runID, string(types.TestStatusSkip)).Set(float64(skipped))
	runDurationSeconds.WithLabelValues(runID).Set(duration.Seconds())
}

var nonAlphanumericRegex = regexp.MustCompile(`[^a-zA-Z ]+`)

// errToLabel converts an error into a string usable as a Prometheus label
// value.
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ToLower(errClean)
	if len(errClean) > 60 {
		errClean = errClean[:60]
	}
	if errClean == "" {
		errClean = "unknown"
	}
	return errClean
}

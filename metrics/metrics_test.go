package metrics

import (
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/ethereum-optimism/infra/script-acceptor/types"
)

func TestErrToLabel(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{
			name: "nil error",
			err:  nil,
		},
		{
			name: "simple error",
			err:  errors.New("test error"),
		},
		{
			name: "error with special chars",
			err:  errors.New("exit status 1: ./store.nu:14"),
		},
		{
			name: "long error is truncated",
			err:  errors.New(strings.Repeat("long failure detail ", 20)),
		},
	}

	validLabelRegex := regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := errToLabel(tt.err)
			if !validLabelRegex.MatchString(result) {
				t.Errorf("errToLabel() = %v, is not a valid Prometheus label", result)
			}
			if len(result) > 60 {
				t.Errorf("errToLabel() = %v, exceeds the label length cap", result)
			}
		})
	}
}

func TestRecordError(t *testing.T) {
	// just test that it doesn't panic
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("RecordError panic'd")
		}
	}()

	RecordError("discovery_failure")
}

func TestRecordErrorDetails(t *testing.T) {
	RecordErrorDetails("setup", nil)
	RecordErrorDetails("setup", errors.New("before-all exited with code 1"))
}

func TestRecordCase(t *testing.T) {
	statuses := []types.TestStatus{
		types.TestStatusPass,
		types.TestStatusFail,
		types.TestStatusSkip,
	}
	for _, status := range statuses {
		RecordCase("run-1", "store", "insert works", status)
	}
}

func TestRecordRun(t *testing.T) {
	RecordRun("run-1", 10, 7, 2, 1, 42*time.Second)
}

package runner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpawner_CapturesOutput(t *testing.T) {
	s := NewSpawner(nil)

	res, err := s.Run(context.Background(), "sh", "-c", "echo out; echo err >&2")
	require.NoError(t, err)

	assert.Equal(t, 0, res.ExitCode)
	assert.True(t, res.Passed())
	assert.Equal(t, "out\n", res.Stdout)
	assert.Equal(t, "err\n", res.Stderr)
	assert.False(t, res.TimedOut)
	assert.Greater(t, res.Duration, time.Duration(0))
}

func TestSpawner_NonzeroExitIsNotAnError(t *testing.T) {
	s := NewSpawner(nil)

	res, err := s.Run(context.Background(), "sh", "-c", "exit 3")
	require.NoError(t, err)

	assert.Equal(t, 3, res.ExitCode)
	assert.False(t, res.Passed())
	assert.False(t, res.TimedOut)
}

func TestSpawner_MissingBinary(t *testing.T) {
	s := NewSpawner(nil)

	_, err := s.Run(context.Background(), "definitely-not-a-binary-4631")
	require.Error(t, err)
}

func TestSpawner_DeadlineKillsAndFlagsTimeout(t *testing.T) {
	s := NewSpawner(nil)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	res, err := s.Run(ctx, "sh", "-c", "sleep 30")
	require.NoError(t, err)

	assert.True(t, res.TimedOut)
	assert.False(t, res.Passed())
	assert.NotEqual(t, 0, res.ExitCode)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestSpawner_CancellationIsAnError(t *testing.T) {
	s := NewSpawner(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Run(ctx, "sh", "-c", "sleep 30")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

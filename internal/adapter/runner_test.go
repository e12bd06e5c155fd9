package adapter

import (
	"context"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecRunner(t *testing.T) {
	requireShell(t)
	ctx := context.Background()

	t.Run("returns lines without carriage returns", func(t *testing.T) {
		runner := NewExecRunner(5 * time.Second)
		lines, err := runner.Run(ctx, "sh", "-c", `printf 'one\r\ntwo\r\n\r\nthree'`)
		require.NoError(t, err)
		assert.Equal(t, []string{"one", "two", "", "three"}, lines)
	})

	t.Run("non-zero exit is an execution error", func(t *testing.T) {
		runner := NewExecRunner(5 * time.Second)
		_, err := runner.Run(ctx, "sh", "-c", "echo boom >&2; exit 3")
		require.ErrorIs(t, err, ErrExecution)
		assert.Contains(t, err.Error(), "boom")
	})

	t.Run("missing binary is an execution error", func(t *testing.T) {
		runner := NewExecRunner(0)
		_, err := runner.Run(ctx, "netdash-no-such-binary")
		assert.ErrorIs(t, err, ErrExecution)
	})

	t.Run("timeout bounds a hung command", func(t *testing.T) {
		runner := NewExecRunner(100 * time.Millisecond)
		start := time.Now()
		_, err := runner.Run(ctx, "sh", "-c", "sleep 5")
		assert.ErrorIs(t, err, ErrExecution)
		assert.Less(t, time.Since(start), 3*time.Second)
	})
}

func TestSplitLines(t *testing.T) {
	assert.Nil(t, SplitLines(nil))
	assert.Equal(t, []string{"a", "b"}, SplitLines([]byte("a\r\nb\n")))
}

func TestStaticRunner(t *testing.T) {
	runner := &StaticRunner{Outputs: map[string][]string{"arp": {"x"}}}

	lines, err := runner.Run(context.Background(), "arp", "-a")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, lines)

	_, err = runner.Run(context.Background(), "ipconfig")
	assert.ErrorIs(t, err, ErrExecution)
	assert.Equal(t, []string{"arp -a", "ipconfig"}, runner.Calls())
}

func TestStaticRunnerConcurrentCalls(t *testing.T) {
	runner := &StaticRunner{Outputs: map[string][]string{"arp": {"x"}}}

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = runner.Run(context.Background(), "arp", "-a")
		}()
	}
	wg.Wait()

	calls := runner.Calls()
	assert.Len(t, calls, 16)
	calls[0] = "mutated"
	assert.Equal(t, "arp -a", runner.Calls()[0])
}

package typing

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	signals atomic.Int32
	mu      sync.Mutex
	typing  bool
	err     error
	orgs    []string
}

func (f *fakeBackend) SignalTyping(context.Context, string) error {
	f.signals.Add(1)
	return f.err
}

func (f *fakeBackend) PollTyping(_ context.Context, _ string, orgID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orgs = append(f.orgs, orgID)
	return f.typing, f.err
}

func TestSignalThrottlesBurst(t *testing.T) {
	b := &fakeBackend{}
	s := NewSignaler(b, nil)
	dispatched := 0
	for i := 0; i < 50; i++ {
		if s.Signal(context.Background(), "job-1") {
			dispatched++
		}
	}
	s.Wait()
	require.Equal(t, 1, dispatched)
	require.EqualValues(t, 1, b.signals.Load())
}

func TestSignalAllowsAgainAfterInterval(t *testing.T) {
	b := &fakeBackend{}
	s := NewSignaler(b, nil)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.True(t, s.Signal(context.Background(), "job-1"))
	now = now.Add(time.Second)
	require.False(t, s.Signal(context.Background(), "job-1"))
	require.True(t, s.Signal(context.Background(), "job-2"))
	now = now.Add(SignalInterval)
	require.True(t, s.Signal(context.Background(), "job-1"))
	s.Wait()
	require.EqualValues(t, 3, b.signals.Load())
}

func TestSignalSwallowsErrors(t *testing.T) {
	b := &fakeBackend{err: errors.New("offline")}
	s := NewSignaler(b, nil)
	require.True(t, s.Signal(context.Background(), "job-1"))
	s.Wait()
	require.False(t, s.Signal(context.Background(), ""))
}

func TestPollTreatsErrorsAsNotTyping(t *testing.T) {
	b := &fakeBackend{typing: true, err: errors.New("offline")}
	p := NewPoller(b, nil)
	require.False(t, p.Poll(context.Background(), "job-1", ""))
	b.err = nil
	require.True(t, p.Poll(context.Background(), "job-1", "o1"))
}

func TestRunReplacesValueEachTick(t *testing.T) {
	b := &fakeBackend{typing: true}
	p := NewPoller(b, nil)
	p.interval = 5 * time.Millisecond

	var (
		mu   sync.Mutex
		seen []bool
	)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx, "job-1", func() string { return "o1" }, func(v bool) {
			mu.Lock()
			seen = append(seen, v)
			mu.Unlock()
		})
		close(done)
	}()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) >= 2
	}, time.Second, time.Millisecond)
	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	require.True(t, seen[0])
	b.mu.Lock()
	require.Equal(t, "o1", b.orgs[0])
	b.mu.Unlock()
}

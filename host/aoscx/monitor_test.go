package aoscx

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a-light-win/lldp-webhook/pkg/link"
	"github.com/a-light-win/lldp-webhook/pkg/metrics"
)

const testPollInterval = 5 * time.Second

type fakeClock interface {
	clockwork.Clock
	Advance(d time.Duration)
}

type fakeSource struct {
	mu     sync.Mutex
	states map[string]link.LinkState
	err    error
	polls  chan struct{}
}

func newFakeSource(states map[string]link.LinkState) *fakeSource {
	return &fakeSource{states: states, polls: make(chan struct{}, 16)}
}

func (s *fakeSource) LinkStates(ctx context.Context) (map[string]link.LinkState, error) {
	s.mu.Lock()
	defer func() {
		s.mu.Unlock()
		s.polls <- struct{}{}
	}()
	if s.err != nil {
		return nil, s.err
	}
	states := make(map[string]link.LinkState, len(s.states))
	for k, v := range s.states {
		states[k] = v
	}
	return states, nil
}

func (s *fakeSource) set(name string, state link.LinkState) {
	s.mu.Lock()
	s.states[name] = state
	s.mu.Unlock()
}

func (s *fakeSource) remove(name string) {
	s.mu.Lock()
	delete(s.states, name)
	s.mu.Unlock()
}

func (s *fakeSource) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func waitPoll(t *testing.T, s *fakeSource) {
	t.Helper()
	select {
	case <-s.polls:
	case <-time.After(5 * time.Second):
		t.Fatal("link states were not polled")
	}
}

func startMonitor(t *testing.T, source *fakeSource, handler link.Handler) (fakeClock, context.CancelFunc, chan error) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	monitor := NewMonitor(source, testPollInterval, clock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- monitor.Subscribe(ctx, handler)
	}()
	waitPoll(t, source)
	return clock, cancel, done
}

func TestMonitor_Subscribe(t *testing.T) {
	source := newFakeSource(map[string]link.LinkState{
		"1/1/1": link.LinkStateDown,
		"1/1/2": link.LinkStateUp,
		"1/1/3": link.LinkStateUp,
	})
	events := make(chan *link.LinkEvent, 8)
	handler := link.HandlerFunc(func(ctx context.Context, event *link.LinkEvent) {
		events <- event
	})

	clock, cancel, done := startMonitor(t, source, handler)
	start := clock.Now()

	source.set("1/1/1", link.LinkStateUp)
	source.set("1/1/2", link.LinkStateDown)
	source.set("1/1/4", link.LinkStateUp)
	clock.Advance(testPollInterval)
	waitPoll(t, source)

	select {
	case event := <-events:
		assert.Equal(t, "1/1/1", event.Interface)
		assert.Equal(t, link.LinkStateDown, event.PreviousState)
		assert.Equal(t, link.LinkStateUp, event.NewState)
		assert.Equal(t, start.Add(testPollInterval), event.Timestamp)
	case <-time.After(5 * time.Second):
		t.Fatal("no interface up event")
	}

	select {
	case event := <-events:
		t.Fatalf("unexpected event for %s", event.Interface)
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	require.NoError(t, <-done)
}

func TestMonitor_Subscribe_PollError(t *testing.T) {
	source := newFakeSource(map[string]link.LinkState{"1/1/1": link.LinkStateDown})
	events := make(chan *link.LinkEvent, 8)
	handler := link.HandlerFunc(func(ctx context.Context, event *link.LinkEvent) {
		events <- event
	})

	clock, cancel, done := startMonitor(t, source, handler)
	errorsBefore := testutil.ToFloat64(metrics.PollErrors)

	source.setErr(errors.New("connection refused"))
	clock.Advance(testPollInterval)
	waitPoll(t, source)
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.PollErrors) == errorsBefore+1
	}, 5*time.Second, 10*time.Millisecond)

	// Polling continues after an error and compares against the last good poll.
	source.setErr(nil)
	source.set("1/1/1", link.LinkStateUp)
	clock.Advance(testPollInterval)
	waitPoll(t, source)

	select {
	case event := <-events:
		assert.Equal(t, "1/1/1", event.Interface)
	case <-time.After(5 * time.Second):
		t.Fatal("no interface up event")
	}

	cancel()
	require.NoError(t, <-done)
}

func TestMonitor_Subscribe_DrainsInflight(t *testing.T) {
	source := newFakeSource(map[string]link.LinkState{"1/1/1": link.LinkStateDown})
	started := make(chan struct{})
	release := make(chan struct{})
	handler := link.HandlerFunc(func(ctx context.Context, event *link.LinkEvent) {
		close(started)
		<-release
		assert.NoError(t, ctx.Err(), "handler context must outlive shutdown")
	})

	clock, cancel, done := startMonitor(t, source, handler)

	source.set("1/1/1", link.LinkStateUp)
	clock.Advance(testPollInterval)
	<-started

	cancel()
	select {
	case <-done:
		t.Fatal("Subscribe returned before in-flight event finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-done)
}

func TestMonitor_Subscribe_ConcurrentHandlers(t *testing.T) {
	source := newFakeSource(map[string]link.LinkState{
		"1/1/1": link.LinkStateDown,
		"1/1/2": link.LinkStateDown,
	})
	var wg sync.WaitGroup
	wg.Add(2)
	release := make(chan struct{})
	handler := link.HandlerFunc(func(ctx context.Context, event *link.LinkEvent) {
		wg.Done()
		<-release
	})

	clock, cancel, done := startMonitor(t, source, handler)

	source.set("1/1/1", link.LinkStateUp)
	source.set("1/1/2", link.LinkStateUp)
	clock.Advance(testPollInterval)

	// Both handlers run while neither has returned.
	waited := make(chan struct{})
	go func() {
		wg.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(5 * time.Second):
		t.Fatal("handlers did not run concurrently")
	}

	close(release)
	cancel()
	require.NoError(t, <-done)
}

func TestMonitor_Subscribe_NilSource(t *testing.T) {
	monitor := &Monitor{PollInterval: time.Second, Clock: clockwork.NewFakeClock()}
	assert.Error(t, monitor.Subscribe(context.Background(), link.HandlerFunc(func(context.Context, *link.LinkEvent) {})))
}

func TestMonitor_Subscribe_InterfaceMissingFromPoll(t *testing.T) {
	source := newFakeSource(map[string]link.LinkState{
		"1/1/1": link.LinkStateDown,
		"1/1/2": link.LinkStateDown,
	})
	events := make(chan *link.LinkEvent, 8)
	handler := link.HandlerFunc(func(ctx context.Context, event *link.LinkEvent) {
		events <- event
	})

	clock, cancel, done := startMonitor(t, source, handler)

	source.remove("1/1/1")
	clock.Advance(testPollInterval)
	waitPoll(t, source)

	source.set("1/1/1", link.LinkStateUp)
	clock.Advance(testPollInterval)
	waitPoll(t, source)

	select {
	case event := <-events:
		assert.Equal(t, "1/1/1", event.Interface)
		assert.Equal(t, link.LinkStateDown, event.PreviousState)
		assert.Equal(t, link.LinkStateUp, event.NewState)
	case <-time.After(5 * time.Second):
		t.Fatal("no interface up event after the interface came back")
	}

	cancel()
	require.NoError(t, <-done)
}

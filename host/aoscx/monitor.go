package aoscx

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/a-light-win/lldp-webhook/pkg/link"
	"github.com/a-light-win/lldp-webhook/pkg/metrics"
)

const DefaultPollInterval = 5 * time.Second

type LinkStateSource interface {
	LinkStates(ctx context.Context) (map[string]link.LinkState, error)
}

// Monitor polls interface link states and reports down to up transitions.
type Monitor struct {
	Source       LinkStateSource
	PollInterval time.Duration
	Clock        clockwork.Clock

	states   map[string]link.LinkState
	inflight sync.WaitGroup
}

func NewMonitor(source LinkStateSource, pollInterval time.Duration, clock clockwork.Clock) *Monitor {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Monitor{
		Source:       source,
		PollInterval: pollInterval,
		Clock:        clock,
	}
}

// Subscribe implements link.Subscription. Each event is handled on its own
// goroutine; after ctx is done Subscribe waits for those handlers to finish.
// Handlers get a context that is not canceled with ctx.
func (m *Monitor) Subscribe(ctx context.Context, handler link.Handler) error {
	if m.Source == nil {
		return errors.New("link state source is nil")
	}

	ticker := m.Clock.NewTicker(m.PollInterval)
	defer ticker.Stop()

	log.Info().Dur("PollInterval", m.PollInterval).Msg("Start monitoring interface link states")
	m.poll(ctx, handler)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Stop monitoring interface link states, waiting for in-flight events")
			m.inflight.Wait()
			return nil
		case <-ticker.Chan():
			m.poll(ctx, handler)
		}
	}
}

func (m *Monitor) poll(ctx context.Context, handler link.Handler) {
	states, err := m.Source.LinkStates(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		metrics.PollErrors.Inc()
		log.Warn().Err(err).Msg("Failed to poll interface link states")
		return
	}

	if m.states == nil {
		m.states = make(map[string]link.LinkState, len(states))
		for name, state := range states {
			m.states[name] = state
		}
		log.Info().Int("Interfaces", len(states)).Msg("Initial interface link states loaded")
		return
	}

	names := make([]string, 0, len(states))
	for name := range states {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		prev, ok := m.states[name]
		state := states[name]
		// Interfaces missing from a poll keep their last known state.
		m.states[name] = state
		if !ok || prev == state {
			continue
		}

		metrics.LinkTransitions.WithLabelValues(prev.String(), state.String()).Inc()
		event := &link.LinkEvent{
			Timestamp:     m.Clock.Now(),
			Interface:     name,
			PreviousState: prev,
			NewState:      state,
		}
		log.Debug().Str("Interface", name).
			Str("PreviousState", prev.String()).
			Str("NewState", state.String()).
			Msg("Receive link state transition")

		if event.IsUp() {
			m.dispatch(ctx, handler, event)
		}
	}
}

func (m *Monitor) dispatch(ctx context.Context, handler link.Handler, event *link.LinkEvent) {
	m.inflight.Add(1)
	go func() {
		defer m.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Error().Err(fmt.Errorf("%v", r)).Str("Interface", event.Interface).Msg("Link event handler panicked")
			}
		}()
		handler.Handle(context.WithoutCancel(ctx), event)
	}()
}

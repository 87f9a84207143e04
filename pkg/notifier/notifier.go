package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/a-light-win/lldp-webhook/pkg/iface"
	"github.com/a-light-win/lldp-webhook/pkg/link"
	"github.com/a-light-win/lldp-webhook/pkg/lldp"
	"github.com/a-light-win/lldp-webhook/pkg/metrics"
)

const UnknownHostname = "Unknown"

type Sender interface {
	Send(ctx context.Context, payload any) (int, error)
	URL() string
}

type Config struct {
	Filter       *iface.Filter
	LldpWaitTime time.Duration
	Hostname     string

	Lookup lldp.NeighborLookup
	Sender Sender
	Clock  clockwork.Clock

	NewEventID func() string
}

func (c *Config) Validate() error {
	if c.Filter == nil {
		return errors.New("interface filter is required")
	}
	if c.LldpWaitTime < 0 {
		return errors.New("lldp wait time must not be negative")
	}
	if c.Lookup == nil {
		return errors.New("neighbor lookup is required")
	}
	if c.Sender == nil {
		return errors.New("webhook sender is required")
	}
	if c.Hostname == "" {
		c.Hostname = UnknownHostname
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if c.NewEventID == nil {
		c.NewEventID = uuid.NewString
	}
	return nil
}

// Notifier turns interface up events into webhook notifications. It keeps no
// state between events, so Handle may run concurrently.
type Notifier struct {
	config Config
}

func New(config Config) (*Notifier, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid notifier config: %w", err)
	}
	return &Notifier{config: config}, nil
}

// Handle implements link.Handler. Failures are logged and the event dropped.
func (n *Notifier) Handle(ctx context.Context, event *link.LinkEvent) {
	if !event.IsUp() {
		log.Debug().Str("Interface", event.Interface).
			Str("PreviousState", event.PreviousState.String()).
			Str("NewState", event.NewState.String()).
			Msg("Ignore non interface up event")
		return
	}
	_, _ = n.OnInterfaceUp(ctx, event)
}

// OnInterfaceUp waits for LLDP discovery on the event's interface, looks up
// its neighbor and posts the result to the webhook. It returns the terminal
// state of the event.
func (n *Notifier) OnInterfaceUp(ctx context.Context, event *link.LinkEvent) (State, error) {
	logger := log.With().Str("Interface", event.Interface).Logger()

	if !n.config.Filter.Match(event.Interface) {
		logger.Debug().Msg("Interface not in monitored list, ignoring")
		metrics.Events.WithLabelValues(metrics.OutcomeIgnored).Inc()
		return StateIgnored, nil
	}
	logger.Info().Str("State", StateTriggered.String()).Msg("Interface came up")

	logger.Info().Str("State", StateWaiting.String()).
		Dur("Wait", n.config.LldpWaitTime).
		Msg("Waiting for LLDP discovery")
	select {
	case <-n.config.Clock.After(n.config.LldpWaitTime):
	case <-ctx.Done():
		return n.fail(event, fmt.Errorf("waiting for lldp discovery: %w", ctx.Err()))
	}

	logger.Debug().Str("State", StateFetching.String()).Msg("Looking up LLDP neighbor")
	neighbor, err := n.config.Lookup.Neighbor(ctx, event.Interface)
	if err != nil {
		var lookupErr *lldp.NeighborLookupError
		if !errors.As(err, &lookupErr) {
			err = &lldp.NeighborLookupError{Interface: event.Interface, Err: err}
		}
		return n.fail(event, err)
	}
	if neighbor == nil {
		logger.Info().Msg("No LLDP neighbor discovered")
	} else {
		logger.Info().Str("ChassisID", neighbor.ChassisID).
			Str("PortID", neighbor.PortID).
			Str("SystemName", neighbor.SystemName).
			Int("Count", neighbor.Count).
			Msg("Found LLDP neighbor")
	}

	payload := NewPayload(n.config.NewEventID(), n.config.Hostname, event, neighbor, n.config.Clock.Now())

	start := time.Now()
	status, err := n.config.Sender.Send(ctx, payload)
	metrics.DeliveryDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		logger.Error().Err(err).Int("StatusCode", status).Str("EventID", payload.EventID).
			Str("State", StateFailed.String()).
			Msg("Failed to send webhook notification")
		metrics.Events.WithLabelValues(metrics.OutcomeFailed).Inc()
		return StateFailed, err
	}

	logger.Info().Int("StatusCode", status).Str("EventID", payload.EventID).
		Bool("NeighborDiscovered", payload.NeighborDiscovered).
		Str("State", StateSent.String()).
		Msg("Webhook notification sent")
	metrics.Events.WithLabelValues(metrics.OutcomeSent).Inc()
	return StateSent, nil
}

func (n *Notifier) fail(event *link.LinkEvent, err error) (State, error) {
	log.Error().Err(err).Str("Interface", event.Interface).
		Str("State", StateFailed.String()).
		Msg("Dropped interface up event")
	metrics.Events.WithLabelValues(metrics.OutcomeFailed).Inc()
	return StateFailed, err
}

// SendTest posts a test payload to check that the webhook is reachable.
func (n *Notifier) SendTest(ctx context.Context) error {
	payload := NewTestPayload(n.config.NewEventID(), n.config.Hostname, n.config.Clock.Now())

	log.Info().Str("WebhookURL", n.config.Sender.URL()).Msg("Send test webhook")
	status, err := n.config.Sender.Send(ctx, payload)
	if err != nil {
		log.Error().Err(err).Int("StatusCode", status).Msg("Test webhook failed")
		return err
	}
	log.Info().Int("StatusCode", status).Msg("Test webhook sent")
	return nil
}

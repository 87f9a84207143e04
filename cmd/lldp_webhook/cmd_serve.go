package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	config "github.com/a-light-win/lldp-webhook/configs/notifier"
	"github.com/a-light-win/lldp-webhook/host/aoscx"
	"github.com/a-light-win/lldp-webhook/pkg/logger"
	"github.com/a-light-win/lldp-webhook/pkg/metrics"
	"github.com/a-light-win/lldp-webhook/pkg/notifier"
	"github.com/a-light-win/lldp-webhook/pkg/webhook"
)

type ServeCmd struct {
	config.NotifierConfig

	Switch      config.SwitchConfig `embed:"" prefix:"switch-"`
	MetricsAddr string              `name:"metrics-addr" env:"LLDP_WEBHOOK_METRICS_ADDR" help:"Address to serve prometheus metrics on, disabled when empty"`
}

func (s *ServeCmd) Run(globals *Globals) error {
	if err := logger.InitLogger(globals.LogLevel, globals.LogFormat); err != nil {
		log.Error().Err(err).Msg("failed to initialize logger")
		return err
	}
	log.Log().Msgf("lldp-webhook %s is start up", Version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := clockwork.NewRealClock()
	agent, err := newAgent(ctx, &s.NotifierConfig, &s.Switch, clock)
	if err != nil {
		return err
	}
	defer agent.close()

	if agent.settings.SendTestWebhook {
		// A failed test webhook is only reported, the endpoint may come up later.
		_ = agent.notifier.SendTest(ctx)
	}

	metrics.BuildInfo.WithLabelValues(Version).Set(1)
	monitor := aoscx.NewMonitor(agent.client, s.Switch.PollInterval, clock)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return monitor.Subscribe(gctx, agent.notifier)
	})
	if s.MetricsAddr != "" {
		serveMetrics(gctx, g, s.MetricsAddr)
	}

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("lldp-webhook stopped with error")
		return err
	}
	log.Info().Msg("lldp-webhook stopped")
	return nil
}

type app struct {
	settings *config.Settings
	client   *aoscx.Client
	notifier *notifier.Notifier
}

// newAgent validates the configuration and wires the notifier to the switch.
func newAgent(ctx context.Context, nc *config.NotifierConfig, sc *config.SwitchConfig, clock clockwork.Clock) (*app, error) {
	settings, err := nc.Build()
	if err != nil {
		log.Error().Err(err).Msg("config validation failed")
		return nil, err
	}
	if err := sc.Validate(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		return nil, err
	}
	log.Info().
		Str("WebhookURL", settings.Webhook.URL).
		Str("Interfaces", settings.Filter.String()).
		Dur("LldpWaitTime", settings.LldpWaitTime).
		Str("Switch", sc.URL).
		Msg("Core config")

	client, err := aoscx.NewClient(aoscx.Config{
		URL:                sc.URL,
		APIVersion:         sc.APIVersion,
		Username:           sc.Username,
		Password:           sc.Password,
		InsecureSkipVerify: sc.InsecureSkipVerify,
		Timeout:            sc.Timeout,
		Retries:            1,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to create switch client")
		return nil, err
	}

	n, err := notifier.New(notifier.Config{
		Filter:       settings.Filter,
		LldpWaitTime: settings.LldpWaitTime,
		Hostname:     switchHostname(ctx, client, sc.Hostname),
		Lookup:       client,
		Sender:       webhook.NewSender(settings.Webhook),
		Clock:        clock,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize notifier")
		return nil, err
	}

	return &app{settings: settings, client: client, notifier: n}, nil
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.client.Close(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to log out from switch")
	}
}

type hostnameSource interface {
	Hostname(ctx context.Context) (string, error)
}

func switchHostname(ctx context.Context, source hostnameSource, override string) string {
	if override != "" {
		return override
	}
	hostname, err := source.Hostname(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get switch hostname, using 'Unknown'")
		return notifier.UnknownHostname
	}
	return hostname
}

func serveMetrics(ctx context.Context, g *errgroup.Group, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	g.Go(func() error {
		listener, err := net.Listen("tcp", addr)
		if err != nil {
			log.Error().Err(err).Msg("failed to start prometheus metrics server listener")
			return err
		}
		log.Info().Str("Address", listener.Addr().String()).Msg("prometheus metrics server listening")
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
}

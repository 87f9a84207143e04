package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/a-light-win/lldp-webhook/configs/notifier"
	"github.com/a-light-win/lldp-webhook/pkg/logger"
	"github.com/a-light-win/lldp-webhook/pkg/notifier"
)

func TestServeCmd_Flags(t *testing.T) {
	var cli struct {
		Globals

		Serve ServeCmd `cmd:""`
	}
	parser, err := kong.New(&cli, kong.Exit(func(int) { t.Fatal("unexpected exit") }))
	require.NoError(t, err)

	_, err = parser.Parse([]string{
		"serve",
		"--webhook-url=https://hooks.example.com/lldp",
		"--interfaces=1/1/1-1/1/4",
		"--switch-url=https://10.0.0.1",
		"--switch-poll-interval=2s",
		"--no-send-test-webhook",
	})
	require.NoError(t, err)

	assert.Equal(t, logger.LogLevel("info"), cli.LogLevel)
	assert.Equal(t, logger.FormatJSON, cli.LogFormat)
	assert.Equal(t, "https://hooks.example.com/lldp", cli.Serve.WebhookURL)
	assert.Equal(t, "1/1/1-1/1/4", cli.Serve.Interfaces)
	assert.Equal(t, 15, cli.Serve.LldpWaitTime)
	assert.Equal(t, 10*time.Second, cli.Serve.WebhookTimeout)
	assert.Equal(t, 1, cli.Serve.WebhookRetries)
	assert.False(t, cli.Serve.SendTestWebhook)
	assert.Equal(t, "https://10.0.0.1", cli.Serve.Switch.URL)
	assert.Equal(t, "v10.08", cli.Serve.Switch.APIVersion)
	assert.Equal(t, 2*time.Second, cli.Serve.Switch.PollInterval)
	assert.Empty(t, cli.Serve.MetricsAddr)
}

type hostnameFunc func(ctx context.Context) (string, error)

func (f hostnameFunc) Hostname(ctx context.Context) (string, error) {
	return f(ctx)
}

func TestSwitchHostname(t *testing.T) {
	ok := hostnameFunc(func(context.Context) (string, error) { return "core-1", nil })
	failing := hostnameFunc(func(context.Context) (string, error) { return "", errors.New("timeout") })

	assert.Equal(t, "core-1", switchHostname(context.Background(), ok, ""))
	assert.Equal(t, "override", switchHostname(context.Background(), ok, "override"))
	assert.Equal(t, notifier.UnknownHostname, switchHostname(context.Background(), failing, ""))
}

func TestNewAgent(t *testing.T) {
	var webhookCalls atomic.Int32
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		webhookCalls.Add(1)
	}))
	defer hook.Close()
	sw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v10.08/system", r.URL.Path)
		_, _ = w.Write([]byte(`{"hostname": "access-sw-01"}`))
	}))
	defer sw.Close()

	nc := config.DefaultNotifierConfig()
	nc.WebhookURL = hook.URL
	sc := config.DefaultSwitchConfig()
	sc.URL = sw.URL

	agent, err := newAgent(context.Background(), &nc, &sc, clockwork.NewFakeClock())
	require.NoError(t, err)
	defer agent.close()

	assert.True(t, agent.settings.Filter.All())
	require.NoError(t, agent.notifier.SendTest(context.Background()))
	assert.EqualValues(t, 1, webhookCalls.Load())
}

func TestNewAgent_InvalidConfig(t *testing.T) {
	nc := config.DefaultNotifierConfig()
	nc.WebhookURL = "https://hooks.example.com/lldp"
	nc.LldpWaitTime = 90
	sc := config.DefaultSwitchConfig()

	_, err := newAgent(context.Background(), &nc, &sc, clockwork.NewFakeClock())
	var configErr *config.ConfigurationError
	require.True(t, errors.As(err, &configErr))
	assert.Equal(t, "lldp-wait-time", configErr.Field)

	nc.LldpWaitTime = 15
	sc.PollInterval = time.Millisecond
	_, err = newAgent(context.Background(), &nc, &sc, clockwork.NewFakeClock())
	require.True(t, errors.As(err, &configErr))
	assert.Equal(t, "poll-interval", configErr.Field)
}

package main

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	config "github.com/a-light-win/lldp-webhook/configs/notifier"
	"github.com/a-light-win/lldp-webhook/pkg/logger"
)

type TestWebhookCmd struct {
	config.NotifierConfig

	Switch config.SwitchConfig `embed:"" prefix:"switch-"`
}

func (c *TestWebhookCmd) Run(globals *Globals) error {
	if err := logger.InitLogger(globals.LogLevel, globals.LogFormat); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	agent, err := newAgent(ctx, &c.NotifierConfig, &c.Switch, clockwork.NewRealClock())
	if err != nil {
		return err
	}
	defer agent.close()

	return agent.notifier.SendTest(ctx)
}

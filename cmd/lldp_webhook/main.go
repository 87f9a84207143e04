package main

import (
	"os"

	"github.com/alecthomas/kong"
	kongyaml "github.com/alecthomas/kong-yaml"
	"github.com/joho/godotenv"

	"github.com/a-light-win/lldp-webhook/pkg/logger"
)

type Globals struct {
	Config kong.ConfigFlag `help:"Load configuration from a file"`

	LogLevel  logger.LogLevel  `enum:"debug,info,warn,error,fatal" env:"LLDP_WEBHOOK_LOG_LEVEL" help:"Set the log level" default:"info"`
	LogFormat logger.LogFormat `enum:"json,console" env:"LLDP_WEBHOOK_LOG_FORMAT" help:"Set the log format" default:"json"`
}

var Cli struct {
	Globals

	Version     VersionCmd     `cmd:"" help:"Print the version of lldp-webhook"`
	Serve       ServeCmd       `cmd:"" help:"Watch interface link states and send LLDP webhooks"`
	TestWebhook TestWebhookCmd `cmd:"" name:"test-webhook" help:"Send a test webhook and exit"`
}

func main() {
	// Values already in the environment win over .env.
	_ = godotenv.Load()

	ctx := kong.Parse(&Cli,
		kong.Name("lldp-webhook"),
		kong.Description("Send LLDP neighbor details to a webhook when switch interfaces come up."),
		kong.Configuration(kongyaml.Loader, "/etc/lldp-webhook/config.yaml"),
	)
	err := ctx.Run(&Cli.Globals)
	if err != nil {
		os.Exit(1)
	}
}

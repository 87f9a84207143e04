package notifier

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/a-light-win/lldp-webhook/pkg/iface"
	"github.com/a-light-win/lldp-webhook/pkg/webhook"
)

// PlaceholderWebhookURL is the value shipped in example configurations.
const PlaceholderWebhookURL = "https://webhook.site/your-webhook-id"

type NotifierConfig struct {
	WebhookURL                string        `name:"webhook-url" env:"LLDP_WEBHOOK_URL" validate:"required,url" help:"URL to send LLDP events to"`
	WebhookAuthorization      string        `name:"webhook-authorization" env:"LLDP_WEBHOOK_AUTHORIZATION" help:"Authorization header sent with each webhook"`
	WebhookTimeout            time.Duration `name:"webhook-timeout" env:"LLDP_WEBHOOK_TIMEOUT" default:"10s" validate:"min=1s,max=60s" help:"Timeout of a single webhook request"`
	WebhookRetries            int           `name:"webhook-retries" env:"LLDP_WEBHOOK_RETRIES" default:"1" validate:"min=0,max=3" help:"Retries after a connection error or 5xx response"`
	WebhookInsecureSkipVerify bool          `name:"webhook-insecure-skip-verify" env:"LLDP_WEBHOOK_INSECURE_SKIP_VERIFY" help:"Skip TLS verification of the webhook endpoint"`
	Interfaces                string        `name:"interfaces" env:"LLDP_WEBHOOK_INTERFACES" default:"all" help:"Interfaces to monitor, e.g. 1/1/1-1/1/10,1/1/12"`
	LldpWaitTime              int           `name:"lldp-wait-time" env:"LLDP_WEBHOOK_LLDP_WAIT_TIME" default:"15" validate:"min=5,max=60" help:"Seconds to wait for LLDP discovery after an interface comes up (5-60)"`
	SendTestWebhook           bool          `name:"send-test-webhook" env:"LLDP_WEBHOOK_SEND_TEST" default:"true" negatable:"" help:"Send a test webhook on start"`
}

type SwitchConfig struct {
	URL                string        `name:"url" env:"LLDP_WEBHOOK_SWITCH_URL" default:"https://127.0.0.1" validate:"required,url" help:"Base URL of the switch REST API"`
	APIVersion         string        `name:"api-version" env:"LLDP_WEBHOOK_SWITCH_API_VERSION" default:"v10.08" validate:"required" help:"REST API version of the switch"`
	Username           string        `name:"username" env:"LLDP_WEBHOOK_SWITCH_USERNAME" help:"REST API user, leave empty when no login is required"`
	Password           string        `name:"password" env:"LLDP_WEBHOOK_SWITCH_PASSWORD" help:"REST API password"`
	InsecureSkipVerify bool          `name:"insecure-skip-verify" env:"LLDP_WEBHOOK_SWITCH_INSECURE_SKIP_VERIFY" help:"Skip TLS verification of the switch"`
	Hostname           string        `name:"hostname" env:"LLDP_WEBHOOK_SWITCH_HOSTNAME" help:"Hostname reported in webhooks, read from the switch when empty"`
	PollInterval       time.Duration `name:"poll-interval" env:"LLDP_WEBHOOK_POLL_INTERVAL" default:"5s" validate:"min=1s,max=5m" help:"Interval between link state polls"`
	Timeout            time.Duration `name:"timeout" env:"LLDP_WEBHOOK_SWITCH_TIMEOUT" default:"10s" validate:"min=1s,max=60s" help:"Timeout of a single REST request to the switch"`
}

func DefaultNotifierConfig() NotifierConfig {
	return NotifierConfig{
		WebhookTimeout:  10 * time.Second,
		WebhookRetries:  1,
		Interfaces:      iface.All,
		LldpWaitTime:    15,
		SendTestWebhook: true,
	}
}

func DefaultSwitchConfig() SwitchConfig {
	return SwitchConfig{
		URL:          "https://127.0.0.1",
		APIVersion:   "v10.08",
		PollInterval: 5 * time.Second,
		Timeout:      10 * time.Second,
	}
}

// Settings is the validated, immutable form of NotifierConfig.
type Settings struct {
	Filter          *iface.Filter
	LldpWaitTime    time.Duration
	Webhook         webhook.Config
	SendTestWebhook bool
}

type ConfigurationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return "invalid configuration: " + e.Reason
	}
	return fmt.Sprintf("invalid configuration: %s=%q %s", e.Field, e.Value, e.Reason)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		if name := field.Tag.Get("name"); name != "" {
			return name
		}
		return field.Name
	})
	return v
}

// Build validates the configuration and returns the settings the notifier runs with.
func (c *NotifierConfig) Build() (*Settings, error) {
	if err := validateStruct(c); err != nil {
		return nil, err
	}
	if c.WebhookURL == PlaceholderWebhookURL {
		return nil, &ConfigurationError{Field: "webhook-url", Value: c.WebhookURL, Reason: "is the example placeholder"}
	}

	filter, err := iface.ParseFilter(c.Interfaces)
	if err != nil {
		return nil, &ConfigurationError{Field: "interfaces", Value: c.Interfaces, Reason: err.Error()}
	}

	return &Settings{
		Filter:       filter,
		LldpWaitTime: time.Duration(c.LldpWaitTime) * time.Second,
		Webhook: webhook.Config{
			URL:                c.WebhookURL,
			Authorization:      c.WebhookAuthorization,
			Timeout:            c.WebhookTimeout,
			Retries:            c.WebhookRetries,
			InsecureSkipVerify: c.WebhookInsecureSkipVerify,
		},
		SendTestWebhook: c.SendTestWebhook,
	}, nil
}

func (c *SwitchConfig) Validate() error {
	if err := validateStruct(c); err != nil {
		return err
	}
	if c.Username != "" && c.Password == "" {
		return &ConfigurationError{Field: "password", Reason: "is required when a username is set"}
	}
	return nil
}

func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ConfigurationError{Reason: err.Error()}
	}
	fe := fieldErrs[0]
	return &ConfigurationError{
		Field:  fe.Field(),
		Value:  fmt.Sprint(fe.Value()),
		Reason: describe(fe),
	}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "url":
		return "is not a valid URL"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	default:
		return fmt.Sprintf("failed the %q check", fe.Tag())
	}
}

package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/a-light-win/lldp-webhook/pkg/httpclient"
)

const (
	DefaultTimeout      = 10 * time.Second
	DefaultRetryWaitMin = 1 * time.Second
	DefaultRetryWaitMax = 5 * time.Second
)

type Config struct {
	URL                string
	Authorization      string
	Timeout            time.Duration
	Retries            int
	RetryWaitMin       time.Duration
	RetryWaitMax       time.Duration
	InsecureSkipVerify bool
}

// DeliveryError reports a webhook that was not accepted. StatusCode is zero
// when no response was received.
type DeliveryError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("webhook delivery to %s failed: received non-2xx response: %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("webhook delivery to %s failed: %v", e.URL, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

type Sender struct {
	config Config
	client *retryablehttp.Client
}

func NewSender(config Config) *Sender {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.RetryWaitMin <= 0 {
		config.RetryWaitMin = DefaultRetryWaitMin
	}
	if config.RetryWaitMax < config.RetryWaitMin {
		config.RetryWaitMax = max(DefaultRetryWaitMax, config.RetryWaitMin)
	}
	if config.Retries < 0 {
		config.Retries = 0
	}

	client := httpclient.New(httpclient.Options{
		Retries:            config.Retries,
		Timeout:            config.Timeout,
		RetryWaitMin:       config.RetryWaitMin,
		RetryWaitMax:       config.RetryWaitMax,
		InsecureSkipVerify: config.InsecureSkipVerify,
	})

	return &Sender{config: config, client: client}
}

func (s *Sender) URL() string {
	return s.config.URL
}

// Send posts payload as JSON and returns the final response status code.
func (s *Sender) Send(ctx context.Context, payload any) (int, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, s.config.URL, bytes.NewReader(data))
	if err != nil {
		return 0, &DeliveryError{URL: s.config.URL, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if s.config.Authorization != "" {
		req.Header.Set("Authorization", s.config.Authorization)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return 0, &DeliveryError{URL: s.config.URL, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, &DeliveryError{
			URL:        s.config.URL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("received non-2xx response: %d", resp.StatusCode),
		}
	}
	return resp.StatusCode, nil
}

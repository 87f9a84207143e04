package httpclient

import (
	"crypto/tls"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Retries            int
	Timeout            time.Duration
	RetryWaitMin       time.Duration
	RetryWaitMax       time.Duration
	InsecureSkipVerify bool
	Jar                http.CookieJar
}

// New returns a retrying HTTP client that hands the last response back to
// the caller instead of turning exhausted retries into an error.
func New(opts Options) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = max(opts.Retries, 0)
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.Logger = LeveledLogger{}
	client.Backoff = CappedBackoff
	if opts.Timeout > 0 {
		client.HTTPClient.Timeout = opts.Timeout
	}
	if opts.RetryWaitMin > 0 {
		client.RetryWaitMin = opts.RetryWaitMin
	}
	if opts.RetryWaitMax > 0 {
		client.RetryWaitMax = opts.RetryWaitMax
	}
	if opts.Jar != nil {
		client.HTTPClient.Jar = opts.Jar
	}
	if opts.InsecureSkipVerify {
		if transport, ok := client.HTTPClient.Transport.(*http.Transport); ok {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		}
	}
	return client
}

// CappedBackoff is retryablehttp.DefaultBackoff with Retry-After headers
// limited to max.
func CappedBackoff(min, max time.Duration, attemptNum int, resp *http.Response) time.Duration {
	wait := retryablehttp.DefaultBackoff(min, max, attemptNum, resp)
	if wait > max {
		return max
	}
	return wait
}

// LeveledLogger forwards retryablehttp logs to zerolog one level lower,
// so per request chatter stays out of info logs.
type LeveledLogger struct{}

func (LeveledLogger) Error(msg string, keysAndValues ...interface{}) {
	log.Error().Fields(keysAndValues).Msg(msg)
}

func (LeveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	log.Warn().Fields(keysAndValues).Msg(msg)
}

func (LeveledLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg(msg)
}

func (LeveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	log.Trace().Fields(keysAndValues).Msg(msg)
}

package transport

import (
	"net/http"
	"time"

	"cdr.dev/slog"
	"github.com/hashicorp/go-retryablehttp"
)

type Options struct {
	Timeout      time.Duration
	MaxRetries   int
	RetryWaitMin time.Duration // defaults to 500ms
	RetryWaitMax time.Duration // defaults to 5s
	UserAgent    string
}

// NewClient builds the retrying HTTP client used for calls to external
// services. Retries on 429 and 5xx live here, never in the services. Callers
// whose requests are not idempotent pass MaxRetries 0.
func NewClient(logger slog.Logger, opts Options) *http.Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = opts.MaxRetries
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	if opts.RetryWaitMin > 0 {
		rc.RetryWaitMin = opts.RetryWaitMin
	}
	if opts.RetryWaitMax > 0 {
		rc.RetryWaitMax = opts.RetryWaitMax
	}
	rc.HTTPClient.Timeout = opts.Timeout
	rc.Logger = nil
	rc.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if attempt > 0 {
			logger.Debug(req.Context(), "retrying request",
				slog.F("url", req.URL.Redacted()),
				slog.F("attempt", attempt),
			)
		}
	}
	// Hand the final response back to the caller instead of a generic
	// "giving up" error so status codes can be classified.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	client := rc.StandardClient()
	if opts.UserAgent != "" {
		client.Transport = &userAgentTransport{next: client.Transport, agent: opts.UserAgent}
	}
	return client
}

type userAgentTransport struct {
	next  http.RoundTripper
	agent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", t.agent)
	}
	return t.next.RoundTrip(req)
}

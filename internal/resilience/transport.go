package resilience

import (
	"context"
	"io"
	"net/http"
	"time"
)

// maxErrorBody bounds how much of a failed response body is carried in errors.
const maxErrorBody = 500

// Transport issues a single outbound HTTP call with bounded exponential-
// backoff retry. It operates purely on transport-level signals: network
// failures, truncated responses, and the fixed retriable status set are
// retried; any other HTTP error fails immediately carrying the status code
// and a truncated response body. Payload semantics belong to the callers.
type Transport struct {
	name   string
	client *http.Client
	cfg    RetryConfig
}

// NewTransport creates a retrying transport. The name labels retry logs.
func NewTransport(name string, client *http.Client, cfg RetryConfig) *Transport {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if cfg.OnRetry == nil {
		cfg.OnRetry = RetryLogger(name, "send")
	}
	return &Transport{name: name, client: client, cfg: cfg}
}

// Send builds a fresh request per attempt, issues it, and returns the
// response body on success.
func (t *Transport) Send(ctx context.Context, build func(ctx context.Context) (*http.Request, error)) ([]byte, error) {
	return DoVal(ctx, t.cfg, func(ctx context.Context) ([]byte, error) {
		req, err := build(ctx)
		if err != nil {
			return nil, err
		}

		resp, err := t.client.Do(req)
		if err != nil {
			return nil, NewTransientError(err, 0)
		}
		defer resp.Body.Close() //nolint:errcheck

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			// Truncated or reset mid-body.
			return nil, NewTransientError(err, resp.StatusCode)
		}

		if IsRetriableStatus(resp.StatusCode) {
			return nil, NewTransientError(
				&HTTPError{StatusCode: resp.StatusCode, Body: truncateBody(body)},
				resp.StatusCode,
			)
		}
		if resp.StatusCode >= 400 {
			return nil, &HTTPError{StatusCode: resp.StatusCode, Body: truncateBody(body)}
		}

		return body, nil
	})
}

func truncateBody(b []byte) string {
	if len(b) > maxErrorBody {
		b = b[:maxErrorBody]
	}
	return string(b)
}

package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"roomshare_backend/platform/logger"

	"golang.org/x/time/rate"
)

// defaultTimeout bounds one provider round trip. A response arriving after
// the deadline is treated exactly like a canceled one: discarded.
const defaultTimeout = 10 * time.Second

// restClient is the shared HTTP plumbing for provider implementations:
// politeness rate limiting, timeout, status classification, and JSON
// decoding into the provider's raw shape.
type restClient struct {
	name    string
	client  *http.Client
	limiter *rate.Limiter
	log     *logger.Logger
}

func newRESTClient(name string, timeout time.Duration, rps float64, log *logger.Logger) *restClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if rps <= 0 {
		rps = 1
	}
	return &restClient{
		name:    name,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		log:     log,
	}
}

// getJSON performs a rate-limited GET and decodes the body into out.
func (r *restClient) getJSON(ctx context.Context, reqURL string, userAgent string, out interface{}) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return classifyTransport(r.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return classifyTransport(r.name, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		// Prefer the context's own error; http wraps cancellation in
		// a *url.Error which errors.Is still unwraps.
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		appErr := classifyTransport(r.name, err)
		if r.log != nil && !IsCanceled(appErr) {
			r.log.GeocodeUpstream(r.name, 0, float64(time.Since(start).Milliseconds()), err)
		}
		return appErr
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if r.log != nil {
		r.log.GeocodeUpstream(r.name, resp.StatusCode, float64(time.Since(start).Milliseconds()), nil)
	}

	if resp.StatusCode != http.StatusOK {
		return classifyStatus(r.name, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return classifyTransport(r.name, err)
	}
	return nil
}

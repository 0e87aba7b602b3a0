package engine

import (
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"
)

// userAgents are the three fixed browser identities; one is chosen uniformly
// at random per request.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.6 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:92.0) Gecko/20100101 Firefox/92.0",
}

// RandomUserAgent returns one of the fixed user-agent strings.
func RandomUserAgent() string {
	return userAgents[rand.IntN(len(userAgents))]
}

const (
	maxBodyBytes = 4 * 1024 * 1024
	pingTimeout  = 3 * time.Second

	retryInitialWait = 100 * time.Millisecond
	retryMaxTries    = 3 // first attempt + 2 retries
)

// Timeout is a (connect, read) pair bounding one upstream call. The connect
// half bounds dialing; connect+read bounds the whole exchange through the
// request context. There is no unbounded call anywhere in the engine.
type Timeout struct {
	Connect time.Duration
	Read    time.Duration
}

// DefaultTimeout suits the lightweight mirror calls.
var DefaultTimeout = Timeout{Connect: 2 * time.Second, Read: 5 * time.Second}

func (t Timeout) total() time.Duration {
	if t.Connect <= 0 && t.Read <= 0 {
		return DefaultTimeout.total()
	}
	return t.Connect + t.Read
}

// StatusError reports a non-200 upstream response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return "status " + http.StatusText(e.Code)
}

// retryableStatus reports whether a response code gets the facade-level retry.
// Only server-class errors qualify; 4xx is handled by trying another provider.
func retryableStatus(code int) bool {
	switch code {
	case http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Client is the process-wide HTTP facade: one pooled transport, random
// user-agent per request, and automatic retry with exponential backoff for
// server-class errors only. Transport errors and 4xx are not retried here;
// that recovery happens across endpoints at the dispatcher and composer level.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates the shared facade. rps <= 0 disables pacing.
func NewClient(rps float64) *Client {
	c := &Client{
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
	if rps > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(rps), int(rps)+1)
	}
	return c
}

// Get fetches rawURL and returns the response body. Extra headers may be nil.
func (c *Client) Get(ctx context.Context, rawURL string, to Timeout, headers map[string]string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	operation := func() ([]byte, error) {
		reqCtx, cancel := context.WithTimeout(ctx, to.total())
		defer cancel()

		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", RandomUserAgent())
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		defer resp.Body.Close()

		if retryableStatus(resp.StatusCode) {
			return nil, &StatusError{Code: resp.StatusCode}
		}
		if resp.StatusCode != http.StatusOK {
			return nil, backoff.Permanent(&StatusError{Code: resp.StatusCode})
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		return data, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = retryInitialWait
	return backoff.Retry(ctx, operation, backoff.WithBackOff(bo), backoff.WithMaxTries(retryMaxTries))
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

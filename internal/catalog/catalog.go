// Package catalog talks to the external music catalog API. Every call goes
// through a token-bucket-paced client that also honors the catalog's
// rate-limit response headers and retries throttled requests a bounded number
// of times.
package catalog

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	UserAgent      = "trackmatch-go-srv/1.0"
	DefaultBaseURL = "https://api.trackmatch.dev/v1"

	headerRemaining     = "X-RateLimit-Remaining"
	headerReplenishRate = "X-RateLimit-Replenish-Rate"
	headerRequested     = "X-RateLimit-Requested-Tokens"

	maxThrottleRetries = 2
)

// ErrRateLimitExceeded is returned once a call has been throttled three times
// in a row.
var ErrRateLimitExceeded = errors.New("rate limit exceeded")

// Client wraps catalog HTTP calls. The limiter paces requests locally;
// rate-limit state belongs to a single logical search session, so a Client
// must not be shared between sessions that use different external buckets.
type Client struct {
	HTTPClient *http.Client
	Limiter    *rate.Limiter
	BaseURL    string
	Token      string

	sleep func(time.Duration)
}

func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		// 15 requests per 10 seconds
		Limiter: rate.NewLimiter(rate.Every(666*time.Millisecond), 1),
		BaseURL: baseURL,
		Token:   token,
		sleep:   time.Sleep,
	}
}

// Do sends the request with auth headers, paced by the limiter. On success it
// pre-emptively waits out a near-empty token bucket before returning. On a
// 429 it waits the header-derived time plus a growing penalty and retries up
// to two times; a third throttled response is fatal for the call.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Accept", "application/json")

	for retry := 0; ; retry++ {
		if err := c.Limiter.Wait(req.Context()); err != nil {
			return nil, err
		}

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			// Sleep ahead of time when the bucket can't cover the next
			// request, so we never run into the limit at all.
			c.sleep(headerWait(resp.Header))
			return resp, nil
		}

		wait := headerWait(resp.Header)
		resp.Body.Close()

		if retry >= maxThrottleRetries {
			return nil, ErrRateLimitExceeded
		}

		wait += time.Second
		if retry == 1 {
			wait += 2 * time.Second
		}
		c.sleep(wait)
	}
}

// headerWait derives the wait needed to replenish enough tokens for the
// request. Missing or malformed headers mean no wait.
func headerWait(h http.Header) time.Duration {
	remaining, err1 := strconv.Atoi(h.Get(headerRemaining))
	replenish, err2 := strconv.Atoi(h.Get(headerReplenishRate))
	requested, err3 := strconv.Atoi(h.Get(headerRequested))
	if err1 != nil || err2 != nil || err3 != nil || replenish <= 0 {
		return 0
	}
	if remaining >= requested {
		return 0
	}

	seconds := math.Ceil(float64(requested-remaining) / float64(replenish))
	return time.Duration(seconds) * time.Second
}

func statusError(resp *http.Response) error {
	return fmt.Errorf("catalog API error: status %d", resp.StatusCode)
}

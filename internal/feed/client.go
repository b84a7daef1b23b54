package feed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const maxPages = 1000

// Credentials are the HTTP Basic credentials of authenticated endpoints.
// They are supplied by the deployment environment, never embedded.
type Credentials struct {
	Username string
	Password string
}

func (c Credentials) empty() bool {
	return c.Username == "" && c.Password == ""
}

// RetryPolicy configures exponential back-off between attempts.
// The zero value disables retries.
type RetryPolicy struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Client fetches open-data feeds. It holds no state besides its configuration.
type Client struct {
	httpClient *http.Client
	creds      Credentials
	retry      RetryPolicy
}

// Option customizes a Client.
type Option func(*Client)

// WithCredentials sets the Basic credentials used by authenticated endpoints.
func WithCredentials(creds Credentials) Option {
	return func(c *Client) { c.creds = creds }
}

// WithRetry enables the retry policy.
func WithRetry(policy RetryPolicy) Option {
	return func(c *Client) { c.retry = policy }
}

// NewClient wraps httpClient; a nil client gets a 30s timeout.
func NewClient(httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	c := &Client{httpClient: httpClient}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch retrieves every record of the endpoint.
func (c *Client) Fetch(ctx context.Context, ep Endpoint) ([]Record, error) {
	if ep.Auth && c.creds.empty() {
		return nil, &AuthError{Feed: ep.Name, Err: ErrMissingCredentials}
	}
	if !ep.Paginate || ep.PageSize <= 0 {
		return c.fetchWithRetry(ctx, ep, -1, 1)
	}

	var all []Record
	start := 1
	for page := 0; page < maxPages; page++ {
		records, err := c.fetchWithRetry(ctx, ep, ep.PageSize, start)
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
		if len(records) < ep.PageSize {
			return all, nil
		}
		start += ep.PageSize
	}
	return nil, &FetchError{Feed: ep.Name, Err: fmt.Errorf("more than %d pages", maxPages)}
}

func (c *Client) fetchWithRetry(ctx context.Context, ep Endpoint, max, start int) ([]Record, error) {
	if c.retry.MaxRetries <= 0 {
		return c.fetchPage(ctx, ep, max, start)
	}

	b := backoff.NewExponentialBackOff()
	if c.retry.InitialInterval > 0 {
		b.InitialInterval = c.retry.InitialInterval
	}
	if c.retry.MaxInterval > 0 {
		b.MaxInterval = c.retry.MaxInterval
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.retry.MaxRetries)), ctx)

	return backoff.RetryNotifyWithData(
		func() ([]Record, error) {
			records, err := c.fetchPage(ctx, ep, max, start)
			if err != nil && !retryable(err) {
				return nil, backoff.Permanent(err)
			}
			return records, err
		},
		policy,
		func(err error, d time.Duration) {
			log.Printf("retrying %s in %s: %v", ep.Name, d, err)
		},
	)
}

func (c *Client) fetchPage(ctx context.Context, ep Endpoint, max, start int) ([]Record, error) {
	target := ep.URL
	if ep.Paginate {
		u, err := url.Parse(ep.URL)
		if err != nil {
			return nil, &FetchError{Feed: ep.Name, Err: err}
		}
		q := u.Query()
		q.Set("maxfeatures", strconv.Itoa(max))
		q.Set("start", strconv.Itoa(start))
		u.RawQuery = q.Encode()
		target = u.String()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &FetchError{Feed: ep.Name, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if ep.Auth {
		req.SetBasicAuth(c.creds.Username, c.creds.Password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Feed: ep.Name, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, &AuthError{Feed: ep.Name, Status: resp.StatusCode}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{Feed: ep.Name, Status: resp.StatusCode}
	}

	records, err := decodeRecords(resp.Body, ep.Envelope)
	if err != nil {
		return nil, &FetchError{Feed: ep.Name, Err: err}
	}
	return records, nil
}

// IsAuth reports whether err is a credential rejection.
func IsAuth(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

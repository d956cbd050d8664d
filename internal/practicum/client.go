// Package practicum talks to the homework review-status API.
package practicum

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"reviewbot/internal/review"
)

const (
	DefaultEndpoint  = "https://practicum.yandex.ru/api/user_api/homework_statuses/"
	defaultUserAgent = "reviewbot/1.0"
	maxBodyBytes     = 4 << 20
)

type Config struct {
	Endpoint string
	Token    string
	// Timeout bounds one request; 0 keeps the http.Client default (none).
	Timeout time.Duration
}

// Client issues GET requests to the review-status endpoint.
type Client struct {
	endpoint  *url.URL
	token     string
	http      *http.Client
	userAgent string
}

func NewClient(cfg Config) (*Client, error) {
	raw := strings.TrimSpace(cfg.Endpoint)
	if raw == "" {
		raw = DefaultEndpoint
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint %q: %w", cfg.Endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("endpoint %q: scheme must be http or https", cfg.Endpoint)
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("practicum token is empty")
	}
	return &Client{
		endpoint:  u,
		token:     strings.TrimSpace(cfg.Token),
		http:      &http.Client{Timeout: cfg.Timeout},
		userAgent: defaultUserAgent,
	}, nil
}

// Fetch returns the decoded response body for updates since cursor.
// Every failure is an EndpointUnavailable error.
func (c *Client) Fetch(ctx context.Context, cursor int64) (review.Payload, error) {
	if c == nil {
		return nil, review.EndpointUnavailable("client is nil", nil)
	}
	u := *c.endpoint
	q := u.Query()
	q.Set("from_date", strconv.FormatInt(cursor, 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, review.EndpointUnavailable("create request", err)
	}
	req.Header.Set("Authorization", "OAuth "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, review.EndpointUnavailable("", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest:
		return nil, review.EndpointUnavailable("malformed cursor", nil)
	case http.StatusUnauthorized:
		return nil, review.EndpointUnavailable("missing credentials", nil)
	default:
		return nil, review.EndpointUnavailable("unexpected status "+strconv.Itoa(resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, review.EndpointUnavailable("read body", err)
	}
	var payload review.Payload
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return nil, review.EndpointUnavailable("decode response", err)
	}
	return payload, nil
}

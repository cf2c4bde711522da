package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
)

// Email is the message the notification gateway accepts.
type Email struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

// Client posts emails to the notification gateway over HTTP. The gateway is a
// collaborator that may be down; the breaker keeps a flapping gateway from
// tying up request goroutines. Failures are the caller's to log, never to
// propagate.
type Client struct {
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker[*resty.Response]
}

func NewClient(baseURL string) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(5 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond)

	settings := gobreaker.Settings{
		Name:    "notification-gateway",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &Client{
		http:    httpClient,
		breaker: gobreaker.NewCircuitBreaker[*resty.Response](settings),
	}
}

func (c *Client) Send(ctx context.Context, email Email) error {
	resp, err := c.breaker.Execute(func() (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetBody(email).
			Post("/v1/notifications/email")
	})
	if err != nil {
		return fmt.Errorf("notification gateway call failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("notification gateway returned %s", resp.Status())
	}
	return nil
}

// ABOUTME: Notifies an HTTP endpoint of the new appearance mode.
// ABOUTME: Requests run in the background and report a WebhookOutcome through a callback.

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	// webhookField is the form field carrying "Dark" or "Light".
	webhookField = "body"
	// webhookTestValue is sent by Test instead of a mode.
	webhookTestValue = "ThemeTest"

	defaultWebhookTimeout = 30 * time.Second
	maxWebhookResponse    = 1 << 20
)

// WebhookOutcome is the result of one webhook request.
type WebhookOutcome struct {
	OK         bool
	StatusCode int
	// Body is the raw response body, when a response was received.
	Body     string
	Err      error
	Duration time.Duration
}

// WebhookNotifier posts mode changes. Safe for concurrent use.
type WebhookNotifier struct {
	client *http.Client
	wg     sync.WaitGroup
}

// NewWebhookNotifier creates a notifier. A nil client gets a default with a 30s timeout.
func NewWebhookNotifier(client *http.Client) *WebhookNotifier {
	if client == nil {
		client = &http.Client{Timeout: defaultWebhookTimeout}
	}
	return &WebhookNotifier{client: client}
}

// normalizeEndpoint falls back to DefaultWebhookURL for empty or unusable URLs.
func normalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return DefaultWebhookURL
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return DefaultWebhookURL
	}
	return endpoint
}

// Notify posts mode to endpoint in the background and returns immediately.
// done, if non-nil, is called exactly once from the background goroutine.
func (n *WebhookNotifier) Notify(ctx context.Context, mode Mode, endpoint string, done func(WebhookOutcome)) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		outcome := n.Send(ctx, mode, endpoint)
		if done != nil {
			done(outcome)
		}
	}()
}

// Send posts mode to endpoint and waits for the response.
func (n *WebhookNotifier) Send(ctx context.Context, mode Mode, endpoint string) WebhookOutcome {
	return n.post(ctx, normalizeEndpoint(endpoint), mode.WebhookValue())
}

// Test posts the test value to endpoint, for checking a URL before saving it.
func (n *WebhookNotifier) Test(ctx context.Context, endpoint string) (WebhookOutcome, error) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" {
		return WebhookOutcome{}, fmt.Errorf("%w: %q", ErrInvalidURL, endpoint)
	}
	return n.post(ctx, endpoint, webhookTestValue), nil
}

// Wait blocks until every request started by Notify has delivered its outcome.
func (n *WebhookNotifier) Wait() {
	n.wg.Wait()
}

func (n *WebhookNotifier) post(ctx context.Context, endpoint, value string) WebhookOutcome {
	start := time.Now()
	form := url.Values{webhookField: {value}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return WebhookOutcome{Err: fmt.Errorf("failed to create request: %w", err), Duration: time.Since(start)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return WebhookOutcome{Err: fmt.Errorf("request failed: %w", err), Duration: time.Since(start)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxWebhookResponse))
	outcome := WebhookOutcome{
		StatusCode: resp.StatusCode,
		Body:       string(body),
		Duration:   time.Since(start),
	}
	if err != nil {
		outcome.Err = fmt.Errorf("failed to read response: %w", err)
		return outcome
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		outcome.Err = &WebhookStatusError{StatusCode: resp.StatusCode, Body: outcome.Body}
		return outcome
	}

	outcome.OK = true
	return outcome
}

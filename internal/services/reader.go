package services

import (
	"compress/gzip"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"calclik-event-scanner/internal/log"
)

// ReaderClient fetches the readable text of a webpage through the Jina AI
// Reader proxy. It is the text-only page acquisition path; the scanner core
// only ever sees the returned string.
type ReaderClient struct {
	httpClient  *http.Client
	baseURL     string
	userAgents  []string
	retryConfig RetryConfig
}

// RetryConfig defines retry behavior for failed fetches.
type RetryConfig struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// minReadableLength guards against error pages masquerading as content.
const minReadableLength = 100

// NewReaderClient creates a reader client with sane retry defaults.
func NewReaderClient() *ReaderClient {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		IdleConnTimeout: 90 * time.Second,
	}

	return &ReaderClient{
		httpClient: &http.Client{
			Timeout:   45 * time.Second,
			Transport: transport,
		},
		baseURL: "https://r.jina.ai",
		userAgents: []string{
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
			"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		},
		retryConfig: RetryConfig{
			MaxRetries:    3,
			InitialDelay:  1 * time.Second,
			MaxDelay:      10 * time.Second,
			BackoffFactor: 2.0,
		},
	}
}

// NewReaderClientWithTimeout creates a reader client with a custom fetch
// timeout.
func NewReaderClientWithTimeout(timeout time.Duration) *ReaderClient {
	client := NewReaderClient()
	client.httpClient.Timeout = timeout
	return client
}

// FetchPageText fetches the readable text of the page at url, retrying
// transient failures with exponential backoff.
func (r *ReaderClient) FetchPageText(ctx context.Context, url string) (string, error) {
	if err := r.ValidateURL(url); err != nil {
		return "", err
	}

	var lastErr error

	for attempt := 0; attempt <= r.retryConfig.MaxRetries; attempt++ {
		text, err := r.attemptFetch(ctx, url, attempt)
		if err == nil {
			return text, nil
		}

		lastErr = err

		// Client errors won't improve on retry.
		if strings.Contains(err.Error(), "status 4") {
			break
		}

		if attempt < r.retryConfig.MaxRetries {
			delay := r.backoffDelay(attempt)
			log.Warn("page fetch failed, retrying", "url", url, "attempt", attempt+1, "delay", delay, "err", err)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}

	return "", fmt.Errorf("failed after %d attempts: %w", r.retryConfig.MaxRetries+1, lastErr)
}

func (r *ReaderClient) attemptFetch(ctx context.Context, url string, attempt int) (string, error) {
	readerURL := fmt.Sprintf("%s/%s", r.baseURL, url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, readerURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	// Rotate user agent across retries; some event sites block obvious bots.
	req.Header.Set("User-Agent", r.userAgents[attempt%len(r.userAgents)])
	req.Header.Set("Accept", "text/plain,text/html;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	if attempt > 0 {
		req.Header.Set("Cache-Control", "no-cache")
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("reader request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("reader returned status %d: %s", resp.StatusCode, string(body))
	}

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return "", fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	content, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to read reader response: %w", err)
	}

	text := string(content)
	if len(text) < minReadableLength {
		return "", fmt.Errorf("content too short (%d chars), might be an error page", len(text))
	}

	return text, nil
}

// backoffDelay computes the exponential backoff with jitter for a retry.
func (r *ReaderClient) backoffDelay(attempt int) time.Duration {
	delay := float64(r.retryConfig.InitialDelay)
	for i := 0; i < attempt; i++ {
		delay *= r.retryConfig.BackoffFactor
	}
	delay += rand.Float64() * 0.1 * float64(r.retryConfig.InitialDelay)

	if delay > float64(r.retryConfig.MaxDelay) {
		delay = float64(r.retryConfig.MaxDelay)
	}

	return time.Duration(delay)
}

// ValidateURL performs basic URL validation before fetching.
func (r *ReaderClient) ValidateURL(url string) error {
	if url == "" {
		return fmt.Errorf("URL cannot be empty")
	}

	if len(url) > 2048 {
		return fmt.Errorf("URL too long: %d characters", len(url))
	}

	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return fmt.Errorf("URL must start with http:// or https://")
	}

	return nil
}

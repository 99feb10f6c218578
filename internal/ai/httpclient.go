package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	requestTimeout = 60 * time.Second

	// Transport-level retries for network errors and 5xx responses. This is
	// distinct from the chain's no-retry-on-same-provider rule: business
	// failures advance the chain, wire hiccups get one more shot here.
	maxTransportRetries = 2
	retryBackoff        = 2 * time.Second
)

var httpClient = &http.Client{Timeout: requestTimeout}

// postJSON posts a JSON body and decodes a JSON response, retrying transient
// failures. 4xx responses are terminal and returned as non-transient
// provider errors.
func postJSON(ctx context.Context, provider, url string, headers map[string]string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return newProviderError(provider, fmt.Sprintf("marshal request: %v", err), false)
	}

	var lastErr *ProviderError
	for attempt := 0; attempt <= maxTransportRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return newProviderError(provider, ctx.Err().Error(), true)
			case <-time.After(retryBackoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return newProviderError(provider, fmt.Sprintf("create request: %v", err), false)
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := httpClient.Do(req)
		if err != nil {
			lastErr = newProviderError(provider, fmt.Sprintf("request error: %v", err), true)
			slog.Info(lastErr.Error())
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = newProviderError(provider, fmt.Sprintf("read response: %v", err), true)
			continue
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			if err := json.Unmarshal(respBody, out); err != nil {
				return newProviderError(provider, fmt.Sprintf("parse response: %v", err), false)
			}
			return nil
		case resp.StatusCode >= 500:
			lastErr = newProviderError(provider, fmt.Sprintf("status %d: %s", resp.StatusCode, truncate(respBody, 200)), true)
			slog.Info(lastErr.Error())
		default:
			// Auth failures, policy rejections, quota errors. Retrying the
			// same provider would hit the same wall.
			return newProviderError(provider, fmt.Sprintf("status %d: %s", resp.StatusCode, truncate(respBody, 200)), false)
		}
	}
	return lastErr
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

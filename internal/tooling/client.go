package tooling

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"opschat/internal/domain"
)

// newHTTPClient returns the retrying HTTP client shared by tool
// implementations. Third-party APIs are flaky; transient failures are retried
// a couple of times before the dispatcher sees an error result.
func newHTTPClient() *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.RetryMax = 2
	c.RetryWaitMin = 200 * time.Millisecond
	c.RetryWaitMax = 2 * time.Second
	c.HTTPClient.Timeout = 15 * time.Second
	c.Logger = nil
	return c
}

// doJSON executes an HTTP request and returns the response body as a string.
// Non-2xx responses are converted to domain.ErrToolExecution so the dispatcher
// can normalize them into an error ToolResult.
func doJSON(ctx context.Context, client *retryablehttp.Client, method, url string, headers map[string]string, body io.Reader) (string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrToolExecution, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrToolExecution, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrToolExecution, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: %s returned %s", domain.ErrToolExecution, url, resp.Status)
	}
	return string(raw), nil
}

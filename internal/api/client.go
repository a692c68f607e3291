package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrFetchFailed marks a remote JSON source that answered with a non-2xx
// status, could not be reached, or returned a body that does not parse.
var ErrFetchFailed = errors.New("fetch failed")

type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status code: %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetchFailed }

type Client struct {
	httpClient *http.Client
	baseURL    string
	headers    map[string]string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		headers: map[string]string{
			"Accept":     "application/json",
			"User-Agent": "fplforecaster/1.0",
		},
	}
}

// GetRaw performs a GET and returns the body of a 2xx response.
func (c *Client) GetRaw(ctx context.Context, endpoint string, params map[string]string) ([]byte, error) {
	url := fmt.Sprintf("%s%s", c.baseURL, endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("error creating request: %w", err)}
	}

	q := req.URL.Query()
	for key, value := range params {
		q.Add(key, strings.TrimSpace(value))
	}
	req.URL.RawQuery = q.Encode()

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("error making request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("error reading response: %w", err)}
	}
	return body, nil
}

// Get performs a GET and decodes the JSON body into result.
func (c *Client) Get(ctx context.Context, endpoint string, params map[string]string, result any) error {
	body, err := c.GetRaw(ctx, endpoint, params)
	if err != nil {
		return err
	}
	return Decode(c.baseURL+endpoint, body, result)
}

// Decode unmarshals body, reporting failures as a FetchError for url.
func Decode(url string, body []byte, result any) error {
	if err := json.Unmarshal(body, result); err != nil {
		return &FetchError{URL: url, Err: fmt.Errorf("error decoding response: %w", err)}
	}
	return nil
}

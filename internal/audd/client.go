package audd

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"cinescan/internal/metrics"
)

// Song is the track AudD recognized.
type Song struct {
	Artist      string `json:"artist"`
	Title       string `json:"title"`
	Album       string `json:"album"`
	ReleaseDate string `json:"release_date"`
	Label       string `json:"label"`
	Timecode    string `json:"timecode"`
	SongLink    string `json:"song_link"`
}

// Query returns the "<title> <artist>" text used for title search.
func (s *Song) Query() string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimSpace(s.Title) + " " + strings.TrimSpace(s.Artist))
}

type recognizeResponse struct {
	Status string `json:"status"`
	Result *Song  `json:"result"`
	Error  *struct {
		Code    int    `json:"error_code"`
		Message string `json:"error_message"`
	} `json:"error"`
}

// Client calls the AudD recognize endpoint.
type Client struct {
	apiToken   string
	baseURL    string
	returns    string
	timeout    time.Duration
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the HTTP client timeout, including on a client passed with
// WithHTTPClient.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithReturn sets the comma separated list of extra metadata sources.
func WithReturn(returns string) Option {
	return func(c *Client) {
		c.returns = strings.TrimSpace(returns)
	}
}

// New creates an AudD client.
func New(apiToken, baseURL string, opts ...Option) (*Client, error) {
	apiToken = strings.TrimSpace(apiToken)
	if apiToken == "" {
		return nil, errors.New("audd api token required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("audd base url required")
	}
	client := &Client{
		apiToken:   apiToken,
		baseURL:    baseURL,
		returns:    "apple_music,spotify",
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.timeout > 0 {
		withTimeout := *client.httpClient
		withTimeout.Timeout = client.timeout
		client.httpClient = &withTimeout
	}
	return client, nil
}

// Recognize submits an audio clip. A nil song with a nil error means AudD
// processed the clip but found no match.
func (c *Client) Recognize(ctx context.Context, audio []byte) (*Song, error) {
	if len(audio) == 0 {
		return nil, errors.New("audio must not be empty")
	}
	form := url.Values{}
	form.Set("api_token", c.apiToken)
	form.Set("audio", base64.StdEncoding.EncodeToString(audio))
	if c.returns != "" {
		form.Set("return", c.returns)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		metrics.RecordExternalCall("audd", "recognize", latency, err)
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("audd recognize returned %d (latency=%v)", resp.StatusCode, latency)
		metrics.RecordExternalCall("audd", "recognize", latency, err)
		return nil, err
	}

	var payload recognizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		metrics.RecordExternalCall("audd", "recognize", latency, err)
		return nil, fmt.Errorf("decode audd response: %w", err)
	}
	if payload.Status != "success" {
		err := errors.New("audd recognize failed")
		if payload.Error != nil {
			err = fmt.Errorf("audd error %d: %s", payload.Error.Code, payload.Error.Message)
		}
		metrics.RecordExternalCall("audd", "recognize", latency, err)
		return nil, err
	}
	metrics.RecordExternalCall("audd", "recognize", latency, nil)
	if payload.Result == nil || payload.Result.Query() == "" {
		return nil, nil
	}
	return payload.Result, nil
}

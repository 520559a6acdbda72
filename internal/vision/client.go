package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"cinescan/internal/metrics"
	"cinescan/internal/recognition"
)

type feature struct {
	Type       string `json:"type"`
	MaxResults int    `json:"maxResults"`
}

type annotateRequest struct {
	Requests []imageRequest `json:"requests"`
}

type imageRequest struct {
	Image    imageContent `json:"image"`
	Features []feature    `json:"features"`
}

type imageContent struct {
	Content string `json:"content"`
}

type annotateResponse struct {
	Responses []imageResponse `json:"responses"`
}

type imageResponse struct {
	TextAnnotations []struct {
		Description string `json:"description"`
	} `json:"textAnnotations"`
	WebDetection *struct {
		WebEntities []struct {
			EntityID    string  `json:"entityId"`
			Score       float64 `json:"score"`
			Description string  `json:"description"`
		} `json:"webEntities"`
		BestGuessLabels []struct {
			Label string `json:"label"`
		} `json:"bestGuessLabels"`
	} `json:"webDetection"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client annotates images through Google Vision.
type Client struct {
	apiKey         string
	baseURL        string
	textMaxResults int
	webMaxResults  int
	timeout        time.Duration
	httpClient     *http.Client
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

// WithMaxResults overrides the per-feature result caps.
func WithMaxResults(text, web int) Option {
	return func(c *Client) {
		if text > 0 {
			c.textMaxResults = text
		}
		if web > 0 {
			c.webMaxResults = web
		}
	}
}

// WithTimeout sets the HTTP client timeout. It applies to a client passed with
// WithHTTPClient too, whatever the option order.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// New creates a Vision client.
func New(apiKey, baseURL string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("vision api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("vision base url required")
	}
	client := &Client{
		apiKey:         apiKey,
		baseURL:        strings.TrimRight(baseURL, "/"),
		textMaxResults: 10,
		webMaxResults:  25,
		httpClient:     &http.Client{Timeout: 30 * time.Second},
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

// Detect runs text and web detection on image and returns the candidate pools.
func (c *Client) Detect(ctx context.Context, image []byte) (*recognition.DetectionResult, error) {
	if len(image) == 0 {
		return nil, errors.New("image must not be empty")
	}
	body, err := json.Marshal(annotateRequest{Requests: []imageRequest{{
		Image: imageContent{Content: base64.StdEncoding.EncodeToString(image)},
		Features: []feature{
			{Type: "TEXT_DETECTION", MaxResults: c.textMaxResults},
			{Type: "WEB_DETECTION", MaxResults: c.webMaxResults},
		},
	}}})
	if err != nil {
		return nil, fmt.Errorf("encode vision request: %w", err)
	}

	endpoint := c.baseURL + "/images:annotate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// Keep the key out of the URL; transport errors echo it.
	req.Header.Set("X-Goog-Api-Key", c.apiKey)

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		metrics.RecordExternalCall("vision", "annotate", latency, err)
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = endpoint
		}
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("vision annotate returned %d (latency=%v)", resp.StatusCode, latency)
		metrics.RecordExternalCall("vision", "annotate", latency, err)
		return nil, err
	}

	var payload annotateResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		metrics.RecordExternalCall("vision", "annotate", latency, err)
		return nil, fmt.Errorf("decode vision response: %w", err)
	}
	metrics.RecordExternalCall("vision", "annotate", latency, nil)

	if len(payload.Responses) == 0 {
		return &recognition.DetectionResult{}, nil
	}
	first := payload.Responses[0]
	if first.Error != nil && first.Error.Message != "" {
		return nil, fmt.Errorf("vision annotate error %d: %s", first.Error.Code, first.Error.Message)
	}
	return toDetection(first), nil
}

func toDetection(resp imageResponse) *recognition.DetectionResult {
	result := &recognition.DetectionResult{}
	for _, annotation := range resp.TextAnnotations {
		if strings.TrimSpace(annotation.Description) == "" {
			continue
		}
		result.RawText = append(result.RawText, annotation.Description)
	}
	if resp.WebDetection == nil {
		return result
	}
	for _, label := range resp.WebDetection.BestGuessLabels {
		if strings.TrimSpace(label.Label) == "" {
			continue
		}
		result.BestGuessLabels = append(result.BestGuessLabels, label.Label)
	}
	for _, entity := range resp.WebDetection.WebEntities {
		if strings.TrimSpace(entity.Description) == "" {
			continue
		}
		result.WebEntities = append(result.WebEntities, recognition.WebEntity{
			Text:  entity.Description,
			Score: entity.Score,
		})
	}
	sort.SliceStable(result.WebEntities, func(i, j int) bool {
		return result.WebEntities[i].Score > result.WebEntities[j].Score
	})
	return result
}

package cmab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"
)

// DefaultEndpoint is the prediction endpoint template; %s is the rule id.
const DefaultEndpoint = "https://prediction.cmab.optimizely.com/predict/%s"

// Scorer is the external contextual-bandit collaborator.
type Scorer interface {
	Fetch(ctx context.Context, ruleID, userID string, attrs map[string]any, cmabUUID string) (string, error)
}

// ScorerFunc adapts a function to Scorer.
type ScorerFunc func(ctx context.Context, ruleID, userID string, attrs map[string]any, cmabUUID string) (string, error)

func (f ScorerFunc) Fetch(ctx context.Context, ruleID, userID string, attrs map[string]any, cmabUUID string) (string, error) {
	return f(ctx, ruleID, userID, attrs, cmabUUID)
}

type predictionAttribute struct {
	ID    string `json:"id"`
	Value any    `json:"value"`
	Type  string `json:"type"`
}

type predictionInstance struct {
	VisitorID    string                `json:"visitorId"`
	ExperimentID string                `json:"experimentId"`
	Attributes   []predictionAttribute `json:"attributes"`
	CmabUUID     string                `json:"cmabUUID"`
}

type predictionRequest struct {
	Instances []predictionInstance `json:"instances"`
}

type predictionResponse struct {
	Predictions []struct {
		VariationID string `json:"variation_id"`
	} `json:"predictions"`
}

// HTTPScorer calls the prediction service over HTTP with a single attempt per
// fetch. Zero value is not usable; use NewHTTPScorer.
type HTTPScorer struct {
	client   *http.Client
	endpoint string
	timeout  time.Duration
	headers  map[string]string
}

// HTTPOption configures an HTTPScorer.
type HTTPOption func(*HTTPScorer)

// WithEndpoint sets the endpoint template. It must contain one %s for the
// rule id.
func WithEndpoint(endpoint string) HTTPOption {
	return func(s *HTTPScorer) {
		if endpoint != "" {
			s.endpoint = endpoint
		}
	}
}

// WithTimeout bounds one prediction request.
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(s *HTTPScorer) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithHTTPClient sets a custom HTTP client. Useful for proxies or testing.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(s *HTTPScorer) {
		if client != nil {
			s.client = client
		}
	}
}

// WithHeader adds a header to every prediction request.
func WithHeader(key, value string) HTTPOption {
	return func(s *HTTPScorer) {
		if key != "" && value != "" {
			s.headers[key] = value
		}
	}
}

// NewHTTPScorer creates a scorer with a pooled HTTP client.
func NewHTTPScorer(opts ...HTTPOption) *HTTPScorer {
	s := &HTTPScorer{
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		endpoint: DefaultEndpoint,
		timeout:  10 * time.Second,
		headers:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch asks the prediction service for the variation of ruleID.
func (s *HTTPScorer) Fetch(ctx context.Context, ruleID, userID string, attrs map[string]any, cmabUUID string) (string, error) {
	endpoint, err := s.url(ruleID)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(predictionRequest{Instances: []predictionInstance{{
		VisitorID:    userID,
		ExperimentID: ruleID,
		Attributes:   toPredictionAttributes(attrs),
		CmabUUID:     cmabUUID,
	}}})
	if err != nil {
		return "", fmt.Errorf("failed to marshal prediction request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "flagkit-cmab/1.0")
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	// 64KB is far above any prediction payload.
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024*64))
	if err != nil {
		return "", fmt.Errorf("%w: read body: %w", ErrFetchFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.ReplaceAll(string(body), "\n", " ")
		if len(msg) > 200 {
			msg = msg[:200] + "..."
		}
		return "", fmt.Errorf("%w: prediction service returned status %d: %s", ErrFetchFailed, resp.StatusCode, msg)
	}

	var decoded predictionResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	if len(decoded.Predictions) == 0 || decoded.Predictions[0].VariationID == "" {
		return "", fmt.Errorf("%w: no prediction returned", ErrInvalidResponse)
	}
	return decoded.Predictions[0].VariationID, nil
}

func (s *HTTPScorer) url(ruleID string) (string, error) {
	raw := s.endpoint
	if strings.Contains(raw, "%s") {
		raw = fmt.Sprintf(raw, url.PathEscape(ruleID))
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidEndpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: only http and https schemes are supported", ErrInvalidEndpoint)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: host is required", ErrInvalidEndpoint)
	}
	return u.String(), nil
}

func toPredictionAttributes(attrs map[string]any) []predictionAttribute {
	out := make([]predictionAttribute, 0, len(attrs))
	for id, v := range attrs {
		out = append(out, predictionAttribute{ID: id, Value: v, Type: "custom_attribute"})
	}
	slices.SortFunc(out, func(a, b predictionAttribute) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

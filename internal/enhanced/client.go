package enhanced

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Sameer-159/Air-Quality/internal/aqi"
	"github.com/Sameer-159/Air-Quality/internal/breaker"
)

// Client calls a remote enhanced-scoring backend: POST {base}/enhanced_assess
// with the reading as JSON. All transport, status, and decode failures are
// reported as ErrBackendUnavailable so the caller's fallback chain stays
// uniform.
type Client struct {
	base string
	h    *breaker.HTTPClient
	log  *slog.Logger
}

func NewClient(base string, cfg breaker.Config, log *slog.Logger) *Client {
	httpClient := &http.Client{Timeout: 10 * time.Second}
	return &Client{
		base: base,
		h:    breaker.NewHTTPClient("enhanced-backend", cfg, base+"/health", httpClient, log),
		log:  log,
	}
}

type remoteResponse struct {
	Success    bool                      `json:"success"`
	Score      float64                   `json:"fuzzy_aqi"`
	EPAAQI     float64                   `json:"epa_aqi"`
	Category   aqi.EnhancedCategory      `json:"category"`
	Confidence float64                   `json:"confidence"`
	RuleCount  int                       `json:"rule_count"`
	Membership map[string]aqi.Membership `json:"membership"`
	Error      string                    `json:"error"`
}

func (c *Client) Score(ctx context.Context, r aqi.Reading) (aqi.EnhancedResult, error) {
	if err := r.Validate(); err != nil {
		return aqi.EnhancedResult{}, err
	}

	body, err := json.Marshal(r)
	if err != nil {
		return aqi.EnhancedResult{}, fmt.Errorf("encode reading: %w", ErrBackendUnavailable)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/enhanced_assess", bytes.NewReader(body))
	if err != nil {
		return aqi.EnhancedResult{}, fmt.Errorf("build request: %w", ErrBackendUnavailable)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.h.Do(req)
	if err != nil {
		c.log.Warn("enhanced backend call failed", "err", err)
		return aqi.EnhancedResult{}, fmt.Errorf("%v: %w", err, ErrBackendUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Warn("enhanced backend bad status", "status", resp.StatusCode, "body", string(b))
		return aqi.EnhancedResult{}, fmt.Errorf("backend returned %d: %w", resp.StatusCode, ErrBackendUnavailable)
	}

	var payload remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return aqi.EnhancedResult{}, fmt.Errorf("decode response: %w", ErrBackendUnavailable)
	}
	if !payload.Success {
		return aqi.EnhancedResult{}, fmt.Errorf("backend error %q: %w", payload.Error, ErrBackendUnavailable)
	}

	return aqi.EnhancedResult{
		Score:      payload.Score,
		EPAAQI:     payload.EPAAQI,
		Category:   payload.Category,
		Confidence: payload.Confidence,
		RuleCount:  payload.RuleCount,
		Membership: payload.Membership,
	}, nil
}

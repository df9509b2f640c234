// Package scoring provides the HTTP client for the external loan-risk
// scoring service, including the client-side call cooldown and the
// periodic liveness monitor.
package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	apperrors "loanrisk/internal/errors"
	"loanrisk/internal/models"
)

// Result is a single scoring outcome, parallel to the submitted
// application sequence. The two probabilities are complementary.
type Result struct {
	Prediction           models.Decision `json:"prediction"`
	ApprovalProbability  float64         `json:"approval_probability"`
	RejectionProbability float64         `json:"rejection_probability"`
}

// Scorer defines the scoring operations needed by the handlers.
type Scorer interface {
	Predict(ctx context.Context, apps []models.LoanApplication) ([]Result, error)
	CheckHealth(ctx context.Context) error
}

// Client communicates with the scoring API. A local rate limiter rejects
// calls issued within the cooldown window of the previous accepted call,
// without any network activity.
type Client struct {
	baseURL      string
	apiKey       string
	httpClient   *http.Client
	healthClient *http.Client
	limiter      *rate.Limiter
	now          func() time.Time
}

// NewClient creates a scoring API client. requestTimeout bounds prediction
// calls, healthTimeout bounds liveness probes, and cooldown is the minimum
// spacing between accepted prediction calls.
func NewClient(baseURL, apiKey string, requestTimeout, healthTimeout, cooldown time.Duration) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		httpClient:   &http.Client{Timeout: requestTimeout},
		healthClient: &http.Client{Timeout: healthTimeout},
		limiter:      rate.NewLimiter(rate.Every(cooldown), 1),
		now:          time.Now,
	}
}

// errorResponse is the scoring API's error payload shape.
type errorResponse struct {
	Detail string `json:"detail"`
	Error  string `json:"error"`
}

// Predict submits the ordered applicant sequence (one element for a single
// prediction) and returns the parallel result sequence. A call inside the
// cooldown window fails with RATE_LIMITED before touching the network.
func (c *Client) Predict(ctx context.Context, apps []models.LoanApplication) ([]Result, error) {
	if len(apps) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "No applications to score")
	}
	if !c.limiter.AllowN(c.now(), 1) {
		return nil, apperrors.ErrRateLimited
	}

	body, err := json.Marshal(apps)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		var payload errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		detail := payload.Detail
		if detail == "" {
			detail = payload.Error
		}
		if detail == "" {
			detail = fmt.Sprintf("unexpected status %d", resp.StatusCode)
		}
		return nil, apperrors.Wrap(apperrors.ErrScoringUnavailable, fmt.Errorf("scoring request failed: %s", detail))
	}

	var results []Result
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrScoringUnavailable, fmt.Errorf("decoding scoring response: %w", err))
	}
	if len(results) != len(apps) {
		return nil, apperrors.Wrap(apperrors.ErrScoringUnavailable,
			fmt.Errorf("scoring returned %d results for %d applications", len(results), len(apps)))
	}
	return results, nil
}

// CheckHealth probes the scoring API root with the short health timeout.
func (c *Client) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp, err := c.healthClient.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return apperrors.Wrap(apperrors.ErrScoringUnavailable, fmt.Errorf("health probe status %d", resp.StatusCode))
	}
	return nil
}

// classifyTransportError maps timeouts to SCORING_TIMEOUT and everything
// else to SCORING_UNAVAILABLE.
func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(apperrors.ErrScoringTimeout, err)
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperrors.Wrap(apperrors.ErrScoringTimeout, err)
	}
	return apperrors.Wrap(apperrors.ErrScoringUnavailable, err)
}

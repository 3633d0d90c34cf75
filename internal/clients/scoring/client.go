package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"github.com/maxaizer/jobmatch/internal/entities"
	"github.com/maxaizer/jobmatch/internal/metrics"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	singleScorePath = "/calculate-job-match"
	batchScorePath  = "/calculate-batch-job-match"
	semanticPath    = "/semantic-search"

	DefaultSingleTimeout   = 30 * time.Second
	DefaultBatchTimeout    = 60 * time.Second
	DefaultSemanticTimeout = 20 * time.Second
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	baseURL       string
	serviceToken  string
	httpClient    HTTPClient
	rateLimiter   *rate.Limiter
	singleTimeout time.Duration
	batchTimeout  time.Duration
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpClient:    &http.Client{},
		singleTimeout: DefaultSingleTimeout,
		batchTimeout:  DefaultBatchTimeout,
	}
}

func (c *Client) SetHTTPClient(client HTTPClient) {
	c.httpClient = client
}

func (c *Client) SetRateLimit(maxRequestsPerSecond float32) {
	if maxRequestsPerSecond <= 0 {
		c.rateLimiter = nil
		return
	}
	c.rateLimiter = rate.NewLimiter(rate.Limit(maxRequestsPerSecond), 1)
}

func (c *Client) SetTimeouts(single, batch time.Duration) {
	c.singleTimeout = single
	c.batchTimeout = batch
}

// SetServiceToken sets the token sent when the context carries no caller token.
func (c *Client) SetServiceToken(token string) {
	c.serviceToken = token
}

type jobData struct {
	JobID        string `json:"job_id,omitempty"`
	Role         string `json:"role"`
	Description  string `json:"description"`
	Requirements string `json:"requirements"`
}

type singleScoreRequest struct {
	UserID  string  `json:"user_id"`
	JobData jobData `json:"job_data"`
}

type singleScoreResponse struct {
	MatchScore *float64 `json:"matchScore"`
}

type batchScoreRequest struct {
	UserID string    `json:"user_id"`
	Jobs   []jobData `json:"jobs"`
}

type batchScoreItem struct {
	JobID      string   `json:"job_id"`
	MatchScore *float64 `json:"matchScore"`
}

func (c *Client) ScoreOne(ctx context.Context, candidateID string, job entities.JobDescriptor) (entities.MatchScore, error) {

	ctx, cancel := context.WithTimeout(ctx, c.singleTimeout)
	defer cancel()

	request := singleScoreRequest{
		UserID: candidateID,
		JobData: jobData{
			Role:         job.Role,
			Description:  job.Description,
			Requirements: job.Requirements,
		},
	}

	var response singleScoreResponse
	if err := c.post(ctx, "single", singleScorePath, request, &response); err != nil {
		return entities.NoScore(), err
	}

	return entities.NormalizeScore(response.MatchScore), nil
}

// ScoreBatch scores all jobs of one candidate in a single round trip. Jobs the service
// left out or answered with null are absent from the result.
func (c *Client) ScoreBatch(ctx context.Context, candidateID string,
	jobs []entities.JobDescriptor) (map[string]entities.MatchScore, error) {

	scores := make(map[string]entities.MatchScore, len(jobs))
	if len(jobs) == 0 {
		return scores, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.batchTimeout)
	defer cancel()

	request := batchScoreRequest{UserID: candidateID, Jobs: make([]jobData, 0, len(jobs))}
	for _, job := range jobs {
		request.Jobs = append(request.Jobs, jobData{
			JobID:        job.JobID,
			Role:         job.Role,
			Description:  job.Description,
			Requirements: job.Requirements,
		})
	}

	var response []batchScoreItem
	if err := c.post(ctx, "batch", batchScorePath, request, &response); err != nil {
		return nil, err
	}

	for _, item := range response {
		if score := entities.NormalizeScore(item.MatchScore); score.Known() && item.JobID != "" {
			scores[item.JobID] = score
		}
	}
	return scores, nil
}

// SemanticSearch forwards an opaque search request and hands back whatever the service
// answered. Only a failure to get an answer at all is returned as an error.
func (c *Client) SemanticSearch(ctx context.Context, body []byte) (status int, respBody []byte, err error) {

	ctx, cancel := context.WithTimeout(ctx, DefaultSemanticTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		outcome := outcomeOf(err)
		if err == nil && (status < 200 || status > 299) {
			outcome = "upstream_error"
		}
		metrics.ScoringDuration.WithLabelValues("semantic").Observe(time.Since(start).Seconds())
		metrics.ScoringRequests.WithLabelValues("semantic", outcome).Inc()
	}()

	resp, err := c.send(ctx, semanticPath, body)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err = io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, errors.Wrapf(ErrUpstreamUnavailable, "error reading response body: %v", err)
	}
	return resp.StatusCode, respBody, nil
}

func (c *Client) post(ctx context.Context, operation string, path string, payload any, v any) (err error) {

	start := time.Now()
	defer func() {
		metrics.ScoringDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
		metrics.ScoringRequests.WithLabelValues(operation, outcomeOf(err)).Inc()
	}()

	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "marshal payload")
	}

	resp, err := c.send(ctx, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return c.handleResponse(resp, v)
}

func (c *Client) send(ctx context.Context, path string, body []byte) (*http.Response, error) {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, errors.Wrap(ErrUpstreamTimeout, err.Error())
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "error creating request")
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.tokenFor(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}
	return resp, nil
}

func (c *Client) handleResponse(resp *http.Response, v any) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(ErrUpstreamUnavailable, "error reading response body: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err = json.Unmarshal(body, v); err != nil {
		return errors.Wrapf(ErrMalformedResponse, "error decoding JSON response: %v", err)
	}
	return nil
}

func (c *Client) tokenFor(ctx context.Context) string {
	if token := TokenFromContext(ctx); token != "" {
		return token
	}
	return c.serviceToken
}

func classifyTransportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.Wrap(ErrUpstreamTimeout, err.Error())
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errors.Wrap(ErrUpstreamTimeout, err.Error())
	}
	return errors.Wrap(ErrUpstreamUnavailable, err.Error())
}

func outcomeOf(err error) string {
	var upstreamErr *UpstreamError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUpstreamTimeout):
		return "timeout"
	case errors.As(err, &upstreamErr):
		return "upstream_error"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	default:
		return "unavailable"
	}
}

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// DefaultModel is the model used when none is configured.
const DefaultModel = "llama-3.3-70b-versatile"

// defaultBaseURL is the Groq OpenAI-compatible endpoint root.
const defaultBaseURL = "https://api.groq.com/openai/v1"

// Groq implements Client against an OpenAI-compatible chat-completions API.
// It applies a per-call timeout, bounded retry with jittered backoff on
// transient failures, and an optional client-side rate limiter.
type Groq struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	timeout    time.Duration
	retry      RetryConfig
	limiter    *rate.Limiter
}

// GroqOption configures Groq.
type GroqOption func(*Groq)

// NewGroq creates a new Groq client.
func NewGroq(apiKey string, opts ...GroqOption) *Groq {
	g := &Groq{
		httpClient: http.DefaultClient,
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		model:      DefaultModel,
		timeout:    60 * time.Second,
		retry:      DefaultRetry,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(c *http.Client) GroqOption {
	return func(g *Groq) { g.httpClient = c }
}

// WithBaseURL overrides the API endpoint root.
func WithBaseURL(url string) GroqOption {
	return func(g *Groq) { g.baseURL = url }
}

// WithModel sets the model.
func WithModel(model string) GroqOption {
	return func(g *Groq) { g.model = model }
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) GroqOption {
	return func(g *Groq) { g.timeout = d }
}

// WithRetry sets the retry configuration.
func WithRetry(cfg RetryConfig) GroqOption {
	return func(g *Groq) { g.retry = cfg }
}

// WithRateLimit caps outbound calls at n per second.
func WithRateLimit(n float64) GroqOption {
	return func(g *Groq) {
		g.limiter = rate.NewLimiter(rate.Limit(n), 1)
	}
}

// chatRequest is the OpenAI-compatible chat-completions request body.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the subset of the response body we consume.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete implements Client.
func (g *Groq) Complete(ctx context.Context, prompt string) (string, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", NewError("complete", err, false)
		}
	}

	return withRetry(ctx, g.retry, func(ctx context.Context) (string, error) {
		callCtx := ctx
		if g.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, g.timeout)
			defer cancel()
		}
		return g.complete(callCtx, prompt)
	})
}

// complete performs a single chat-completions call.
func (g *Groq) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:    g.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", NewError("complete", fmt.Errorf("encode request: %w", err), false)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", NewError("complete", err, false)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		// Network-level failures are worth retrying unless the caller gave up.
		if ctx.Err() != nil {
			return "", NewError("complete", ctx.Err(), false)
		}
		return "", NewError("complete", err, true)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", NewError("complete", fmt.Errorf("read response: %w", err), true)
	}

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return "", NewError("complete",
			fmt.Errorf("http %d: %s", resp.StatusCode, truncate(string(payload), 200)), retryable)
	}

	var parsed chatResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return "", NewError("complete", fmt.Errorf("decode response: %w", err), false)
	}
	if parsed.Error != nil {
		return "", NewError("complete", fmt.Errorf("%s: %s", parsed.Error.Type, parsed.Error.Message), false)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", NewError("complete", ErrEmptyContent, false)
	}

	return parsed.Choices[0].Message.Content, nil
}

// truncate bounds diagnostic strings.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	genai "github.com/google/generative-ai-go/genai"

	"learnbox-tutor/internal/logger"
	"learnbox-tutor/internal/rag"
)

// GeminiChat wraps the Gemini generative model behind a circuit breaker and
// rate limiter. Implements rag.LanguageModel.
type GeminiChat struct {
	client  *genai.Client
	model   string
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

// NewGeminiChat builds a shared chat client. Construct once at process start;
// safe for concurrent use.
func NewGeminiChat(ctx context.Context, apiKey, model string, rpm int) (*GeminiChat, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY for chat completions")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	if rpm <= 0 {
		rpm = 10
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GeminiChat",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	// RPM limit with some headroom
	limiter := rate.NewLimiter(rate.Limit(float64(rpm)*0.9/60.0), rpm)

	return &GeminiChat{
		client:  client,
		model:   model,
		breaker: breaker,
		limiter: limiter,
	}, nil
}

// Complete sends the system and user messages to Gemini and returns the model
// text verbatim. Errors are not retried here; retry policy belongs to the
// caller.
func (g *GeminiChat) Complete(ctx context.Context, messages []rag.Message) (string, error) {
	tracer := otel.Tracer("gemini-chat")
	ctx, span := tracer.Start(ctx, "gemini.complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("gemini.model", g.model),
		attribute.Int("gemini.message_count", len(messages)),
	)

	if err := g.limiter.Wait(ctx); err != nil {
		span.SetAttributes(attribute.Bool("gemini.rate_limited", true))
		return "", err
	}

	var systemParts []genai.Part
	var userParts []genai.Part
	for _, m := range messages {
		switch m.Role {
		case rag.RoleSystem:
			systemParts = append(systemParts, genai.Text(m.Content))
		default:
			userParts = append(userParts, genai.Text(m.Content))
		}
	}
	if len(userParts) == 0 {
		return "", fmt.Errorf("no user message to complete")
	}

	result, err := g.breaker.Execute(func() (interface{}, error) {
		model := g.client.GenerativeModel(g.model)
		model.SetTemperature(0.7)
		model.SetMaxOutputTokens(2048)
		if len(systemParts) > 0 {
			model.SystemInstruction = &genai.Content{Parts: systemParts}
		}

		resp, err := model.GenerateContent(ctx, userParts...)
		if err != nil {
			span.SetAttributes(attribute.Bool("gemini.error", true))
			return nil, err
		}
		return resp, nil
	})
	if err != nil {
		if err == gobreaker.ErrOpenState {
			span.SetAttributes(attribute.Bool("gemini.circuit_breaker_open", true))
		}
		return "", err
	}

	resp := result.(*genai.GenerateContentResponse)
	if resp.UsageMetadata != nil {
		span.SetAttributes(attribute.Int("gemini.total_tokens", int(resp.UsageMetadata.TotalTokenCount)))
	}

	text := extractText(resp)
	if text == "" {
		return "", fmt.Errorf("empty completion from model")
	}
	return text, nil
}

// extractText flattens the response envelope down to plain text.
func extractText(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
	}
	return b.String()
}

// Close releases the underlying API client.
func (g *GeminiChat) Close() error {
	return g.client.Close()
}

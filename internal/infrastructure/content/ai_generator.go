// Package content generates notification payloads in the pet's voice.
// The AI service is the primary source; a canned fallback keeps the
// pipeline alive when it is down.
package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/puppytalk-hub/notification-engine/internal/domain/notification"
	"github.com/puppytalk-hub/notification-engine/internal/domain/shared"
	"github.com/puppytalk-hub/notification-engine/pkg/retry"
)

// AIConfig holds AI content service client configuration.
type AIConfig struct {
	// BaseURL is the AI service endpoint, e.g. "http://ai-service:8081".
	BaseURL string

	// APIKey authenticates requests to the AI service.
	APIKey string

	// Timeout bounds a single generation request.
	Timeout time.Duration
}

// DefaultAIConfig returns a sensible default configuration.
func DefaultAIConfig() AIConfig {
	return AIConfig{Timeout: 10 * time.Second}
}

// AIGenerator calls the AI content service to write a message in the pet's
// voice, with chat history as context. Transient failures are retried with
// backoff before the error reaches the caller.
type AIGenerator struct {
	config  AIConfig
	client  *http.Client
	retrier *retry.Retrier
}

// NewAIGenerator creates an AI content generator.
func NewAIGenerator(cfg AIConfig) *AIGenerator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultAIConfig().Timeout
	}

	return &AIGenerator{
		config:  cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		retrier: retry.AIServiceRetrier(),
	}
}

type generateRequest struct {
	PetName        string   `json:"pet_name"`
	Persona        string   `json:"persona"`
	RecentMessages []string `json:"recent_messages"`
}

type generateResponse struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Generate asks the AI service for a notification payload.
func (g *AIGenerator) Generate(ctx context.Context, req notification.ContentRequest) (notification.Content, error) {
	var content notification.Content
	err := g.retrier.Do(ctx, func(ctx context.Context) error {
		var genErr error
		content, genErr = g.generateOnce(ctx, req)
		return genErr
	})
	return content, err
}

func (g *AIGenerator) generateOnce(ctx context.Context, req notification.ContentRequest) (notification.Content, error) {
	body, err := json.Marshal(generateRequest{
		PetName:        req.PetName,
		Persona:        req.Persona,
		RecentMessages: req.RecentMessages,
	})
	if err != nil {
		return notification.Content{}, retry.Permanent(fmt.Errorf("marshal generation request: %w", err))
	}

	url := strings.TrimRight(g.config.BaseURL, "/") + "/api/v1/messages/generate"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return notification.Content{}, retry.Permanent(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if g.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.config.APIKey)
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return notification.Content{}, retry.Retryable(fmt.Errorf("%w: ai service request: %w", shared.ErrExternalService, err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		io.Copy(io.Discard, resp.Body)
		return notification.Content{}, retry.Retryable(fmt.Errorf("%w: ai service returned status %d", shared.ErrExternalService, resp.StatusCode))
	default:
		io.Copy(io.Discard, resp.Body)
		return notification.Content{}, retry.Permanent(fmt.Errorf("%w: ai service returned status %d", shared.ErrExternalService, resp.StatusCode))
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return notification.Content{}, retry.Retryable(fmt.Errorf("decode ai service response: %w", err))
	}

	if strings.TrimSpace(decoded.Title) == "" || strings.TrimSpace(decoded.Content) == "" {
		return notification.Content{}, retry.Retryable(fmt.Errorf("ai service returned empty content"))
	}

	return notification.Content{
		Title: decoded.Title,
		Body:  decoded.Content,
	}, nil
}

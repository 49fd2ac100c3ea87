package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/crumplecup/strictly-games-sub000/internal/tictactoe"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"

	anthropicVersion = "2023-06-01"
	llmTimeout       = 60 * time.Second
)

var (
	ErrUnknownProvider = errors.New("unknown llm provider")
	ErrEmptyCompletion = errors.New("empty completion from llm")
)

// LLMConfig describes the text-generation backend used by an automated
// participant.
type LLMConfig struct {
	Provider  string
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
}

// LLMSource elicits moves from a chat-completion API. The prompt presents
// only the filtered candidate set; the reply is parsed as a position
// number or name and must land inside that set.
type LLMSource struct {
	logger *slog.Logger
	config LLMConfig
	client *http.Client
}

func NewLLMSource(logger *slog.Logger, config LLMConfig) *LLMSource {
	return &LLMSource{
		logger: logger.With("component", "llm"),
		config: config,
		client: &http.Client{Timeout: llmTimeout},
	}
}

func (that *LLMSource) ProposeMove(ctx context.Context, req MoveRequest) (tictactoe.Position, error) {
	log := that.logger.With("method", "ProposeMove", "sessionID", req.SessionID)

	prompt := buildMovePrompt(req)

	completion, err := that.complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to get completion: %w", err)
	}

	position, err := tictactoe.ParsePosition(completion)
	if err != nil {
		return "", fmt.Errorf("failed to parse completion %q: %w", completion, err)
	}

	log.Debug("llm proposed move", "position", position)

	return position, nil
}

// buildMovePrompt - renders the board and the closed menu of legal
// positions.
func buildMovePrompt(req MoveRequest) string {
	var builder strings.Builder

	fmt.Fprintf(&builder, "You are playing tic-tac-toe as %s.\n\nBoard:\n%s\n\nLegal positions:\n", req.Mark, req.BoardText)
	for _, candidate := range req.Candidates {
		fmt.Fprintf(&builder, "%d. %s\n", candidate.Index(), candidate)
	}
	builder.WriteString("\nRespond with ONLY the position number and nothing else.")

	return builder.String()
}

func (that *LLMSource) complete(ctx context.Context, prompt string) (string, error) {
	switch that.config.Provider {
	case ProviderOpenAI:
		return that.completeOpenAI(ctx, prompt)
	case ProviderAnthropic:
		return that.completeAnthropic(ctx, prompt)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, that.config.Provider)
	}
}

func (that *LLMSource) completeOpenAI(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"model":      that.config.Model,
		"max_tokens": that.config.MaxTokens,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	headers := map[string]string{
		"Authorization": "Bearer " + that.config.APIKey,
	}

	if err := that.post(ctx, that.config.BaseURL+"/chat/completions", headers, body, &response); err != nil {
		return "", err
	}

	if len(response.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

func (that *LLMSource) completeAnthropic(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"model":      that.config.Model,
		"max_tokens": that.config.MaxTokens,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	var response struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}

	headers := map[string]string{
		"x-api-key":         that.config.APIKey,
		"anthropic-version": anthropicVersion,
	}

	if err := that.post(ctx, that.config.BaseURL+"/v1/messages", headers, body, &response); err != nil {
		return "", err
	}

	if len(response.Content) == 0 {
		return "", ErrEmptyCompletion
	}

	return strings.TrimSpace(response.Content[0].Text), nil
}

func (that *LLMSource) post(ctx context.Context, url string, headers map[string]string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := that.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("llm api returned %d: %s", resp.StatusCode, raw)
	}

	if err = json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}

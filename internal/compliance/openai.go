package compliance

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Reviewer dispatches an assembled request to a compliance review service
type Reviewer interface {
	Review(ctx context.Context, req *Request) (*Response, error)
}

// OpenAIReviewer implements Reviewer with OpenAI chat completions
type OpenAIReviewer struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewOpenAIReviewer creates a reviewer. An empty baseURL uses the public API.
func NewOpenAIReviewer(apiKey, model, baseURL string, logger *zap.Logger) (*OpenAIReviewer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if model == "" {
		model = openai.GPT4o
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &OpenAIReviewer{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		logger: logger,
	}, nil
}

// Review sends every segment as a system message and validates the reply
func (r *OpenAIReviewer) Review(ctx context.Context, req *Request) (*Response, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Segments))
	for _, seg := range req.Segments {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    seg.Role,
			Content: seg.Content,
		})
	}

	r.logger.Debug("Sending review request to OpenAI",
		zap.String("model", r.model),
		zap.Int("segments", len(messages)),
		zap.Int("line_items", req.ItemCount))

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    r.model,
		Messages: messages,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		r.logger.Error("OpenAI API call failed", zap.Error(err))
		return nil, fmt.Errorf("calling review service: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, &ResponseError{Reason: "no choices in completion"}
	}

	content := resp.Choices[0].Message.Content
	result, err := DecodeResponse(content, req.ItemCount)
	if err != nil {
		r.logger.Warn("Review response failed validation", zap.Error(err))
		return nil, err
	}

	r.logger.Info("Compliance review completed",
		zap.Int("line_items", req.ItemCount),
		zap.Int("violations", result.Violations()))

	return result, nil
}

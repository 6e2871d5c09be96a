package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"doculens/internal/config"
	"doculens/internal/domain"
	"doculens/internal/inference"
	"doculens/internal/metrics"
	"doculens/internal/port"
)

func init() {
	inference.RegisterProvider("openai", func(cfg *config.InferenceConfig) (port.InferenceGateway, error) {
		return NewGateway(cfg), nil
	})
}

// Gateway implements port.InferenceGateway against any OpenAI-compatible
// chat-completions endpoint (LM Studio, vLLM, the hosted API).
type Gateway struct {
	client *openai.Client
	model  string
}

// NewGateway creates an OpenAI-compatible inference gateway.
func NewGateway(cfg *config.InferenceConfig) *Gateway {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Gateway{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}
}

// Generate sends one page to the endpoint. Expected failures come back as
// typed outcomes, never as errors; the call blocks at most req.Timeout.
func (g *Gateway) Generate(ctx context.Context, req domain.InferenceRequest) domain.InferenceResponse {
	resp := domain.InferenceResponse{PageIndex: req.PageIndex}

	callCtx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	dataURL := fmt.Sprintf("data:%s;base64,%s",
		req.ImageMIMEType, base64.StdEncoding.EncodeToString(req.ImageData))

	chatReq := openai.ChatCompletionRequest{
		Model:       g.model,
		MaxTokens:   req.MaxOutputTokens,
		Temperature: req.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: req.Prompt},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: dataURL},
					},
				},
			},
		},
	}

	start := time.Now()
	out, err := g.client.CreateChatCompletion(callCtx, chatReq)
	resp.Latency = time.Since(start)

	if err != nil {
		resp.Outcome, resp.Detail = classifyError(err)
	} else if len(out.Choices) == 0 {
		resp.Outcome = domain.OutcomeServerError
		resp.Detail = "empty response: no choices"
	} else {
		resp.Outcome = domain.OutcomeSuccess
		resp.RawText = out.Choices[0].Message.Content
	}

	metrics.InferenceRequestsTotal.WithLabelValues("openai", g.model, string(resp.Outcome)).Inc()
	metrics.InferenceRequestDuration.WithLabelValues("openai", g.model).Observe(resp.Latency.Seconds())
	return resp
}

func classifyError(err error) (domain.Outcome, string) {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.OutcomeTimeout, "inference call timed out"
	}
	if errors.Is(err, context.Canceled) {
		return domain.OutcomeTransportError, "inference call cancelled"
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return domain.OutcomeServerError, fmt.Sprintf("endpoint returned status %d", apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode >= 500 {
		return domain.OutcomeServerError, fmt.Sprintf("endpoint returned status %d", reqErr.HTTPStatusCode)
	}
	return domain.OutcomeTransportError, err.Error()
}

package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"doculens/internal/config"
	"doculens/internal/domain"
	"doculens/internal/inference"
	"doculens/internal/metrics"
	"doculens/internal/port"
)

const apiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

func init() {
	inference.RegisterProvider("gemini", func(cfg *config.InferenceConfig) (port.InferenceGateway, error) {
		return NewGateway(cfg), nil
	})
}

// Gateway implements port.InferenceGateway using Google's Gemini API.
type Gateway struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewGateway creates a Gemini-based inference gateway. A non-empty BaseURL
// in the config overrides the public endpoint (used for testing and proxies).
func NewGateway(cfg *config.InferenceConfig) *Gateway {
	endpoint := cfg.BaseURL
	if endpoint == "" {
		endpoint = fmt.Sprintf("%s/%s:generateContent", apiBaseURL, cfg.Model)
	}
	return &Gateway{
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		endpoint: endpoint,
		// Per-call deadlines come from the request context, not the client.
		client: &http.Client{},
	}
}

// geminiResponse models the Gemini API response.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

// Generate sends one page to the Gemini endpoint, mapping every expected
// failure mode onto a typed outcome.
func (g *Gateway) Generate(ctx context.Context, req domain.InferenceRequest) domain.InferenceResponse {
	resp := domain.InferenceResponse{PageIndex: req.PageIndex}

	callCtx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"role": "user",
				"parts": []map[string]interface{}{
					{
						"inline_data": map[string]interface{}{
							"mime_type": req.ImageMIMEType,
							"data":      base64.StdEncoding.EncodeToString(req.ImageData),
						},
					},
					{
						"text": req.Prompt,
					},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"responseMimeType": "application/json",
			"maxOutputTokens":  req.MaxOutputTokens,
			"temperature":      req.Temperature,
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		resp.Outcome = domain.OutcomeTransportError
		resp.Detail = fmt.Sprintf("marshaling request: %v", err)
		return resp
	}

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, g.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		resp.Outcome = domain.OutcomeTransportError
		resp.Detail = fmt.Sprintf("creating request: %v", err)
		return resp
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	start := time.Now()
	httpResp, err := g.client.Do(httpReq)
	resp.Latency = time.Since(start)

	switch {
	case err != nil:
		if errors.Is(err, context.DeadlineExceeded) {
			resp.Outcome = domain.OutcomeTimeout
			resp.Detail = "inference call timed out"
		} else {
			resp.Outcome = domain.OutcomeTransportError
			resp.Detail = err.Error()
		}
	default:
		resp.Outcome, resp.RawText, resp.Detail = readBody(httpResp)
	}

	metrics.InferenceRequestsTotal.WithLabelValues("gemini", g.model, string(resp.Outcome)).Inc()
	metrics.InferenceRequestDuration.WithLabelValues("gemini", g.model).Observe(resp.Latency.Seconds())
	return resp
}

func readBody(httpResp *http.Response) (domain.Outcome, string, string) {
	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return domain.OutcomeTransportError, "", fmt.Sprintf("reading response: %v", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return domain.OutcomeServerError, "", fmt.Sprintf("endpoint returned status %d", httpResp.StatusCode)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return domain.OutcomeServerError, "", fmt.Sprintf("unmarshaling response: %v", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return domain.OutcomeServerError, "", "empty response: no candidates"
	}
	return domain.OutcomeSuccess, parsed.Candidates[0].Content.Parts[0].Text, ""
}

package enhance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const geminiAPIBase = "https://generativelanguage.googleapis.com/v1beta/models"

const geminiSystemPrompt = `You are a web quality consultant reviewing an automated page audit.
Given the audit summary, reply with a single JSON object:
{"summary": "<2-3 sentence assessment>",
 "confidence": <0.0-1.0, your confidence in this assessment>,
 "recommendations": [{"priority": "high|medium|low", "category": "<domain>",
   "title": "<short action>", "description": "<one sentence>"}]}
Recommend only what the audit data supports. No markdown, JSON only.`

// GeminiProvider produces insights via the Gemini generateContent API.
type GeminiProvider struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewGeminiProvider builds a provider for the given API key and model.
func NewGeminiProvider(apiKey, model string) *GeminiProvider {
	return &GeminiProvider{
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 45 * time.Second},
	}
}

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  *geminiGenConf  `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConf struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// ProduceInsights sends the audit summary and parses the model's JSON
// reply. The confidence gate, not this method, decides acceptance.
func (p *GeminiProvider) ProduceInsights(ctx context.Context, in Input) (*Insights, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("enhance: marshal input: %w", err)
	}

	text, err := p.callAPI(ctx, geminiSystemPrompt, string(payload))
	if err != nil {
		return nil, err
	}

	var ins Insights
	if err := json.Unmarshal([]byte(cleanJSON(text)), &ins); err != nil {
		return nil, fmt.Errorf("enhance: invalid provider JSON (%q): %w", text, err)
	}
	return &ins, nil
}

func (p *GeminiProvider) callAPI(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	reqBody := geminiRequest{
		SystemInstruction: &geminiContent{
			Parts: []geminiPart{{Text: systemPrompt}},
		},
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: userMessage}}},
		},
		GenerationConfig: &geminiGenConf{
			Temperature:     0.1, // low temperature for consistent judgments
			MaxOutputTokens: 1024,
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", geminiAPIBase, p.model, p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("enhance: call provider: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("enhance: provider status %d: %s", resp.StatusCode, string(respBody))
	}

	var gr geminiResponse
	if err := json.Unmarshal(respBody, &gr); err != nil {
		return "", fmt.Errorf("enhance: parse provider response: %w", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("enhance: empty provider response")
	}

	return gr.Candidates[0].Content.Parts[0].Text, nil
}

// cleanJSON strips markdown code fences the model may wrap around JSON.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

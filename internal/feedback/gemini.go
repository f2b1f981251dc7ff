package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiClient calls the Gemini generateContent endpoint with a structured
// output schema so responses arrive as KPT JSON.
type GeminiClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewGeminiClient creates a client for the given API key and model name.
func NewGeminiClient(apiKey, model string) *GeminiClient {
	return &GeminiClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithBaseURL overrides the API endpoint, used by tests.
func (c *GeminiClient) WithBaseURL(baseURL string) *GeminiClient {
	c.baseURL = baseURL
	return c
}

// kptResponse mirrors the JSON shape the response schema requests.
type kptResponse struct {
	Summary string `json:"summary"`
	Keep    struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"keep"`
	Problem struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"problem"`
	TryAction struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"tryAction"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMimeType string          `json:"responseMimeType"`
	ResponseSchema   json.RawMessage `json:"responseSchema"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// kptSchema constrains the model output to the KPT retrospective shape.
var kptSchema = json.RawMessage(`{
  "type": "OBJECT",
  "properties": {
    "summary": {"type": "STRING"},
    "keep": {
      "type": "OBJECT",
      "properties": {"title": {"type": "STRING"}, "description": {"type": "STRING"}},
      "required": ["title", "description"]
    },
    "problem": {
      "type": "OBJECT",
      "properties": {"title": {"type": "STRING"}, "description": {"type": "STRING"}},
      "required": ["title", "description"]
    },
    "tryAction": {
      "type": "OBJECT",
      "properties": {"title": {"type": "STRING"}, "description": {"type": "STRING"}},
      "required": ["title", "description"]
    }
  },
  "required": ["summary", "keep", "problem", "tryAction"]
}`)

// Generate sends the prompt and returns the parsed KPT payload.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (*kptResponse, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   kptSchema,
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call feedback API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrAPIFailure, resp.StatusCode)
	}

	var gen generateResponse
	if err := json.Unmarshal(body, &gen); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if len(gen.Candidates) == 0 || len(gen.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: no candidates", ErrBadResponse)
	}

	var kpt kptResponse
	if err := json.Unmarshal([]byte(gen.Candidates[0].Content.Parts[0].Text), &kpt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	return &kpt, nil
}

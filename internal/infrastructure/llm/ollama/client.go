package ollama

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/kyc-extractor/internal/infrastructure/resilience"
)

const defaultTimeout = 120 * time.Second

type Client struct {
	baseURL     string
	visionModel string
	httpClient  *http.Client
	executor    *resilience.Executor
}

type Options struct {
	Timeout            time.Duration
	ResilienceExecutor *resilience.Executor
}

func New(baseURL, visionModel string) *Client {
	return NewWithOptions(baseURL, visionModel, Options{})
}

func NewWithOptions(baseURL, visionModel string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		visionModel: visionModel,
		httpClient:  &http.Client{Timeout: timeout},
		executor:    options.ResilienceExecutor,
	}
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Images  []string       `json:"images,omitempty"`
	Stream  bool           `json:"stream"`
	Format  string         `json:"format"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// generateJSON sends a prompt with optional page images and returns the raw
// model text. Retries and the breaker wrap the whole HTTP exchange.
func (c *Client) generateJSON(ctx context.Context, prompt string, images [][]byte) (string, error) {
	request := generateRequest{
		Model:   c.visionModel,
		Prompt:  prompt,
		Stream:  false,
		Format:  "json",
		Options: map[string]any{"temperature": 0},
	}
	for _, image := range images {
		request.Images = append(request.Images, base64.StdEncoding.EncodeToString(image))
	}

	response, err := resilience.Do(ctx, c.executor, resilience.OperationModelGenerate, func(callCtx context.Context) (generateResponse, error) {
		var out generateResponse
		err := c.postJSON(callCtx, "/api/generate", request, &out, "generate")
		return out, err
	}, classifyOllamaError)
	if err != nil {
		return "", wrapModelError(resilience.OperationModelGenerate, err)
	}
	return strings.TrimSpace(response.Response), nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}

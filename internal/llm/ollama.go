package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"opschat/internal/domain"
)

// OllamaProvider calls the local Ollama API.
type OllamaProvider struct {
	model   string
	baseURL string
	client  *http.Client
}

// NewOllamaProvider returns an Ollama-backed LLMProvider. baseURL is the
// server root, e.g. "http://localhost:11434".
func NewOllamaProvider(baseURL, model string) *OllamaProvider {
	return &OllamaProvider{
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
	}
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// post sends the generate request and hands back the open response body.
// Callers own closing it.
func (p *OllamaProvider) post(ctx context.Context, prompt string, stream bool) (*http.Response, error) {
	body := ollamaRequest{
		Model:  p.model,
		Prompt: prompt,
		Stream: stream,
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("ollama marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/generate", bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamHTTP, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: ollama api: %s", domain.ErrUpstreamHTTP, resp.Status)
	}
	return resp, nil
}

// Generate implements domain.LLMProvider with a single non-streaming call.
func (p *OllamaProvider) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	resp, err := p.post(ctx, prompt, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: ollama decode: %v", domain.ErrUpstreamHTTP, err)
	}
	if out.Response == "" {
		return "", fmt.Errorf("%w: ollama: empty response", domain.ErrUpstreamHTTP)
	}
	return out.Response, nil
}

// GenerateStream implements domain.LLMProvider. The streaming response is
// newline-delimited JSON objects, each carrying an incremental Response
// fragment; fragments are concatenated in receipt order to form the full
// text. onChunk, if non-nil, observes each fragment as it arrives.
func (p *OllamaProvider) GenerateStream(ctx context.Context, prompt string, onChunk func(string)) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	resp, err := p.post(ctx, prompt, true)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var sb strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var chunk ollamaResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			return "", fmt.Errorf("%w: ollama stream decode: %v", domain.ErrUpstreamHTTP, err)
		}
		if chunk.Response != "" {
			sb.WriteString(chunk.Response)
			if onChunk != nil {
				onChunk(chunk.Response)
			}
		}
		if chunk.Done {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("%w: ollama stream read: %v", domain.ErrUpstreamHTTP, err)
	}
	return sb.String(), nil
}

// Ensure OllamaProvider implements domain.LLMProvider at compile time.
var _ domain.LLMProvider = (*OllamaProvider)(nil)

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicModel = "claude-sonnet-4-5-20250929"
const defaultOpenAIModel = "gpt-4o-mini"

// maxWorkflowPayloadChars bounds the serialized payload sent to the
// workflow backend, which rejects oversized inputs.
const maxWorkflowPayloadChars = 4000

type AnalysisKind string

const (
	KindReleases     AnalysisKind = "releases"
	KindPullRequests AnalysisKind = "pullRequests"
	KindIssues       AnalysisKind = "issues"
	KindCommits      AnalysisKind = "commits"
)

var analysisPrompts = map[AnalysisKind]string{
	KindReleases:     "你是开源项目周报的编辑。请用中文简要分析下面这次版本发布的主要变化和亮点，80 字以内，直接输出正文。",
	KindPullRequests: "你是开源项目周报的编辑。请用中文概括本周 Pull Request 的整体动态和值得关注的改动，80 字以内，直接输出正文。",
	KindIssues:       "你是开源项目周报的编辑。请用中文概括本周热门 Issue 反映的社区关注点，80 字以内，直接输出正文。",
	KindCommits:      "你是开源项目周报的编辑。请用中文点评本周各仓库的提交活跃度，50 字以内，直接输出正文。",
}

// SummaryBackend is one interchangeable text-generation service.
type SummaryBackend interface {
	Name() string
	Available() bool
	Summarize(ctx context.Context, kind AnalysisKind, payload string) (string, error)
}

// Summarizer picks the first backend whose credential is present and
// well-formed. Summarization is best-effort enrichment: no backend or a
// failing call both yield an empty result, never an error.
type Summarizer struct {
	backends []SummaryBackend
}

func NewSummarizer(cfg Config) *Summarizer {
	return &Summarizer{backends: []SummaryBackend{
		&anthropicBackend{apiKey: cfg.AnthropicAPIKey, model: cfg.LLMModel},
		&openAIBackend{apiKey: cfg.OpenAIAPIKey, model: cfg.LLMModel},
		&workflowBackend{apiKey: cfg.DifyAPIKey, endpoint: cfg.DifyEndpoint},
	}}
}

func (s *Summarizer) Summarize(ctx context.Context, kind AnalysisKind, payload string) string {
	if s == nil {
		return ""
	}
	backend := s.pick()
	if backend == nil {
		return ""
	}
	text, err := backend.Summarize(ctx, kind, payload)
	if err != nil {
		// A failed call is treated like "no backend available"; the
		// next-priority backend is not tried for this call.
		log.Printf("llm summarize backend=%s kind=%s error: %v", backend.Name(), kind, err)
		return ""
	}
	return strings.TrimSpace(text)
}

func (s *Summarizer) pick() SummaryBackend {
	for _, backend := range s.backends {
		if backend.Available() {
			return backend
		}
	}
	return nil
}

// --- Anthropic ---

type anthropicBackend struct {
	apiKey string
	model  string
}

func (b *anthropicBackend) Name() string { return "anthropic" }

func (b *anthropicBackend) Available() bool {
	return strings.HasPrefix(b.apiKey, "sk-ant-")
}

func (b *anthropicBackend) Summarize(ctx context.Context, kind AnalysisKind, payload string) (string, error) {
	client := anthropic.NewClient(option.WithAPIKey(b.apiKey))

	model := b.model
	if model == "" {
		model = defaultAnthropicModel
	}
	log.Printf("llm summarize provider=anthropic model=%s kind=%s payload_size=%d", model, kind, len(payload))

	message, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: analysisPrompts[kind]},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(payload)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("Anthropic API error: %w", err)
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in Anthropic response")
}

// --- OpenAI ---

type openAIBackend struct {
	apiKey string
	model  string
}

type openAIRequest struct {
	Model    string          `json:"model"`
	Messages []openAIMessage `json:"messages"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (b *openAIBackend) Name() string { return "openai" }

func (b *openAIBackend) Available() bool {
	return strings.HasPrefix(b.apiKey, "sk-")
}

func (b *openAIBackend) Summarize(ctx context.Context, kind AnalysisKind, payload string) (string, error) {
	model := b.model
	if model == "" {
		model = defaultOpenAIModel
	}
	log.Printf("llm summarize provider=openai model=%s kind=%s payload_size=%d", model, kind, len(payload))

	reqBody := openAIRequest{
		Model: model,
		Messages: []openAIMessage{
			{Role: "system", Content: analysisPrompts[kind]},
			{Role: "user", Content: payload},
		},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", "https://api.openai.com/v1/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.apiKey)

	resp, err := externalHTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	var openAIResp openAIResponse
	if err := json.Unmarshal(respBody, &openAIResp); err != nil {
		return "", fmt.Errorf("parsing OpenAI response: %w", err)
	}
	if openAIResp.Error != nil {
		return "", fmt.Errorf("OpenAI API error: %s", openAIResp.Error.Message)
	}
	if len(openAIResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in OpenAI response")
	}
	return openAIResp.Choices[0].Message.Content, nil
}

// --- Workflow (Dify-style) ---

type workflowBackend struct {
	apiKey   string
	endpoint string
}

type workflowRequest struct {
	Inputs       map[string]string `json:"inputs"`
	ResponseMode string            `json:"response_mode"`
	User         string            `json:"user"`
}

type workflowResponse struct {
	Data struct {
		Status  string            `json:"status"`
		Outputs map[string]string `json:"outputs"`
	} `json:"data"`
}

func (b *workflowBackend) Name() string { return "workflow" }

func (b *workflowBackend) Available() bool {
	if b.apiKey == "" || b.endpoint == "" {
		return false
	}
	u, err := url.Parse(b.endpoint)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (b *workflowBackend) Summarize(ctx context.Context, kind AnalysisKind, payload string) (string, error) {
	payload = truncateForWorkflow(payload)
	log.Printf("llm summarize provider=workflow kind=%s payload_size=%d", kind, len(payload))

	reqBody := workflowRequest{
		Inputs: map[string]string{
			"task": analysisPrompts[kind],
			"data": payload,
		},
		ResponseMode: "blocking",
		User:         "openclaw-weekly",
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", strings.TrimRight(b.endpoint, "/")+"/workflows/run", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.apiKey)

	resp, err := externalHTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("workflow API error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != 200 {
		return "", fmt.Errorf("workflow API returned %d: %s", resp.StatusCode, string(respBody))
	}

	var wfResp workflowResponse
	if err := json.Unmarshal(respBody, &wfResp); err != nil {
		return "", fmt.Errorf("parsing workflow response: %w", err)
	}
	if text := wfResp.Data.Outputs["text"]; text != "" {
		return text, nil
	}
	return "", fmt.Errorf("no text output in workflow response (status=%s)", wfResp.Data.Status)
}

func truncateForWorkflow(payload string) string {
	runes := []rune(payload)
	if len(runes) <= maxWorkflowPayloadChars {
		return payload
	}
	return string(runes[:maxWorkflowPayloadChars]) + "..."
}

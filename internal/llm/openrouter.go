package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopipet/chatkit/internal/logger"
)

const defaultEndpoint = "https://openrouter.ai/api/v1/chat/completions"

// DefaultModel is the chat model used when none is configured.
const DefaultModel = "openai/gpt-4o-mini"

// OpenRouterService implements interactions with the OpenRouter API.
type OpenRouterService struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
}

// OpenRouterError represents an error response from the OpenRouter API.
type OpenRouterError struct {
	Error struct {
		Message  string `json:"message"`
		Code     int    `json:"code"`
		Metadata struct {
			Raw          string `json:"raw"`
			ProviderName string `json:"provider_name"`
		} `json:"metadata"`
	} `json:"error"`
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents a request to the chat completion API.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

// NewOpenRouterService creates a new instance of OpenRouterService.
func NewOpenRouterService(apiKey, model string) *OpenRouterService {
	if model == "" {
		model = DefaultModel
	}
	return &OpenRouterService{
		apiKey:   apiKey,
		model:    model,
		endpoint: defaultEndpoint,
		httpClient: &http.Client{
			Timeout: 120 * time.Second, // Set a generous timeout for LLM responses
		},
	}
}

// Generate sends a system+user prompt pair to the chat completion API and
// returns the assistant's text.
func (s *OpenRouterService) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if s.apiKey == "" {
		return "", errors.New("OpenRouter API key is not configured")
	}

	reqBody := ChatRequest{
		Model: s.model,
		Messages: []Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		logger.LLMError("Failed to marshal LLM request: %v", err)
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	logger.LLMInfo("Sending request to LLM '%s' with %d messages.", s.model, len(reqBody.Messages))

	req, err := http.NewRequestWithContext(ctx, "POST", s.endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		logger.LLMError("Failed to create HTTP request for LLM: %v", err)
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		logger.LLMError("Failed to send HTTP request to LLM: %v", err)
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.LLMError("Failed to read LLM response body: %v", err)
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	// Check for error in response body regardless of status code.
	var openRouterErr OpenRouterError
	if err := json.Unmarshal(body, &openRouterErr); err == nil && openRouterErr.Error.Message != "" {
		errMsg := fmt.Sprintf("OpenRouter API error: %s (code: %d)", openRouterErr.Error.Message, openRouterErr.Error.Code)
		if openRouterErr.Error.Metadata.ProviderName != "" {
			errMsg = fmt.Sprintf("OpenRouter API error (%s): %s", openRouterErr.Error.Metadata.ProviderName, openRouterErr.Error.Message)
			if openRouterErr.Error.Metadata.Raw != "" {
				errMsg += fmt.Sprintf(" - Raw: %s", openRouterErr.Error.Metadata.Raw)
			}
		}
		logger.LLMError("%s", errMsg)
		return "", errors.New(errMsg)
	}

	if resp.StatusCode != http.StatusOK {
		errMsg := fmt.Sprintf("OpenRouter API HTTP error (status %d): %s", resp.StatusCode, string(body))
		logger.LLMError("%s", errMsg)
		return "", errors.New(errMsg)
	}

	var openRouterResp struct {
		ID      string `json:"id"`
		Choices []struct {
			FinishReason string  `json:"finish_reason"`
			Message      Message `json:"message"`
		} `json:"choices"`
		Model string `json:"model"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage,omitempty"`
	}
	if err := json.Unmarshal(body, &openRouterResp); err != nil {
		logger.LLMError("Failed to decode LLM success response: %v", err)
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(openRouterResp.Choices) == 0 {
		logger.LLMError("OpenRouter API returned no choices in response.")
		return "", errors.New("OpenRouter API returned no choices")
	}

	if openRouterResp.Usage.TotalTokens > 0 {
		logger.LLMInfo("LLM Usage - Prompt: %d, Completion: %d, Total: %d tokens. Finish Reason: %s",
			openRouterResp.Usage.PromptTokens,
			openRouterResp.Usage.CompletionTokens,
			openRouterResp.Usage.TotalTokens,
			openRouterResp.Choices[0].FinishReason,
		)
	} else {
		logger.LLMInfo("LLM call completed. Finish Reason: %s (Usage data unavailable)",
			openRouterResp.Choices[0].FinishReason)
	}

	content := openRouterResp.Choices[0].Message.Content
	preview := content
	if len(preview) > 80 {
		preview = preview[:80] + "..."
	}
	logger.LLMDebug("LLM response: %q", preview)

	return content, nil
}

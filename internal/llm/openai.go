package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
	"sync"

	openai "github.com/sashabaranov/go-openai"

	"facility-intake-backend/internal/chat"
)

const defaultOpenAIModel = "gpt-4o-mini"

type OpenAI struct {
	client *openai.Client
	model  string
}

func NewOpenAI(apiKey, baseURL, model string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: model}
}

func (p *OpenAI) Name() string { return "openai:" + p.model }

func (p *OpenAI) OpenSession(_ context.Context, instruction string) (chat.Session, error) {
	s := &openAISession{client: p.client, model: p.model}
	if instruction != "" {
		s.history = append(s.history, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: instruction})
	}
	return s, nil
}

func (p *OpenAI) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if opts.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: opts.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// openAISession keeps the conversation client-side; the chat completions API
// is stateless.
type openAISession struct {
	client *openai.Client
	model  string

	mu      sync.Mutex
	history []openai.ChatCompletionMessage
}

func (s *openAISession) SendStream(ctx context.Context, message string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		user := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: message}
		s.mu.Lock()
		messages := append(append([]openai.ChatCompletionMessage(nil), s.history...), user)
		s.mu.Unlock()

		stream, err := s.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
			Model:    s.model,
			Messages: messages,
			Stream:   true,
		})
		if err != nil {
			yield("", err)
			return
		}
		defer stream.Close()

		var builder strings.Builder
		for {
			response, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				yield("", err)
				return
			}
			if len(response.Choices) == 0 {
				continue
			}
			chunk := response.Choices[0].Delta.Content
			if chunk == "" {
				continue
			}
			builder.WriteString(chunk)
			if !yield(chunk, nil) {
				return
			}
		}
		s.mu.Lock()
		s.history = append(s.history, user, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: builder.String()})
		s.mu.Unlock()
	}
}

// Package chat runs the conversational model with the assistant persona
// and a bounded conversation memory.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openai/openai-go/v3"
)

// Apology is spoken when the model is unreachable.
const Apology = "My apologies, I'm experiencing a technical difficulty."

// Service holds the model client and the rolling conversation history.
type Service struct {
	client  openai.Client
	history *History
	model   openai.ChatModel
}

func NewService(client openai.Client) *Service {
	return &Service{
		client:  client,
		history: NewHistory(10),
		model:   openai.ChatModelGPT4oMini,
	}
}

// History exposes the conversation memory, mainly for reset on demand.
func (s *Service) History() *History { return s.history }

// Reply sends the transcript to the model with persona and recent context.
// language steers the response language to match what the user spoke.
func (s *Service) Reply(ctx context.Context, userText, language string) (string, error) {
	system := personaPrompt
	if language != "" {
		system = fmt.Sprintf("%s\n\nRespond in %s.", personaPrompt, language)
	}

	msgs := []openai.ChatCompletionMessageParamUnion{openai.SystemMessage(system)}
	for _, m := range s.history.Messages() {
		switch m.Role {
		case RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}
	msgs = append(msgs, openai.UserMessage(userText))

	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       s.model,
		Messages:    msgs,
		MaxTokens:   openai.Int(150),
		Temperature: openai.Float(0.8),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: empty response")
	}

	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	s.history.Add(RoleUser, userText)
	s.history.Add(RoleAssistant, reply)

	slog.Debug("chat reply", "chars", len(reply), "language", language)
	return reply, nil
}

// Interpret turns raw query output into a short spoken answer. On model
// failure it falls back to reading the output verbatim.
func (s *Service) Interpret(ctx context.Context, question, output string) string {
	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: s.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(interpretSystemPrompt),
			openai.UserMessage(fmt.Sprintf(interpretTemplate, question, output)),
		},
		MaxTokens:   openai.Int(80),
		Temperature: openai.Float(0.7),
	})
	if err != nil || len(resp.Choices) == 0 {
		slog.Warn("query interpretation failed", "err", err)
		return fmt.Sprintf("The query completed, Sir. Result: %s", output)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content)
}

package briefing

import (
	"context"
	"errors"
	"fmt"

	"whats-up/internal/domain"

	"github.com/openai/openai-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// FollowUpEngine answers questions against an already-synthesized briefing.
// It is stateless: conversation history is caller-supplied on every call.
type FollowUpEngine struct {
	tracer trace.Tracer
	llm    LLMClient
	model  string
}

func NewFollowUpEngine(tracer trace.Tracer, llm LLMClient, model string) *FollowUpEngine {
	return &FollowUpEngine{tracer: tracer, llm: llm, model: model}
}

// Answer builds a prompt restating the briefing context, threads any prior
// turns, and returns the model's prose verbatim. focusIndex < 0 means no
// focused bullet.
func (e *FollowUpEngine) Answer(
	ctx context.Context,
	question string,
	bctx FollowUpContext,
	history []domain.ChatMessage,
	focusIndex int,
) (string, error) {
	ctx, span := e.tracer.Start(ctx, "briefing.follow-up")
	defer span.End()
	span.SetAttributes(
		attribute.Int("history_turns", len(history)),
		attribute.Int("focus_index", focusIndex),
	)

	if e.llm == nil {
		return "", &domain.ConfigMissingError{Key: "OPENAI_API_KEY"}
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+3)
	messages = append(messages, openai.SystemMessage(followUpSystemPrompt))
	messages = append(messages, openai.SystemMessage(buildFollowUpPrompt(bctx, focusIndex)))
	for _, msg := range history {
		switch msg.Role {
		case "user":
			messages = append(messages, openai.UserMessage(msg.Content))
		case "assistant":
			messages = append(messages, openai.AssistantMessage(msg.Content))
		}
	}
	messages = append(messages, openai.UserMessage(question))

	completion, err := e.llm.CreateChatCompletion(ctx, openai.ChatCompletionNewParams{
		Model:    e.model,
		Messages: messages,
	})
	if err != nil {
		span.RecordError(err)
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &domain.UpstreamError{Provider: "openai", Status: apiErr.StatusCode,
				Message: "failed to generate follow-up response: " + apiErr.Message}
		}
		return "", fmt.Errorf("failed to generate follow-up response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", &domain.MalformedResponseError{Provider: "openai", Reason: "failed to generate follow-up response: no choices"}
	}

	return completion.Choices[0].Message.Content, nil
}
